// Package textpos defines logical document coordinates.
//
// A Position addresses a character by line and character offset within the
// line. Positions are totally ordered: line first, then char.
package textpos

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned when a range would end before it starts.
var ErrInvalidRange = errors.New("range start is after range end")

// Position is a logical (line, char) coordinate. Char counts characters
// from the start of Line.
type Position struct {
	Line int `json:"line"`
	Char int `json:"char"`
}

// Pos is shorthand for Position{Line: line, Char: char}.
func Pos(line, char int) Position {
	return Position{Line: line, Char: char}
}

// Compare returns -1, 0 or +1 depending on whether p sorts before, equal to
// or after other.
func (p Position) Compare(other Position) int {
	switch {
	case p.Line < other.Line:
		return -1
	case p.Line > other.Line:
		return 1
	case p.Char < other.Char:
		return -1
	case p.Char > other.Char:
		return 1
	default:
		return 0
	}
}

// Less reports whether p sorts strictly before other.
func (p Position) Less(other Position) bool {
	return p.Compare(other) < 0
}

// IsBeforeOrEqual reports whether p <= other.
func (p Position) IsBeforeOrEqual(other Position) bool {
	return p.Compare(other) <= 0
}

// IsAfterOrEqual reports whether p >= other.
func (p Position) IsAfterOrEqual(other Position) bool {
	return p.Compare(other) >= 0
}

// IsValid reports whether both coordinates are non-negative.
func (p Position) IsValid() bool {
	return p.Line >= 0 && p.Char >= 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Char)
}

// Min returns the earlier of a and b.
func Min(a, b Position) Position {
	if b.Less(a) {
		return b
	}

	return a
}

// Max returns the later of a and b.
func Max(a, b Position) Position {
	if a.Less(b) {
		return b
	}

	return a
}
