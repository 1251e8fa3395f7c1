package cursor

import (
	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/textpos"
)

// Motion is a cursor movement.
type Motion int

// Cursor motions.
const (
	Left Motion = iota
	Right
	Up
	Down
	LineStart
	LineEnd
	DocStart
	DocEnd
	WordLeft
	WordRight
)

var motionNames = map[Motion]string{
	Left:      "left",
	Right:     "right",
	Up:        "up",
	Down:      "down",
	LineStart: "line_start",
	LineEnd:   "line_end",
	DocStart:  "doc_start",
	DocEnd:    "doc_end",
	WordLeft:  "word_left",
	WordRight: "word_right",
}

func (m Motion) String() string {
	if name, ok := motionNames[m]; ok {
		return name
	}

	return "unknown"
}

// ParseMotion returns the motion with the given name.
func ParseMotion(name string) (Motion, bool) {
	for m, n := range motionNames {
		if n == name {
			return m, true
		}
	}

	return 0, false
}

// Navigator is the document view Move reads. *ot.Document implements it.
type Navigator interface {
	LineCount() int
	LineLen(i int) int
	Words(i int) []ot.Word
}

// Move returns p moved by m. Movement wraps across line boundaries for
// character and word motions and stops at the document edges. Vertical
// motions keep the character offset, clamped to the target line.
func Move(doc Navigator, p textpos.Position, m Motion) textpos.Position {
	last := doc.LineCount() - 1
	p = textpos.Pos(min(max(p.Line, 0), last), max(p.Char, 0))
	p.Char = min(p.Char, doc.LineLen(p.Line))

	switch m {
	case Left:
		if p.Char > 0 {
			return textpos.Pos(p.Line, p.Char-1)
		}

		if p.Line > 0 {
			return textpos.Pos(p.Line-1, doc.LineLen(p.Line-1))
		}
	case Right:
		if p.Char < doc.LineLen(p.Line) {
			return textpos.Pos(p.Line, p.Char+1)
		}

		if p.Line < last {
			return textpos.Pos(p.Line+1, 0)
		}
	case Up:
		if p.Line > 0 {
			return textpos.Pos(p.Line-1, min(p.Char, doc.LineLen(p.Line-1)))
		}

		return textpos.Pos(0, 0)
	case Down:
		if p.Line < last {
			return textpos.Pos(p.Line+1, min(p.Char, doc.LineLen(p.Line+1)))
		}

		return textpos.Pos(last, doc.LineLen(last))
	case LineStart:
		return textpos.Pos(p.Line, 0)
	case LineEnd:
		return textpos.Pos(p.Line, doc.LineLen(p.Line))
	case DocStart:
		return textpos.Pos(0, 0)
	case DocEnd:
		return textpos.Pos(last, doc.LineLen(last))
	case WordLeft:
		return wordLeft(doc, p)
	case WordRight:
		return wordRight(doc, p)
	}

	return p
}

func wordLeft(doc Navigator, p textpos.Position) textpos.Position {
	words := doc.Words(p.Line)
	for i := len(words) - 1; i >= 0; i-- {
		if start := words[i].Range.Start; start.Char < p.Char {
			return start
		}
	}

	if p.Char > 0 || p.Line == 0 {
		return textpos.Pos(p.Line, 0)
	}

	return textpos.Pos(p.Line-1, doc.LineLen(p.Line-1))
}

func wordRight(doc Navigator, p textpos.Position) textpos.Position {
	for _, w := range doc.Words(p.Line) {
		if end := w.Range.End; end.Char > p.Char {
			return end
		}
	}

	n := doc.LineLen(p.Line)
	if p.Char < n || p.Line == doc.LineCount()-1 {
		return textpos.Pos(p.Line, n)
	}

	return textpos.Pos(p.Line+1, 0)
}
