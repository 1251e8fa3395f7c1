package textpos

import "fmt"

// Range is an ordered pair of positions with Start <= End.
//
// Ranges built with NewRange are always ordered: a reversed pair is rejected
// with ErrInvalidRange rather than swapped. Use Normalize when the order of
// the endpoints is not known in advance (for example a drag selection).
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// NewRange returns the range [start, end] or ErrInvalidRange if start > end.
func NewRange(start, end Position) (Range, error) {
	if end.Less(start) {
		return Range{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}

	return Range{Start: start, End: end}, nil
}

// MustRange is like NewRange but panics on a reversed pair. Intended for
// literals in tests and tables.
func MustRange(start, end Position) Range {
	r, err := NewRange(start, end)
	if err != nil {
		panic(err)
	}

	return r
}

// Normalize orders a and b into a range regardless of their order.
func Normalize(a, b Position) Range {
	if b.Less(a) {
		return Range{Start: b, End: a}
	}

	return Range{Start: a, End: b}
}

// IsValid reports whether the range is ordered and non-negative.
func (r Range) IsValid() bool {
	return r.Start.IsValid() && r.Start.IsBeforeOrEqual(r.End)
}

// IsEmpty reports whether the range covers no characters.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// IsSingleLine reports whether both endpoints are on the same line.
func (r Range) IsSingleLine() bool {
	return r.Start.Line == r.End.Line
}

// Contains reports whether p lies within the closed range [Start, End].
func (r Range) Contains(p Position) bool {
	return r.Start.IsBeforeOrEqual(p) && p.IsBeforeOrEqual(r.End)
}

// ContainsStrict reports whether p lies within the open range (Start, End).
func (r Range) ContainsStrict(p Position) bool {
	return r.Start.Less(p) && p.Less(r.End)
}

// IntersectsWith reports whether the closed ranges r and other share at
// least one position.
func (r Range) IntersectsWith(other Range) bool {
	return r.Start.IsBeforeOrEqual(other.End) && r.End.IsAfterOrEqual(other.Start)
}

// Overlaps reports whether the half-open ranges [Start, End) share at least
// one character.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Less(other.End) && other.Start.Less(r.End)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s]", r.Start, r.End)
}
