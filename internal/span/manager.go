package span

import (
	"errors"
	"fmt"

	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/textpos"
)

// ErrEmptySpan is returned when adding a span that covers no characters.
var ErrEmptySpan = errors.New("span is empty")

// Manager holds the span set of one document. Spans are keyed by value.
//
// Manager is not safe for concurrent use.
type Manager struct {
	spans map[ot.Span]struct{}
}

// NewManager creates an empty span set.
func NewManager() *Manager {
	return &Manager{spans: make(map[ot.Span]struct{})}
}

// Add inserts s. Adding a span that is already present is a no-op.
func (m *Manager) Add(s ot.Span) error {
	if s.Range.End.Less(s.Range.Start) {
		return fmt.Errorf("%w: %s", textpos.ErrInvalidRange, s.Range)
	}

	if s.Range.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrEmptySpan, s.Range)
	}

	m.spans[s] = struct{}{}

	return nil
}

// Remove deletes s and reports whether it was present.
func (m *Manager) Remove(s ot.Span) bool {
	if _, ok := m.spans[s]; !ok {
		return false
	}

	delete(m.spans, s)

	return true
}

// RemoveRange deletes the span with exactly range r and style.
func (m *Manager) RemoveRange(r textpos.Range, style ot.Style) bool {
	return m.Remove(ot.Span{Range: r, Style: style})
}

// Contains reports whether s is in the set.
func (m *Manager) Contains(s ot.Span) bool {
	_, ok := m.spans[s]

	return ok
}

// Len returns the number of spans.
func (m *Manager) Len() int {
	return len(m.spans)
}

// All returns every span, sorted.
func (m *Manager) All() []ot.Span {
	return fromSet(m.spans)
}

// Reset replaces the whole set. Empty and reversed spans are skipped.
func (m *Manager) Reset(spans []ot.Span) {
	m.spans = make(map[ot.Span]struct{}, len(spans))

	for _, s := range spans {
		_ = m.Add(s)
	}
}

// Apply runs the set through op and returns what changed.
func (m *Manager) Apply(op ot.Operation, meta ot.Metadata) Result {
	res := Update(m.All(), op, meta)
	m.spans = toSet(res.Spans)

	return res
}

// Revert restores the set to what it was before op.
func (m *Manager) Revert(op ot.Operation, meta ot.Metadata) {
	m.spans = toSet(Revert(m.All(), op, meta))
}

// InRange returns the spans sharing at least one position with r.
func (m *Manager) InRange(r textpos.Range) []ot.Span {
	var out []ot.Span

	for s := range m.spans {
		if s.Range.IntersectsWith(r) {
			out = append(out, s)
		}
	}

	ot.SortSpans(out)

	return out
}

// At returns the spans covering the character at p.
func (m *Manager) At(p textpos.Position) []ot.Span {
	var out []ot.Span

	for s := range m.spans {
		if s.Range.Start.IsBeforeOrEqual(p) && p.Less(s.Range.End) {
			out = append(out, s)
		}
	}

	ot.SortSpans(out)

	return out
}

// ForWrap returns the spans intersecting the characters [start, end) of line.
func (m *Manager) ForWrap(line, start, end int) []ot.Span {
	return Intersecting(m.All(), line, start, end)
}

// Styles returns the distinct styles of the spans intersecting r.
func (m *Manager) Styles(r textpos.Range) []ot.Style {
	seen := make(map[ot.Style]struct{})

	var out []ot.Style

	for _, s := range m.InRange(r) {
		if _, ok := seen[s.Style]; ok {
			continue
		}

		seen[s.Style] = struct{}{}
		out = append(out, s.Style)
	}

	return out
}

// Overlaps counts, for every character covered by more than one span, how
// many spans cover it. lineLen reports the length of a line.
func (m *Manager) Overlaps(lineLen func(line int) int) map[textpos.Position]int {
	counts := make(map[textpos.Position]int)

	for s := range m.spans {
		p := s.Range.Start

		for p.Less(s.Range.End) {
			counts[p]++

			if p.Char >= lineLen(p.Line) {
				p = textpos.Pos(p.Line+1, 0)
			} else {
				p.Char++
			}
		}
	}

	for p, n := range counts {
		if n < 2 {
			delete(counts, p)
		}
	}

	return counts
}

// Intersecting filters spans to those touching the characters [start, end)
// of line. An empty interval matches spans that cover its start.
func Intersecting(spans []ot.Span, line, start, end int) []ot.Span {
	ws, we := textpos.Pos(line, start), textpos.Pos(line, end)

	var out []ot.Span

	for _, s := range spans {
		if start == end {
			if s.Range.Start.IsBeforeOrEqual(ws) && ws.Less(s.Range.End) {
				out = append(out, s)
			}

			continue
		}

		if s.Range.Start.Less(we) && ws.Less(s.Range.End) {
			out = append(out, s)
		}
	}

	return out
}
