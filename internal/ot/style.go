package ot

import (
	"sort"

	"github.com/serroba/richdocs/internal/textpos"
)

// Style is an opaque style handle such as "bold" or "comment:42". Styles are
// compared by value.
type Style string

// Run is a line-local formatting run over the half-open interval
// [Start, End). Runs of different styles may overlap.
type Run struct {
	Start int   `json:"start"`
	End   int   `json:"end"`
	Style Style `json:"style"`
}

// Len returns the number of characters covered by the run.
func (r Run) Len() int {
	return r.End - r.Start
}

// LineRuns records the formatting runs of one line.
type LineRuns struct {
	Line int   `json:"line"`
	Runs []Run `json:"runs"`
}

// Span is an annotation over a range that may cross line boundaries.
// Spans are identified by value: two spans with the same range and style are
// the same span.
type Span struct {
	Range textpos.Range `json:"range"`
	Style Style         `json:"style"`
}

// NewSpan returns a span over [start, end] or textpos.ErrInvalidRange.
func NewSpan(start, end textpos.Position, style Style) (Span, error) {
	r, err := textpos.NewRange(start, end)
	if err != nil {
		return Span{}, err
	}

	return Span{Range: r, Style: style}, nil
}

// SortSpans orders spans by start, end, then style.
func SortSpans(spans []Span) {
	sort.Slice(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if c := a.Range.Start.Compare(b.Range.Start); c != 0 {
			return c < 0
		}

		if c := a.Range.End.Compare(b.Range.End); c != 0 {
			return c < 0
		}

		return a.Style < b.Style
	})
}

// sortStyles orders a style list and removes duplicates.
func sortStyles(styles []Style) []Style {
	sort.Slice(styles, func(i, j int) bool { return styles[i] < styles[j] })

	out := styles[:0]
	for _, s := range styles {
		if len(out) > 0 && out[len(out)-1] == s {
			continue
		}

		out = append(out, s)
	}

	return out
}
