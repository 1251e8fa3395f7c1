// Package layout maps logical document positions onto visually wrapped rows
// and back. Measurement is supplied by the caller through Measurer.
package layout

import (
	"context"
	"errors"

	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/textpos"
)

// ErrStaleLayout is returned when a measurement finished against a document
// that has since changed.
var ErrStaleLayout = errors.New("layout is stale")

// Row is one visual row of a measured line. Start and End are character
// offsets into the line, half-open.
type Row struct {
	Start  int
	End    int
	Top    float64
	Height float64
	Width  float64
}

// Layout is the measured form of one logical line.
type Layout interface {
	// Rows returns the visual rows in order. They partition the line.
	Rows() []Row
	// X returns the horizontal offset of the boundary before character i,
	// relative to the start of the row holding i.
	X(i int) float64
	// IndexAt returns the character boundary in row nearest to x.
	IndexAt(row int, x float64) int
}

// Measurer lays out one line of text at the given width. Implementations may
// be slow and should return ctx.Err() once ctx is done.
type Measurer interface {
	Measure(ctx context.Context, text string, width float64) (Layout, error)
}

// MeasurerFunc adapts a function to Measurer.
type MeasurerFunc func(ctx context.Context, text string, width float64) (Layout, error)

// Measure calls f.
func (f MeasurerFunc) Measure(ctx context.Context, text string, width float64) (Layout, error) {
	return f(ctx, text, width)
}

// Decorator transforms the text of a line before it is measured, for example
// to substitute display forms. The result must keep the character count; a
// decoration that changes it is ignored.
type Decorator func(line int, text string) string

// Offset is a point in visual coordinates.
type Offset struct {
	X float64
	Y float64
}

// LineWrap is one visual row of a logical line.
type LineWrap struct {
	Line             int
	WrapStart        int
	VirtualLength    int
	VirtualLineIndex int
	// Offset is the top-left corner of the row.
	Offset Offset
	Layout Layout
	// Spans are the spans intersecting the row.
	Spans []ot.Span
}

// End returns the character offset just past the row.
func (w LineWrap) End() int {
	return w.WrapStart + w.VirtualLength
}

// Height returns the height of the row, or 0 without a layout.
func (w LineWrap) Height() float64 {
	if w.Layout == nil {
		return 0
	}

	rows := w.Layout.Rows()
	if w.VirtualLineIndex < 0 || w.VirtualLineIndex >= len(rows) {
		return 0
	}

	return rows[w.VirtualLineIndex].Height
}

// WrappedLineIndex returns the index of the last wrap on p's line that starts
// at or before p.Char, or -1 when the line has no wraps yet.
func WrappedLineIndex(wraps []LineWrap, p textpos.Position) int {
	idx := -1

	for i, w := range wraps {
		if w.Line == p.Line && w.WrapStart <= p.Char {
			idx = i
		}
	}

	return idx
}

// Offsetter converts positions to flat character indices. *ot.Document
// implements it.
type Offsetter interface {
	Offset(p textpos.Position) int
}

// CharacterIndex returns the flat character index of the character that is
// offset characters into wrap. offset is clamped to the row.
func CharacterIndex(doc Offsetter, wrap LineWrap, offset int) int {
	offset = min(max(offset, 0), wrap.VirtualLength)

	return doc.Offset(textpos.Pos(wrap.Line, wrap.WrapStart+offset))
}

// Metrics places a cursor in visual coordinates.
type Metrics struct {
	X      float64
	Y      float64
	Height float64
}

// CursorMetrics computes where a cursor at p is drawn. A position whose line
// has not been laid out yields zero metrics.
func CursorMetrics(wraps []LineWrap, p textpos.Position) Metrics {
	idx := WrappedLineIndex(wraps, p)
	if idx < 0 || wraps[idx].Layout == nil {
		return Metrics{}
	}

	w := wraps[idx]
	char := min(max(p.Char, w.WrapStart), w.End())

	return Metrics{
		X:      w.Offset.X + w.Layout.X(char),
		Y:      w.Offset.Y,
		Height: w.Height(),
	}
}

// PositionAt returns the logical position under the visual point (x, y).
// Points above the first row or below the last clamp to them. ok is false
// when there are no wraps.
func PositionAt(wraps []LineWrap, x, y float64) (textpos.Position, bool) {
	if len(wraps) == 0 {
		return textpos.Position{}, false
	}

	hit := wraps[0]

	for _, w := range wraps {
		if w.Offset.Y > y {
			break
		}

		hit = w
	}

	if hit.Layout == nil {
		return textpos.Pos(hit.Line, hit.WrapStart), true
	}

	char := hit.Layout.IndexAt(hit.VirtualLineIndex, x-hit.Offset.X)

	return textpos.Pos(hit.Line, min(max(char, hit.WrapStart), hit.End())), true
}

// LineWraps returns the wraps of one logical line.
func LineWraps(wraps []LineWrap, line int) []LineWrap {
	var out []LineWrap

	for _, w := range wraps {
		if w.Line == line {
			out = append(out, w)
		}
	}

	return out
}
