package editor

import (
	"fmt"

	"github.com/serroba/richdocs/internal/layout"
	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/textpos"
)

// AddSpan attaches style to r. Spans are not edits and are not recorded in
// history; edits carry them along.
func (e *Editor) AddSpan(r textpos.Range, style ot.Style) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.doc.ValidateRange(r); err != nil {
		return fmt.Errorf("add span: %w", err)
	}

	if err := e.spans.Add(ot.Span{Range: r, Style: style}); err != nil {
		return fmt.Errorf("add span: %w", err)
	}

	e.touch()

	return nil
}

// RemoveSpan removes the span with exactly range r and style and reports
// whether it existed.
func (e *Editor) RemoveSpan(r textpos.Range, style ot.Style) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.spans.RemoveRange(r, style) {
		return false
	}

	e.touch()

	return true
}

// Spans returns every span, sorted.
func (e *Editor) Spans() []ot.Span {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.spans.All()
}

// SpansInRange returns the spans sharing a position with r.
func (e *Editor) SpansInRange(r textpos.Range) []ot.Span {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.spans.InRange(r)
}

// SpansAt returns the spans covering the character at p.
func (e *Editor) SpansAt(p textpos.Position) []ot.Span {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.spans.At(p)
}

// SpansForWrap returns the spans intersecting a visual row.
func (e *Editor) SpansForWrap(w layout.LineWrap) []ot.Span {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.spans.ForWrap(w.Line, w.WrapStart, w.End())
}

// SpanStyles returns the distinct span styles touching r.
func (e *Editor) SpanStyles(r textpos.Range) []ot.Style {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.spans.Styles(r)
}

// Overlaps counts, per character covered by more than one span, the spans
// covering it.
func (e *Editor) Overlaps() map[textpos.Position]int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.spans.Overlaps(e.doc.LineLen)
}
