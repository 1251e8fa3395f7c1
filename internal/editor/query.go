package editor

import (
	"github.com/serroba/richdocs/internal/cursor"
	"github.com/serroba/richdocs/internal/layout"
	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/textpos"
)

// Version changes whenever content, formatting or spans change. Cursor
// movement does not change it.
func (e *Editor) Version() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.version
}

// Text returns the whole content.
func (e *Editor) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.doc.Text()
}

// Line returns the text of line i.
func (e *Editor) Line(i int) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.doc.Line(i)
}

// Lines returns the text of every line.
func (e *Editor) Lines() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.doc.Lines()
}

// LineCount returns the number of lines.
func (e *Editor) LineCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.doc.LineCount()
}

// TextInRange returns the text covered by r.
func (e *Editor) TextInRange(r textpos.Range) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.doc.TextInRange(r)
}

// Runs returns the formatting runs of line i.
func (e *Editor) Runs(i int) []ot.Run {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.doc.Runs(i)
}

// StylesAt returns the formatting styles covering the character at p.
func (e *Editor) StylesAt(p textpos.Position) []ot.Style {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.doc.StylesAt(p)
}

// StylesInRange returns the formatting styles touching r.
func (e *Editor) StylesInRange(r textpos.Range) []ot.Style {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.doc.StylesInRange(r)
}

// HasStyle reports whether every character of r carries style.
func (e *Editor) HasStyle(r textpos.Range, style ot.Style) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.doc.HasStyle(r, style)
}

// Cursor returns the cursor state.
func (e *Editor) Cursor() cursor.State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return cursor.Compute(e.doc, e.pos, e.selection)
}

// Offset converts p to a flat character index.
func (e *Editor) Offset(p textpos.Position) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.doc.Offset(p)
}

// PositionAt converts a flat character index to a position.
func (e *Editor) PositionAt(index int) textpos.Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.doc.PositionAt(index)
}

// CharacterIndex returns the flat character index offset characters into
// wrap.
func (e *Editor) CharacterIndex(wrap layout.LineWrap, offset int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return layout.CharacterIndex(e.doc, wrap, offset)
}
