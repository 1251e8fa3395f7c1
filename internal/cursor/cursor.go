// Package cursor computes the cursor and selection state of an editor.
package cursor

import (
	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/textpos"
)

// Selection is a selected extent. Anchor is where the selection started and
// Head is where the cursor is; Head may come before Anchor.
type Selection struct {
	Anchor textpos.Position `json:"anchor"`
	Head   textpos.Position `json:"head"`
}

// Range returns the selection with its endpoints ordered.
func (s Selection) Range() textpos.Range {
	return textpos.Normalize(s.Anchor, s.Head)
}

// IsEmpty reports whether the selection covers no characters.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Head
}

// Transform relocates both ends of the selection through op.
func (s Selection) Transform(op ot.Operation) Selection {
	return Selection{Anchor: ot.Transform(s.Anchor, op), Head: ot.Transform(s.Head, op)}
}

// State is the cursor as seen by collaborators: where it is, which styles are
// active there and what is selected.
type State struct {
	Position  textpos.Position `json:"position"`
	Styles    []ot.Style       `json:"styles,omitempty"`
	Selection *textpos.Range   `json:"selection,omitempty"`
}

// HasSelection reports whether a non-empty selection is active.
func (s State) HasSelection() bool {
	return s.Selection != nil && !s.Selection.IsEmpty()
}

// Source is the document view Compute reads. *ot.Document implements it.
type Source interface {
	ClampPosition(p textpos.Position) textpos.Position
	StylesAt(p textpos.Position) []ot.Style
	StylesInRange(r textpos.Range) []ot.Style
}

// Compute derives the state for a cursor at pos with an optional selection.
// Positions are clamped into the document. With a non-empty selection the
// active styles are those touching it; otherwise those covering the
// character at the cursor.
func Compute(doc Source, pos textpos.Position, sel *Selection) State {
	st := State{Position: doc.ClampPosition(pos)}

	if sel != nil && !sel.IsEmpty() {
		r := textpos.Range{Start: doc.ClampPosition(sel.Range().Start), End: doc.ClampPosition(sel.Range().End)}
		st.Selection = &r
		st.Styles = doc.StylesInRange(r)

		return st
	}

	st.Styles = doc.StylesAt(st.Position)

	return st
}
