package editor

import (
	"github.com/serroba/richdocs/internal/cursor"
	"github.com/serroba/richdocs/internal/textpos"
)

// SetCursor moves the cursor to p, clamped into the document, and clears the
// selection.
func (e *Editor) SetCursor(p textpos.Position) cursor.State {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pos = e.doc.ClampPosition(p)
	e.selection = nil

	return cursor.Compute(e.doc, e.pos, e.selection)
}

// MoveCursor moves the cursor by m. With extend the selection grows from its
// anchor, which is the cursor position when no selection is active.
func (e *Editor) MoveCursor(m cursor.Motion, extend bool) cursor.State {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := cursor.Move(e.doc, e.pos, m)

	switch {
	case extend && e.selection != nil:
		e.selection.Head = next
	case extend:
		e.selection = &cursor.Selection{Anchor: e.pos, Head: next}
	default:
		e.selection = nil
	}

	e.pos = next

	return cursor.Compute(e.doc, e.pos, e.selection)
}

// Select selects from anchor to head; the cursor goes to head.
func (e *Editor) Select(anchor, head textpos.Position) cursor.State {
	e.mu.Lock()
	defer e.mu.Unlock()

	anchor, head = e.doc.ClampPosition(anchor), e.doc.ClampPosition(head)
	e.selection = &cursor.Selection{Anchor: anchor, Head: head}
	e.pos = head

	return cursor.Compute(e.doc, e.pos, e.selection)
}

// SelectWord selects the word under p. Without a word there it only moves
// the cursor.
func (e *Editor) SelectWord(p textpos.Position) cursor.State {
	e.mu.Lock()
	defer e.mu.Unlock()

	p = e.doc.ClampPosition(p)
	e.pos = p
	e.selection = nil

	if w, ok := e.doc.WordAt(p); ok {
		e.selection = &cursor.Selection{Anchor: w.Range.Start, Head: w.Range.End}
		e.pos = w.Range.End
	}

	return cursor.Compute(e.doc, e.pos, e.selection)
}

// SelectAll selects the whole document.
func (e *Editor) SelectAll() cursor.State {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.selection = &cursor.Selection{Head: e.doc.End()}
	e.pos = e.doc.End()

	return cursor.Compute(e.doc, e.pos, e.selection)
}

// ClearSelection drops the selection and keeps the cursor.
func (e *Editor) ClearSelection() cursor.State {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.selection = nil

	return cursor.Compute(e.doc, e.pos, e.selection)
}

// SelectedText returns the selected text, or "" without a selection.
func (e *Editor) SelectedText() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.selection == nil {
		return ""
	}

	text, err := e.doc.TextInRange(e.selection.Range())
	if err != nil {
		return ""
	}

	return text
}
