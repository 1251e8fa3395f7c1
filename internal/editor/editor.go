// Package editor ties the document, its spans, the edit history, the cursor
// and the wrap layout into one editing unit.
package editor

import (
	"context"
	"errors"
	"sync"

	"github.com/serroba/richdocs/internal/cursor"
	"github.com/serroba/richdocs/internal/history"
	"github.com/serroba/richdocs/internal/layout"
	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/span"
	"github.com/serroba/richdocs/internal/textpos"
	"go.uber.org/zap"
)

// ErrEmptyText is returned when inserting an empty string.
var ErrEmptyText = errors.New("empty text")

// Config holds configuration for an Editor.
type Config struct {
	// HistorySize caps the undo and redo logs. Zero means 100.
	HistorySize int
	// Measurer lays out lines for wrapping. Nil means layout.CellMeasurer{}.
	Measurer layout.Measurer
	// Decorator is applied to each line before measuring. Optional.
	Decorator layout.Decorator
	// WrapWidth is the wrap width. Zero disables wrapping.
	WrapWidth float64
	Logger    *zap.Logger
}

// Editor is one editable rich-text document. Every method is safe for
// concurrent use; all state sits behind a single lock.
type Editor struct {
	mu        sync.Mutex
	doc       *ot.Document
	spans     *span.Manager
	history   *history.History
	pos       textpos.Position
	selection *cursor.Selection
	version   uint64

	mapper    *layout.Mapper
	measuring map[uint64]context.CancelFunc
	nextID    uint64

	logger *zap.Logger
}

// New creates an editor holding initial.
func New(initial string, cfg Config) *Editor {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Editor{
		doc:     ot.NewDocument(initial),
		spans:   span.NewManager(),
		history: history.New(history.Config{MaxSize: cfg.HistorySize}),
		mapper: layout.NewMapper(layout.Config{
			Measurer:  cfg.Measurer,
			Decorator: cfg.Decorator,
			Width:     cfg.WrapWidth,
			Logger:    cfg.Logger,
		}),
		measuring: make(map[uint64]context.CancelFunc),
		logger:    cfg.Logger,
	}
}

// SetText replaces the content, dropping formatting, spans, history and
// selection.
func (e *Editor) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.doc.SetText(text)
	e.spans.Reset(nil)
	e.history.Clear()
	e.pos = textpos.Position{}
	e.selection = nil
	e.touch()
}

// Insert writes text at at.
func (e *Editor) Insert(at textpos.Position, text string) (ot.Operation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if text == "" {
		return nil, ErrEmptyText
	}

	op, err := e.doc.NewInsert(at, text, e.pos)
	if err != nil {
		return nil, e.reject(op, err)
	}

	return e.apply(op)
}

// InsertAtCursor types text at the cursor. With an active selection the
// selection is replaced and the new text takes the formatting at its start.
func (e *Editor) InsertAtCursor(text string) (ot.Operation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if text == "" {
		return nil, ErrEmptyText
	}

	if e.selection != nil && !e.selection.IsEmpty() {
		op, err := e.doc.NewReplace(e.selection.Range(), text, true, e.pos)
		if err != nil {
			return nil, e.reject(op, err)
		}

		return e.apply(op)
	}

	op, err := e.doc.NewInsert(e.pos, text, e.pos)
	if err != nil {
		return nil, e.reject(op, err)
	}

	return e.apply(op)
}

// Delete removes the characters in r.
func (e *Editor) Delete(r textpos.Range) (ot.Operation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	op, err := e.doc.NewDelete(r, e.pos)
	if err != nil {
		return nil, e.reject(op, err)
	}

	return e.apply(op)
}

// Backspace deletes the selection, or the character before the cursor,
// joining lines at a line start. It returns a nil operation when there is
// nothing to delete.
func (e *Editor) Backspace() (ot.Operation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := textpos.Range{Start: cursor.Move(e.doc, e.pos, cursor.Left), End: e.pos}
	if e.selection != nil && !e.selection.IsEmpty() {
		r = e.selection.Range()
	}

	return e.deleteRange(r)
}

// DeleteForward deletes the selection, or the character after the cursor.
// It returns a nil operation when there is nothing to delete.
func (e *Editor) DeleteForward() (ot.Operation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := textpos.Range{Start: e.pos, End: cursor.Move(e.doc, e.pos, cursor.Right)}
	if e.selection != nil && !e.selection.IsEmpty() {
		r = e.selection.Range()
	}

	return e.deleteRange(r)
}

func (e *Editor) deleteRange(r textpos.Range) (ot.Operation, error) {
	if r.IsEmpty() {
		return nil, nil
	}

	op, err := e.doc.NewDelete(r, e.pos)
	if err != nil {
		return nil, e.reject(op, err)
	}

	return e.apply(op)
}

// Replace swaps the characters in r for text. With inherit the new text
// takes the formatting active at r.Start.
func (e *Editor) Replace(r textpos.Range, text string, inherit bool) (ot.Operation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	op, err := e.doc.NewReplace(r, text, inherit, e.pos)
	if err != nil {
		return nil, e.reject(op, err)
	}

	return e.apply(op)
}

// SetStyle adds or removes a formatting run of style over r.
func (e *Editor) SetStyle(r textpos.Range, style ot.Style, add bool) (ot.Operation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	op, err := e.doc.NewStyleSpan(r, style, add, e.pos)
	if err != nil {
		return nil, e.reject(op, err)
	}

	return e.apply(op)
}

// ToggleStyle removes style from r when every character of r carries it and
// adds it otherwise.
func (e *Editor) ToggleStyle(r textpos.Range, style ot.Style) (ot.Operation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	op, err := e.doc.NewStyleSpan(r, style, !e.doc.HasStyle(r, style), e.pos)
	if err != nil {
		return nil, e.reject(op, err)
	}

	return e.apply(op)
}

// Apply runs an operation built elsewhere, for example one received from a
// remote client or replayed from storage. Removed text the operation does not
// carry is filled in from the document. The completed operation is returned.
func (e *Editor) Apply(op ot.Operation) (ot.Operation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.apply(op)
}

// apply executes op, updates spans and cursor and records history.
func (e *Editor) apply(op ot.Operation) (ot.Operation, error) {
	meta, err := e.doc.Apply(op)
	if err != nil {
		return nil, e.reject(op, err)
	}

	op = complete(op, meta)

	res := e.spans.Apply(op, meta)
	meta.DeletedSpans = res.Deleted
	meta.PreservedSpans = res.Preserved

	e.history.RecordEdit(op, meta)
	e.pos = e.doc.ClampPosition(op.CursorAfter())
	e.selection = nil
	e.touch()

	return op, nil
}

// complete fills in the removed text of Delete and Replace.
func complete(op ot.Operation, meta ot.Metadata) ot.Operation {
	switch o := op.(type) {
	case ot.Delete:
		o.Text = meta.DeletedText

		return o
	case ot.Replace:
		o.OldText = meta.DeletedText

		return o
	default:
		return op
	}
}

func (e *Editor) reject(op ot.Operation, err error) error {
	if op != nil {
		e.logger.Debug("edit rejected", zap.Stringer("type", op.Type()), zap.Error(err))
	} else {
		e.logger.Debug("edit rejected", zap.Error(err))
	}

	return err
}

// Undo reverts the most recent edit. ok is false when there is nothing to
// undo.
func (e *Editor) Undo() (ot.Operation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.history.Undo()
	if !ok {
		return nil, false
	}

	inverse := ot.Invert(entry.Operation)

	if _, err := e.doc.Apply(inverse); err != nil {
		e.logger.Error("undo failed, clearing history", zap.Stringer("type", inverse.Type()), zap.Error(err))
		e.history.Clear()

		return nil, false
	}

	e.doc.RestoreRuns(entry.Metadata.PriorRuns)
	e.spans.Revert(entry.Operation, entry.Metadata)
	e.pos = e.doc.ClampPosition(entry.Operation.CursorBefore())
	e.selection = nil
	e.touch()

	return inverse, true
}

// Redo re-applies the most recently undone edit. ok is false when there is
// nothing to redo.
func (e *Editor) Redo() (ot.Operation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.history.Redo()
	if !ok {
		return nil, false
	}

	meta, err := e.doc.Apply(entry.Operation)
	if err != nil {
		e.logger.Error("redo failed, clearing history", zap.Stringer("type", entry.Operation.Type()), zap.Error(err))
		e.history.Clear()

		return nil, false
	}

	res := e.spans.Apply(entry.Operation, meta)
	meta.DeletedSpans = res.Deleted
	meta.PreservedSpans = res.Preserved
	e.history.Update(meta)

	e.pos = e.doc.ClampPosition(entry.Operation.CursorAfter())
	e.selection = nil
	e.touch()

	return entry.Operation, true
}

// CanUndo reports whether Undo would do anything.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.history.CanUndo()
}

// CanRedo reports whether Redo would do anything.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.history.CanRedo()
}

// touch marks the state as changed and cancels in-flight measurement.
// Callers hold e.mu.
func (e *Editor) touch() {
	e.version++

	for id, cancel := range e.measuring {
		cancel()
		delete(e.measuring, id)
	}
}

// ClearHistory drops the undo and redo logs.
func (e *Editor) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history.Clear()
}
