// Package history implements bounded undo and redo logs of applied
// operations.
package history

import "github.com/serroba/richdocs/internal/ot"

// DefaultMaxSize is the log capacity used when none is configured.
const DefaultMaxSize = 100

// Entry is one applied operation with the metadata needed to invert it.
type Entry struct {
	Operation ot.Operation
	Metadata  ot.Metadata
}

// Config holds configuration for History.
type Config struct {
	// MaxSize caps both logs. Zero means DefaultMaxSize.
	MaxSize int
}

// History is a pure log: it never touches a document. Callers apply the
// inverse of an undone entry themselves.
//
// History is not safe for concurrent use.
type History struct {
	undo    []Entry
	redo    []Entry
	maxSize int
}

// New creates an empty history.
func New(cfg Config) *History {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}

	return &History{maxSize: cfg.MaxSize}
}

// MaxSize returns the capacity of each log.
func (h *History) MaxSize() int {
	return h.maxSize
}

// RecordEdit pushes a freshly applied operation, evicting the oldest undo
// entry when full, and clears the redo log.
func (h *History) RecordEdit(op ot.Operation, meta ot.Metadata) {
	h.undo = push(h.undo, Entry{Operation: op, Metadata: meta}, h.maxSize)
	h.redo = nil
}

// Undo pops the most recent entry and moves it to the redo log. ok is false
// when there is nothing to undo.
func (h *History) Undo() (Entry, bool) {
	if len(h.undo) == 0 {
		return Entry{}, false
	}

	e := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = push(h.redo, e, h.maxSize)

	return e, true
}

// Redo pops the most recently undone entry and moves it back to the undo
// log. ok is false when there is nothing to redo.
func (h *History) Redo() (Entry, bool) {
	if len(h.redo) == 0 {
		return Entry{}, false
	}

	e := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = push(h.undo, e, h.maxSize)

	return e, true
}

// Update replaces the metadata of the entry on top of the undo log. Callers
// use it to attach span bookkeeping computed after the entry was recorded or
// re-applied.
func (h *History) Update(meta ot.Metadata) {
	if len(h.undo) == 0 {
		return
	}

	h.undo[len(h.undo)-1].Metadata = meta
}

// Clear empties both logs.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}

// CanUndo reports whether Undo would return an entry.
func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo reports whether Redo would return an entry.
func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

// UndoLen returns the number of undoable entries.
func (h *History) UndoLen() int {
	return len(h.undo)
}

// RedoLen returns the number of redoable entries.
func (h *History) RedoLen() int {
	return len(h.redo)
}

// Entries returns a copy of the undo log, oldest first.
func (h *History) Entries() []Entry {
	out := make([]Entry, len(h.undo))
	copy(out, h.undo)

	return out
}

func push(log []Entry, e Entry, maxSize int) []Entry {
	if len(log) >= maxSize {
		n := len(log) - maxSize + 1
		log = append(log[:0:0], log[n:]...)
	}

	return append(log, e)
}
