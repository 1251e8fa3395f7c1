package ot

import (
	"errors"
	"sync"

	"github.com/serroba/richdocs/internal/textpos"
)

// Queue errors.
var (
	ErrRevisionTooOld = errors.New("base revision too old, history unavailable")
	ErrFutureRevision = errors.New("base revision is in the future")
)

// SequencedOperation wraps an applied operation with its assigned revision.
type SequencedOperation struct {
	Operation
	Revision int
	UserID   string
}

// Queue stamps applied operations with revisions and keeps a bounded window
// of them, so that positions computed by a client against an older revision
// can be relocated onto the current document.
type Queue struct {
	mu          sync.RWMutex
	revision    int                  // Current document revision
	history     []SequencedOperation // Recent operations for rebasing
	historySize int                  // Maximum history size to keep
}

// NewQueue creates a new operation queue.
// historySize determines how many past operations to retain for rebasing.
func NewQueue(historySize int) *Queue {
	return &Queue{
		history:     make([]SequencedOperation, 0, historySize),
		historySize: historySize,
	}
}

// Revision returns the current document revision.
func (q *Queue) Revision() int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return q.revision
}

// SetRevision resets the revision counter, dropping any retained history.
// Used after loading a document from storage.
func (q *Queue) SetRevision(revision int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.revision = revision
	q.history = q.history[:0]
}

// HistorySize returns the configured history window.
func (q *Queue) HistorySize() int {
	return q.historySize
}

// Rebase relocates positions computed against baseRevision through every
// operation applied since, in order.
func (q *Queue) Rebase(baseRevision int, positions ...textpos.Position) ([]textpos.Position, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if baseRevision > q.revision {
		return nil, ErrFutureRevision
	}

	out := make([]textpos.Position, len(positions))
	copy(out, positions)

	if baseRevision == q.revision {
		return out, nil
	}

	// Every operation after baseRevision must still be in the window.
	if len(q.history) == 0 || baseRevision < q.history[0].Revision-1 {
		return nil, ErrRevisionTooOld
	}

	for _, histOp := range q.history {
		if histOp.Revision <= baseRevision {
			continue
		}

		for i := range out {
			out[i] = Transform(out[i], histOp.Operation)
		}
	}

	return out, nil
}

// Append records an applied operation and returns it with its new revision.
func (q *Queue) Append(op Operation, userID string) SequencedOperation {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.revision++

	result := SequencedOperation{
		Operation: op,
		Revision:  q.revision,
		UserID:    userID,
	}

	q.addToHistory(result)

	return result
}

// addToHistory adds an operation to history, pruning old entries if needed.
func (q *Queue) addToHistory(op SequencedOperation) {
	q.history = append(q.history, op)

	if len(q.history) > q.historySize {
		q.history = q.history[1:]
	}
}

// History returns the retained operations after sinceRevision.
func (q *Queue) History(sinceRevision int) []SequencedOperation {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var result []SequencedOperation

	for _, op := range q.history {
		if op.Revision > sinceRevision {
			result = append(result, op)
		}
	}

	return result
}
