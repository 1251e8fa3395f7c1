package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/serroba/richdocs/internal/editor"
	"github.com/serroba/richdocs/internal/ot"
)

// DefaultSnapshotThreshold is the number of operations between snapshots
// when none is configured.
const DefaultSnapshotThreshold = 50

// SnapshotPolicy determines when to create snapshots.
type SnapshotPolicy struct {
	mu               sync.Mutex
	threshold        int
	opsSinceSnapshot map[string]int
}

// NewSnapshotPolicy creates a policy that triggers snapshots every threshold
// operations. Zero or less means DefaultSnapshotThreshold.
func NewSnapshotPolicy(threshold int) *SnapshotPolicy {
	if threshold <= 0 {
		threshold = DefaultSnapshotThreshold
	}

	return &SnapshotPolicy{
		threshold:        threshold,
		opsSinceSnapshot: make(map[string]int),
	}
}

// RecordOperation records that an operation was applied and reports whether
// a snapshot is due.
func (p *SnapshotPolicy) RecordOperation(docID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.opsSinceSnapshot[docID]++

	return p.opsSinceSnapshot[docID] >= p.threshold
}

// Reset resets the counter after a snapshot is created.
func (p *SnapshotPolicy) Reset(docID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.opsSinceSnapshot[docID] = 0
}

// Forget drops the counter of a document that is no longer open.
func (p *SnapshotPolicy) Forget(docID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.opsSinceSnapshot, docID)
}

// OperationsSinceSnapshot returns the number of operations since the last snapshot.
func (p *SnapshotPolicy) OperationsSinceSnapshot(docID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.opsSinceSnapshot[docID]
}

// Replayer is the state a DocumentLoader rebuilds. *editor.Editor
// implements it.
type Replayer interface {
	Restore(s editor.Snapshot)
	Apply(op ot.Operation) (ot.Operation, error)
}

var _ Replayer = (*editor.Editor)(nil)

// DocumentLoader rebuilds a document from its latest snapshot plus the
// operations logged after it.
type DocumentLoader struct {
	store History
}

// NewDocumentLoader creates a loader reading from store.
func NewDocumentLoader(store History) *DocumentLoader {
	return &DocumentLoader{store: store}
}

// LoadResult describes a completed load.
type LoadResult struct {
	Revision int  // Revision of the last applied operation or snapshot
	Replayed int  // Operations applied on top of the snapshot
	IsNew    bool // True when there was neither a snapshot nor a log
}

// Load restores the latest snapshot into target and replays the operations
// logged after it, in revision order.
func (l *DocumentLoader) Load(docID string, target Replayer) (LoadResult, error) {
	snapshot, err := l.store.LoadSnapshot(docID)

	var (
		state         editor.Snapshot
		startRevision int
	)

	switch {
	case errors.Is(err, ErrSnapshotNotFound):
	case err != nil:
		return LoadResult{}, err
	default:
		state = snapshot.State
		startRevision = snapshot.Revision
	}

	ops, err := l.store.LoadOperations(docID, startRevision)
	if err != nil {
		return LoadResult{}, err
	}

	target.Restore(state)

	currentRevision := startRevision

	for _, op := range ops {
		if _, err := target.Apply(op.Operation); err != nil {
			return LoadResult{}, fmt.Errorf("replay revision %d: %w", op.Revision, err)
		}

		currentRevision = op.Revision
	}

	return LoadResult{
		Revision: currentRevision,
		Replayed: len(ops),
		IsNew:    startRevision == 0 && len(ops) == 0,
	}, nil
}
