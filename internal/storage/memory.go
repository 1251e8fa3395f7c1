package storage

import (
	"sync"
	"time"

	"github.com/serroba/richdocs/internal/editor"
	"github.com/serroba/richdocs/internal/ot"
)

type documentData struct {
	snapshot   *Snapshot
	operations []ot.SequencedOperation
}

// MemoryStore keeps everything in process memory. Nothing survives a
// restart.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*documentData
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*documentData),
	}
}

// CreateDocument creates a new document with the given ID.
func (m *MemoryStore) CreateDocument(docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[docID]; exists {
		return ErrDocumentExists
	}

	m.docs[docID] = &documentData{}

	return nil
}

// DocumentExists checks if a document exists.
func (m *MemoryStore) DocumentExists(docID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.docs[docID]

	return exists, nil
}

// DeleteDocument removes a document.
func (m *MemoryStore) DeleteDocument(docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[docID]; !exists {
		return ErrDocumentNotFound
	}

	delete(m.docs, docID)

	return nil
}

// SaveSnapshot stores state as the latest snapshot and prunes the log.
func (m *MemoryStore) SaveSnapshot(docID string, revision int, state editor.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.docs[docID]
	if !exists {
		return ErrDocumentNotFound
	}

	doc.snapshot = &Snapshot{
		DocID:     docID,
		Revision:  revision,
		State:     state,
		CreatedAt: time.Now(),
	}

	kept := doc.operations[:0]

	for _, op := range doc.operations {
		if op.Revision > revision {
			kept = append(kept, op)
		}
	}

	doc.operations = kept

	return nil
}

// LoadSnapshot retrieves the latest snapshot for a document.
func (m *MemoryStore) LoadSnapshot(docID string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, exists := m.docs[docID]
	if !exists {
		return Snapshot{}, ErrDocumentNotFound
	}

	if doc.snapshot == nil {
		return Snapshot{}, ErrSnapshotNotFound
	}

	return *doc.snapshot, nil
}

// AppendOperation adds an operation to the document's operation log.
func (m *MemoryStore) AppendOperation(docID string, op ot.SequencedOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.docs[docID]
	if !exists {
		return ErrDocumentNotFound
	}

	doc.operations = append(doc.operations, op)

	return nil
}

// LoadOperations retrieves all operations after the given revision.
func (m *MemoryStore) LoadOperations(docID string, sinceRevision int) ([]ot.SequencedOperation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, exists := m.docs[docID]
	if !exists {
		return nil, ErrDocumentNotFound
	}

	var result []ot.SequencedOperation

	for _, op := range doc.operations {
		if op.Revision > sinceRevision {
			result = append(result, op)
		}
	}

	return result, nil
}

// LatestRevision returns the highest revision number for a document.
func (m *MemoryStore) LatestRevision(docID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, exists := m.docs[docID]
	if !exists {
		return 0, ErrDocumentNotFound
	}

	if len(doc.operations) > 0 {
		return doc.operations[len(doc.operations)-1].Revision, nil
	}

	if doc.snapshot != nil {
		return doc.snapshot.Revision, nil
	}

	return 0, nil
}

var _ Store = (*MemoryStore)(nil)
