package storage

import (
	"errors"
	"time"

	"github.com/serroba/richdocs/internal/editor"
	"github.com/serroba/richdocs/internal/ot"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentExists   = errors.New("document already exists")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Snapshot is the saved editor state of a document as of Revision.
type Snapshot struct {
	DocID     string
	Revision  int
	State     editor.Snapshot
	CreatedAt time.Time
}

// Documents tracks which documents exist. CreateDocument fails with
// ErrDocumentExists on a taken ID; DeleteDocument drops the snapshot and
// the log too.
type Documents interface {
	CreateDocument(docID string) error
	DocumentExists(docID string) (bool, error)
	DeleteDocument(docID string) error
}

// History is what a DocumentLoader reads back. LoadSnapshot returns
// ErrSnapshotNotFound for a document that was never snapshotted and
// LoadOperations returns the log after sinceRevision in revision order.
type History interface {
	LoadSnapshot(docID string) (Snapshot, error)
	LoadOperations(docID string, sinceRevision int) ([]ot.SequencedOperation, error)
}

// Store persists documents as a snapshot plus the operations applied since.
// SaveSnapshot drops the logged operations it covers. Every per-document
// method returns ErrDocumentNotFound for an unknown ID.
type Store interface {
	Documents
	History

	SaveSnapshot(docID string, revision int, state editor.Snapshot) error
	AppendOperation(docID string, op ot.SequencedOperation) error
	LatestRevision(docID string) (int, error)
}
