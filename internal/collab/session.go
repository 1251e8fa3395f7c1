package collab

import (
	"errors"
	"fmt"
	"sync"

	"github.com/serroba/richdocs/internal/acl"
	"github.com/serroba/richdocs/internal/editor"
	"github.com/serroba/richdocs/internal/history"
	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/storage"
	"github.com/serroba/richdocs/internal/textpos"
	"github.com/serroba/richdocs/internal/ws"
	"go.uber.org/zap"
)

// Common errors.
var (
	ErrSessionClosed = errors.New("session is closed")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Session coordinates collaborative editing of a single document. All
// changes go through one editor under the session lock, in revision order.
// Undo and redo act on the document-wide history, not per user.
type Session struct {
	docID string

	mu     sync.RWMutex
	editor *editor.Editor
	queue  *ot.Queue
	closed bool

	// Dependencies
	store          storage.Store
	permChecker    *acl.Checker
	hub            *ws.Hub
	snapshotPolicy *storage.SnapshotPolicy
	logger         *zap.Logger
}

// SessionConfig holds configuration for creating a session.
type SessionConfig struct {
	DocID          string
	Store          storage.Store
	PermChecker    *acl.Checker
	Hub            *ws.Hub
	SnapshotPolicy *storage.SnapshotPolicy
	// HistorySize bounds the undo log and the revision log used to rebase
	// edits made against older revisions. Zero means history.DefaultMaxSize.
	HistorySize int
	// Editor configures wrapping and measurement. Its HistorySize and Logger
	// are taken from the session.
	Editor editor.Config
	Logger *zap.Logger
}

// NewSession creates a new collaborative editing session.
func NewSession(cfg SessionConfig) *Session {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = history.DefaultMaxSize
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	logger := cfg.Logger.With(zap.String("doc", cfg.DocID))

	edCfg := cfg.Editor
	edCfg.HistorySize = cfg.HistorySize
	edCfg.Logger = logger

	return &Session{
		docID:          cfg.DocID,
		editor:         editor.New("", edCfg),
		queue:          ot.NewQueue(cfg.HistorySize),
		store:          cfg.Store,
		permChecker:    cfg.PermChecker,
		hub:            cfg.Hub,
		snapshotPolicy: cfg.SnapshotPolicy,
		logger:         logger,
	}
}

// Load initializes the session from storage: latest snapshot plus replay of
// the operations logged after it.
func (s *Session) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	result, err := storage.NewDocumentLoader(s.store).Load(s.docID, s.editor)
	if err != nil {
		return err
	}

	s.editor.ClearHistory()
	s.queue.SetRevision(result.Revision)

	s.logger.Debug("document loaded",
		zap.Int("revision", result.Revision), zap.Int("replayed", result.Replayed), zap.Bool("new", result.IsNew))

	return nil
}

// ApplyOperation processes an edit from a client. Positions in op refer to
// the document as of baseRevision and are rebased onto the current one. It
// returns the revision assigned to the edit.
func (s *Session) ApplyOperation(clientID, userID string, op ot.Operation, baseRevision int) (int, error) {
	if err := s.require(userID, acl.ActionWrite); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSessionClosed
	}

	rebased, err := s.rebase(op, baseRevision)
	if err != nil {
		return 0, err
	}

	applied, err := s.editor.Apply(rebased)
	if err != nil {
		return 0, err
	}

	seqOp, err := s.record(applied, userID)
	if err != nil {
		return 0, err
	}

	s.maybeSnapshot()

	if s.hub != nil {
		s.hub.BroadcastOperation(s.docID, seqOp, clientID)
	}

	return seqOp.Revision, nil
}

// Undo reverts the latest edit of the document. The new state is pushed to
// every client, the caller included.
func (s *Session) Undo(userID string) (int, error) {
	if err := s.require(userID, acl.ActionWrite); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSessionClosed
	}

	inverse, ok := s.editor.Undo()
	if !ok {
		return 0, ErrNothingToUndo
	}

	seqOp, err := s.record(inverse, userID)
	if err != nil {
		return 0, err
	}

	// Undo restores formatting and spans that replaying the inverse would
	// not, so the log alone cannot reproduce it.
	s.snapshotNow()
	s.broadcastState()

	return seqOp.Revision, nil
}

// Redo re-applies the latest undone edit and pushes it to every client.
func (s *Session) Redo(userID string) (int, error) {
	if err := s.require(userID, acl.ActionWrite); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSessionClosed
	}

	op, ok := s.editor.Redo()
	if !ok {
		return 0, ErrNothingToRedo
	}

	seqOp, err := s.record(op, userID)
	if err != nil {
		return 0, err
	}

	s.maybeSnapshot()

	if s.hub != nil {
		s.hub.BroadcastOperation(s.docID, seqOp, "")
	}

	return seqOp.Revision, nil
}

// AddSpan attaches an annotation span. r refers to the document as of
// baseRevision.
func (s *Session) AddSpan(userID string, r textpos.Range, style ot.Style, baseRevision int) error {
	if err := s.require(userID, acl.ActionAnnotate); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	r, err := s.rebaseRange(r, baseRevision)
	if err != nil {
		return err
	}

	if err := s.editor.AddSpan(r, style); err != nil {
		return err
	}

	s.snapshotNow()
	s.broadcastState()

	return nil
}

// RemoveSpan removes an annotation span and reports whether it existed.
func (s *Session) RemoveSpan(userID string, r textpos.Range, style ot.Style, baseRevision int) (bool, error) {
	if err := s.require(userID, acl.ActionAnnotate); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrSessionClosed
	}

	r, err := s.rebaseRange(r, baseRevision)
	if err != nil {
		return false, err
	}

	if !s.editor.RemoveSpan(r, style) {
		return false, nil
	}

	s.snapshotNow()
	s.broadcastState()

	return true, nil
}

func (s *Session) require(userID string, action acl.Action) error {
	if s.permChecker == nil {
		return nil
	}

	return s.permChecker.RequirePermission(s.docID, userID, action)
}

// rebase moves the positions of op from baseRevision to the current
// revision. Cursor positions after the edit are recomputed.
func (s *Session) rebase(op ot.Operation, baseRevision int) (ot.Operation, error) {
	switch o := op.(type) {
	case ot.Insert:
		p, err := s.queue.Rebase(baseRevision, o.At)
		if err != nil {
			return nil, err
		}

		o.At = p[0]
		o.After = ot.EndOf(o.At, o.Text)

		return o, nil
	case ot.Delete:
		r, err := s.rebaseRange(o.Range, baseRevision)
		if err != nil {
			return nil, err
		}

		o.Range, o.After = r, r.Start

		return o, nil
	case ot.Replace:
		r, err := s.rebaseRange(o.Range, baseRevision)
		if err != nil {
			return nil, err
		}

		o.Range = r
		o.After = o.NewEnd()

		return o, nil
	case ot.StyleSpan:
		r, err := s.rebaseRange(o.Range, baseRevision)
		if err != nil {
			return nil, err
		}

		o.Range = r

		return o, nil
	default:
		return nil, ot.ErrUnknownOperation
	}
}

func (s *Session) rebaseRange(r textpos.Range, baseRevision int) (textpos.Range, error) {
	p, err := s.queue.Rebase(baseRevision, r.Start, r.End)
	if err != nil {
		return textpos.Range{}, err
	}

	return textpos.Range{Start: p[0], End: p[1]}, nil
}

// record assigns the next revision to op and appends it to the log.
func (s *Session) record(op ot.Operation, userID string) (ot.SequencedOperation, error) {
	seqOp := s.queue.Append(op, userID)

	if err := s.store.AppendOperation(s.docID, seqOp); err != nil {
		return ot.SequencedOperation{}, fmt.Errorf("persist revision %d: %w", seqOp.Revision, err)
	}

	return seqOp, nil
}

// maybeSnapshot saves a snapshot when the policy says one is due.
func (s *Session) maybeSnapshot() {
	if s.snapshotPolicy == nil {
		return
	}

	if s.snapshotPolicy.RecordOperation(s.docID) {
		s.snapshotNow()
	}
}

// snapshotNow saves a snapshot, logging rather than returning failures.
func (s *Session) snapshotNow() {
	if err := s.saveSnapshot(); err != nil {
		s.logger.Warn("snapshot failed", zap.Int("revision", s.queue.Revision()), zap.Error(err))

		return
	}

	if s.snapshotPolicy != nil {
		s.snapshotPolicy.Reset(s.docID)
	}
}

func (s *Session) saveSnapshot() error {
	return s.store.SaveSnapshot(s.docID, s.queue.Revision(), s.editor.Snapshot())
}

func (s *Session) broadcastState() {
	if s.hub == nil {
		return
	}

	s.hub.BroadcastState(s.docID, s.editor.Snapshot(), s.queue.Revision(), "")
}

// GetState returns the current document state and revision. It checks read
// permission first.
func (s *Session) GetState(userID string) (editor.Snapshot, int, error) {
	if err := s.require(userID, acl.ActionRead); err != nil {
		return editor.Snapshot{}, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return editor.Snapshot{}, 0, ErrSessionClosed
	}

	return s.editor.Snapshot(), s.queue.Revision(), nil
}

// DocID returns the document ID for this session.
func (s *Session) DocID() string {
	return s.docID
}

// Revision returns the current revision number.
func (s *Session) Revision() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queue.Revision()
}

// Close closes the session and saves a final snapshot.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	if s.snapshotPolicy != nil {
		s.snapshotPolicy.Forget(s.docID)
	}

	return s.saveSnapshot()
}

// Discard closes the session without saving, for documents being deleted.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	if s.snapshotPolicy != nil {
		s.snapshotPolicy.Forget(s.docID)
	}
}
