package collab

import (
	"errors"
	"sync"

	"github.com/serroba/richdocs/internal/acl"
	"github.com/serroba/richdocs/internal/editor"
	"github.com/serroba/richdocs/internal/storage"
	"github.com/serroba/richdocs/internal/ws"
	"go.uber.org/zap"
)

// Manager keeps one session per open document. Sessions are loaded from
// storage on first use and share the manager's dependencies.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	base   SessionConfig // copied for every new session
	logger *zap.Logger
}

// ManagerConfig holds configuration for creating a manager. A nil PermStore
// disables permission checks.
type ManagerConfig struct {
	Store          storage.Store
	PermStore      acl.RoleReader
	Hub            *ws.Hub
	SnapshotPolicy *storage.SnapshotPolicy
	HistorySize    int
	Editor         editor.Config
	Logger         *zap.Logger
}

// NewManager creates a new session manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	base := SessionConfig{
		Store:          cfg.Store,
		Hub:            cfg.Hub,
		SnapshotPolicy: cfg.SnapshotPolicy,
		HistorySize:    cfg.HistorySize,
		Editor:         cfg.Editor,
		Logger:         cfg.Logger,
	}

	if cfg.PermStore != nil {
		base.PermChecker = acl.NewChecker(cfg.PermStore)
	}

	return &Manager{
		sessions: make(map[string]*Session),
		base:     base,
		logger:   cfg.Logger,
	}
}

// GetOrCreateSession returns the open session of a document, loading it
// from storage on first use.
func (m *Manager) GetOrCreateSession(docID string) (*Session, error) {
	if session := m.GetSession(docID); session != nil {
		return session, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have opened it meanwhile.
	if session, ok := m.sessions[docID]; ok {
		return session, nil
	}

	cfg := m.base
	cfg.DocID = docID

	session := NewSession(cfg)
	if err := session.Load(); err != nil {
		return nil, err
	}

	m.sessions[docID] = session
	m.logger.Info("session opened", zap.String("doc", docID), zap.Int("revision", session.Revision()))

	return session, nil
}

// GetSession returns the open session of a document, or nil.
func (m *Manager) GetSession(docID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sessions[docID]
}

// CloseSession closes an open session, saving a final snapshot. Closing a
// document without a session is a no-op.
func (m *Manager) CloseSession(docID string) error {
	session := m.detach(docID)
	if session == nil {
		return nil
	}

	m.logger.Info("session closed", zap.String("doc", docID))

	return session.Close()
}

// DiscardSession drops an open session without saving it.
func (m *Manager) DiscardSession(docID string) {
	if session := m.detach(docID); session != nil {
		session.Discard()
	}
}

// CloseAll closes every open session and joins their errors.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	open := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var errs []error

	for _, session := range open {
		errs = append(errs, session.Close())
	}

	return errors.Join(errs...)
}

// SessionCount returns the number of open sessions.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

func (m *Manager) detach(docID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	session := m.sessions[docID]
	delete(m.sessions, docID)

	return session
}
