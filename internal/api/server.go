package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/serroba/richdocs/internal/acl"
	"github.com/serroba/richdocs/internal/collab"
	"github.com/serroba/richdocs/internal/storage"
	"github.com/serroba/richdocs/internal/ws"
	"go.uber.org/zap"
)

// Server handles HTTP requests for the collaboration API.
type Server struct {
	manager   *collab.Manager
	store     storage.Store
	permStore acl.Store
	hub       *ws.Hub
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

// ServerConfig holds configuration for creating a server.
type ServerConfig struct {
	Manager   *collab.Manager
	Store     storage.Store
	PermStore acl.Store
	Hub       *ws.Hub
	Logger    *zap.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Server{
		manager:   cfg.Manager,
		store:     cfg.Store,
		permStore: cfg.PermStore,
		hub:       cfg.Hub,
		logger:    cfg.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool {
				return true // Allow all origins for demo
			},
		},
	}
}

// Handler returns an http.Handler with all routes configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Document endpoints
	mux.HandleFunc("POST /documents", s.handleCreateDocument)
	mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	mux.HandleFunc("DELETE /documents/{id}", s.handleDeleteDocument)

	// Sharing
	mux.HandleFunc("GET /documents/{id}/permissions", s.handleListPermissions)
	mux.HandleFunc("PUT /documents/{id}/permissions/{user}", s.handleGrantPermission)
	mux.HandleFunc("DELETE /documents/{id}/permissions/{user}", s.handleRevokePermission)

	// WebSocket endpoint
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	return s.logRequests(s.authMiddleware(mux))
}

// writeJSON encodes v as the response body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

// requirePermission checks action for the request user. It writes the
// error response and returns false when the request must stop.
func (s *Server) requirePermission(w http.ResponseWriter, docID, userID string, action acl.Action) bool {
	if s.permStore == nil {
		return true
	}

	err := acl.NewChecker(s.permStore).RequirePermission(docID, userID, action)

	return !s.handled(w, err)
}

// handled writes the response for err and reports whether there was one.
func (s *Server) handled(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, storage.ErrDocumentNotFound):
		http.Error(w, "document not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrDocumentExists):
		http.Error(w, "document already exists", http.StatusConflict)
	case errors.Is(err, acl.ErrAccessDenied):
		http.Error(w, "access denied", http.StatusForbidden)
	case errors.Is(err, acl.ErrPermissionNotFound):
		http.Error(w, "permission not found", http.StatusNotFound)
	case errors.Is(err, acl.ErrUnknownRole):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("request failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}

	return true
}
