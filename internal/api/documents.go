package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/serroba/richdocs/internal/acl"
	"github.com/serroba/richdocs/internal/editor"
	"go.uber.org/zap"
)

// CreateDocumentRequest is the request body for creating a document. Both
// fields are optional: a missing ID is generated.
type CreateDocumentRequest struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// CreateDocumentResponse is the response body for creating a document.
type CreateDocumentResponse struct {
	ID string `json:"id"`
}

// GetDocumentResponse is the response body for getting a document.
type GetDocumentResponse struct {
	ID       string          `json:"id"`
	State    editor.Snapshot `json:"state"`
	Revision int             `json:"revision"`
}

// handleCreateDocument handles POST /documents.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)

		return
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	if s.handled(w, s.store.CreateDocument(req.ID)) {
		return
	}

	if req.Text != "" {
		if s.handled(w, s.store.SaveSnapshot(req.ID, 0, editor.Snapshot{Text: req.Text})) {
			return
		}
	}

	userID := UserIDFromContext(r.Context())
	if s.permStore != nil {
		if s.handled(w, s.permStore.Grant(req.ID, userID, acl.Owner)) {
			return
		}
	}

	s.logger.Info("document created", zap.String("doc", req.ID), zap.String("owner", userID))
	s.writeJSON(w, http.StatusCreated, CreateDocumentResponse{ID: req.ID})
}

// handleGetDocument handles GET /documents/{id}.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("id")

	session, err := s.manager.GetOrCreateSession(docID)
	if s.handled(w, err) {
		return
	}

	state, revision, err := session.GetState(UserIDFromContext(r.Context()))
	if s.handled(w, err) {
		return
	}

	s.writeJSON(w, http.StatusOK, GetDocumentResponse{
		ID:       docID,
		State:    state,
		Revision: revision,
	})
}

// handleDeleteDocument handles DELETE /documents/{id}. The open session is
// dropped without a final snapshot.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("id")
	userID := UserIDFromContext(r.Context())

	if !s.requirePermission(w, docID, userID, acl.ActionDelete) {
		return
	}

	s.manager.DiscardSession(docID)

	if s.handled(w, s.store.DeleteDocument(docID)) {
		return
	}

	if s.permStore != nil {
		if s.handled(w, s.permStore.RevokeAll(docID)) {
			return
		}
	}

	s.logger.Info("document deleted", zap.String("doc", docID), zap.String("user", userID))
	w.WriteHeader(http.StatusNoContent)
}
