package api

import (
	"encoding/json"
	"net/http"

	"github.com/serroba/richdocs/internal/acl"
	"github.com/serroba/richdocs/internal/storage"
	"go.uber.org/zap"
)

// GrantRequest is the request body for sharing a document.
type GrantRequest struct {
	Role acl.Role `json:"role"`
}

// handleListPermissions handles GET /documents/{id}/permissions.
func (s *Server) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("id")

	if !s.sharable(w, r, docID) {
		return
	}

	perms, err := s.permStore.ListPermissions(docID)
	if s.handled(w, err) {
		return
	}

	if perms == nil {
		perms = []acl.Permission{}
	}

	s.writeJSON(w, http.StatusOK, perms)
}

// handleGrantPermission handles PUT /documents/{id}/permissions/{user}.
func (s *Server) handleGrantPermission(w http.ResponseWriter, r *http.Request) {
	docID, target := r.PathValue("id"), r.PathValue("user")

	if !s.sharable(w, r, docID) {
		return
	}

	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)

		return
	}

	if s.handled(w, s.permStore.Grant(docID, target, req.Role)) {
		return
	}

	s.logger.Info("permission granted",
		zap.String("doc", docID), zap.String("user", target), zap.Stringer("role", req.Role))
	w.WriteHeader(http.StatusNoContent)
}

// handleRevokePermission handles DELETE /documents/{id}/permissions/{user}.
func (s *Server) handleRevokePermission(w http.ResponseWriter, r *http.Request) {
	docID, target := r.PathValue("id"), r.PathValue("user")

	if !s.sharable(w, r, docID) {
		return
	}

	if s.handled(w, s.permStore.Revoke(docID, target)) {
		return
	}

	s.logger.Info("permission revoked", zap.String("doc", docID), zap.String("user", target))
	w.WriteHeader(http.StatusNoContent)
}

// sharable checks that sharing is configured, the document exists and the
// request user may share it.
func (s *Server) sharable(w http.ResponseWriter, r *http.Request, docID string) bool {
	if s.permStore == nil {
		http.Error(w, "sharing is not enabled", http.StatusNotImplemented)

		return false
	}

	exists, err := s.store.DocumentExists(docID)
	if s.handled(w, err) {
		return false
	}

	if !exists {
		return !s.handled(w, storage.ErrDocumentNotFound)
	}

	return s.requirePermission(w, docID, UserIDFromContext(r.Context()), acl.ActionShare)
}
