package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/serroba/richdocs/internal/acl"
	"github.com/serroba/richdocs/internal/collab"
	"github.com/serroba/richdocs/internal/editor"
	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/storage"
	"github.com/serroba/richdocs/internal/textpos"
	"github.com/serroba/richdocs/internal/ws"
	"go.uber.org/zap"
)

// docSession is the part of collab.Session the WebSocket loop drives.
type docSession interface {
	ApplyOperation(clientID, userID string, op ot.Operation, baseRevision int) (int, error)
	Undo(userID string) (int, error)
	Redo(userID string) (int, error)
	AddSpan(userID string, r textpos.Range, style ot.Style, baseRevision int) error
	RemoveSpan(userID string, r textpos.Range, style ot.Style, baseRevision int) (bool, error)
	GetState(userID string) (editor.Snapshot, int, error)
}

var _ docSession = (*collab.Session)(nil)

// handleWebSocket handles GET /ws?docId={id}.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	docID := r.URL.Query().Get("docId")
	if docID == "" {
		http.Error(w, "docId query parameter is required", http.StatusBadRequest)

		return
	}

	userID := UserIDFromContext(r.Context())

	client, cleanup, err := s.setupWebSocketClient(w, r, docID, userID)
	if err != nil {
		return
	}

	defer cleanup()

	session, err := s.initializeSession(client, docID, userID)
	if err != nil {
		return
	}

	s.handleMessages(client, session, docID, userID)
}

// setupWebSocketClient upgrades the connection and creates a client.
func (s *Server) setupWebSocketClient(
	w http.ResponseWriter, r *http.Request, docID, userID string,
) (*ws.Client, func(), error) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))

		return nil, nil, err
	}

	client := ws.NewClient(uuid.New().String(), userID, conn)
	s.hub.Register(client)
	s.hub.Subscribe(client, docID)

	s.logger.Debug("client connected",
		zap.String("client", client.ID), zap.String("user", userID), zap.String("doc", docID))

	cleanup := func() {
		s.hub.Unregister(client)
		_ = client.Close()
	}

	return client, cleanup, nil
}

// initializeSession opens the document session and sends the initial state.
func (s *Server) initializeSession(client *ws.Client, docID, userID string) (docSession, error) {
	session, err := s.manager.GetOrCreateSession(docID)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			_ = client.SendError(ws.ErrorCodeInvalidMessage, "document not found")
		} else {
			_ = client.SendError(ws.ErrorCodeInternalError, "failed to load document")
		}

		return nil, err
	}

	if err := s.sendState(client, session, docID, userID); err != nil {
		return nil, err
	}

	return session, nil
}

// handleMessages processes incoming messages until the connection drops.
func (s *Server) handleMessages(client *ws.Client, session docSession, docID, userID string) {
	for {
		msg, err := client.Receive()
		if err != nil {
			return
		}

		switch msg.Type {
		case ws.MessageTypeEdit:
			s.handleEdit(client, session, userID, msg)
		case ws.MessageTypeSpan:
			s.handleSpan(client, session, userID, msg)
		case ws.MessageTypeUndo:
			revision, err := session.Undo(userID)
			s.reply(client, revision, err)
		case ws.MessageTypeRedo:
			revision, err := session.Redo(userID)
			s.reply(client, revision, err)
		case ws.MessageTypeSync:
			_ = s.sendState(client, session, docID, userID)
		default:
			_ = client.SendError(ws.ErrorCodeInvalidMessage, "unexpected message type")
		}
	}
}

// handleEdit applies an edit message.
func (s *Server) handleEdit(client *ws.Client, session docSession, userID string, msg ws.Message) {
	payload, ok := msg.Payload.(ws.EditPayload)
	if !ok {
		_ = client.SendError(ws.ErrorCodeInvalidMessage, "invalid edit payload")

		return
	}

	op, err := payload.Op.Decode()
	if err != nil {
		_ = client.SendError(ws.ErrorCodeInvalidMessage, err.Error())

		return
	}

	revision, err := session.ApplyOperation(client.ID, userID, op, payload.BaseRevision)
	s.reply(client, revision, err)
}

// handleSpan adds or removes an annotation span.
func (s *Server) handleSpan(client *ws.Client, session docSession, userID string, msg ws.Message) {
	payload, ok := msg.Payload.(ws.SpanPayload)
	if !ok {
		_ = client.SendError(ws.ErrorCodeInvalidMessage, "invalid span payload")

		return
	}

	var err error
	if payload.Remove {
		_, err = session.RemoveSpan(userID, payload.Range, payload.Style, payload.BaseRevision)
	} else {
		err = session.AddSpan(userID, payload.Range, payload.Style, payload.BaseRevision)
	}

	if err != nil {
		s.sendError(client, err)
	}
}

// reply acknowledges an applied edit or reports why it failed.
func (s *Server) reply(client *ws.Client, revision int, err error) {
	if err != nil {
		s.sendError(client, err)

		return
	}

	_ = client.Send(ws.Message{
		Type:    ws.MessageTypeAck,
		Payload: ws.AckPayload{Revision: revision},
	})
}

// sendState sends the current document state to the client.
func (s *Server) sendState(client *ws.Client, session docSession, docID, userID string) error {
	state, revision, err := session.GetState(userID)
	if err != nil {
		s.sendError(client, err)

		return err
	}

	return client.Send(ws.Message{
		Type: ws.MessageTypeState,
		Payload: ws.StatePayload{
			DocID:    docID,
			State:    state,
			Revision: revision,
		},
	})
}

// sendError maps err to a client error code.
func (s *Server) sendError(client *ws.Client, err error) {
	code := ws.ErrorCodeInternalError

	switch {
	case errors.Is(err, acl.ErrAccessDenied):
		code = ws.ErrorCodeAccessDenied
	case errors.Is(err, ot.ErrRevisionTooOld), errors.Is(err, ot.ErrFutureRevision):
		code = ws.ErrorCodeStaleRevision
	case errors.Is(err, ot.ErrInvalidPosition), errors.Is(err, ot.ErrInvalidRange),
		errors.Is(err, editor.ErrEmptyText), errors.Is(err, ot.ErrUnknownOperation),
		errors.Is(err, collab.ErrNothingToUndo), errors.Is(err, collab.ErrNothingToRedo):
		code = ws.ErrorCodeInvalidEdit
	default:
		s.logger.Error("edit failed", zap.String("client", client.ID), zap.Error(err))
	}

	_ = client.SendError(code, err.Error())
}
