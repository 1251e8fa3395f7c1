package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/serroba/richdocs/internal/acl"
	"github.com/serroba/richdocs/internal/editor"
	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/textpos"
	"github.com/serroba/richdocs/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rawMessage struct {
	Type    ws.MessageType  `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dial(t *testing.T, srv *httptest.Server, docID, userID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?docId=" + docID
	header := http.Header{"X-User-Id": []string{userID}}

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)

	_ = resp.Body.Close()

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func read(t *testing.T, conn *websocket.Conn) rawMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg rawMessage
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func readPayload[T any](t *testing.T, conn *websocket.Conn, want ws.MessageType) T {
	t.Helper()

	msg := read(t, conn)
	require.Equal(t, want, msg.Type, "payload: %s", msg.Payload)

	var v T
	require.NoError(t, json.Unmarshal(msg.Payload, &v))

	return v
}

func send(t *testing.T, conn *websocket.Conn, typ ws.MessageType, payload any) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(ws.Message{Type: typ, Payload: payload}))
}

func editMsg(base int, op ot.Operation) ws.EditPayload {
	return ws.EditPayload{DocID: "doc1", BaseRevision: base, Op: ws.EncodeOperation(op)}
}

func newWebSocketServer(t *testing.T, text string) (*testServer, *httptest.Server) {
	t.Helper()

	ts := newTestServer(t, true)
	require.NoError(t, ts.store.CreateDocument("doc1"))
	require.NoError(t, ts.store.SaveSnapshot("doc1", 0, editor.Snapshot{Text: text}))
	require.NoError(t, ts.permStore.Grant("doc1", "alice", acl.Editor))
	require.NoError(t, ts.permStore.Grant("doc1", "bob", acl.Editor))
	require.NoError(t, ts.permStore.Grant("doc1", "carol", acl.Commenter))

	srv := httptest.NewServer(ts.handler)
	t.Cleanup(srv.Close)

	return ts, srv
}

func TestWebSocket_EditIsAckedAndBroadcast(t *testing.T) {
	t.Parallel()

	_, srv := newWebSocketServer(t, "hello")

	alice := dial(t, srv, "doc1", "alice")
	state := readPayload[ws.StatePayload](t, alice, ws.MessageTypeState)
	assert.Equal(t, "hello", state.State.Text)
	assert.Equal(t, 0, state.Revision)

	bob := dial(t, srv, "doc1", "bob")
	readPayload[ws.StatePayload](t, bob, ws.MessageTypeState)

	send(t, alice, ws.MessageTypeEdit, editMsg(0, ot.Insert{At: textpos.Pos(0, 5), Text: " world"}))

	ack := readPayload[ws.AckPayload](t, alice, ws.MessageTypeAck)
	assert.Equal(t, 1, ack.Revision)

	broadcast := readPayload[ws.BroadcastPayload](t, bob, ws.MessageTypeBroadcast)
	assert.Equal(t, 1, broadcast.Revision)
	assert.Equal(t, "alice", broadcast.UserID)
	assert.Equal(t, "insert", broadcast.Op.Type)
	assert.Equal(t, " world", broadcast.Op.Text)

	send(t, bob, ws.MessageTypeSync, ws.DocPayload{DocID: "doc1"})

	state = readPayload[ws.StatePayload](t, bob, ws.MessageTypeState)
	assert.Equal(t, "hello world", state.State.Text)
	assert.Equal(t, 1, state.Revision)
}

func TestWebSocket_UndoPushesState(t *testing.T) {
	t.Parallel()

	_, srv := newWebSocketServer(t, "hello")

	alice := dial(t, srv, "doc1", "alice")
	readPayload[ws.StatePayload](t, alice, ws.MessageTypeState)

	send(t, alice, ws.MessageTypeEdit, editMsg(0, ot.StyleSpan{
		Range: textpos.MustRange(textpos.Pos(0, 0), textpos.Pos(0, 5)), Style: "bold", Add: true,
	}))
	readPayload[ws.AckPayload](t, alice, ws.MessageTypeAck)

	send(t, alice, ws.MessageTypeUndo, ws.DocPayload{DocID: "doc1"})

	// The ack and the pushed state race; accept either order.
	got := map[ws.MessageType]json.RawMessage{}
	for range 2 {
		msg := read(t, alice)
		got[msg.Type] = msg.Payload
	}

	require.Contains(t, got, ws.MessageTypeAck)
	require.Contains(t, got, ws.MessageTypeState)

	var state ws.StatePayload
	require.NoError(t, json.Unmarshal(got[ws.MessageTypeState], &state))
	assert.Equal(t, 2, state.Revision)
	assert.Empty(t, state.State.Runs)

	send(t, alice, ws.MessageTypeRedo, ws.DocPayload{DocID: "doc1"})

	got = map[ws.MessageType]json.RawMessage{}
	for range 2 {
		msg := read(t, alice)
		got[msg.Type] = msg.Payload
	}

	require.Contains(t, got, ws.MessageTypeAck)
	require.Contains(t, got, ws.MessageTypeBroadcast)
}

func TestWebSocket_Errors(t *testing.T) {
	t.Parallel()

	_, srv := newWebSocketServer(t, "hello")

	alice := dial(t, srv, "doc1", "alice")
	readPayload[ws.StatePayload](t, alice, ws.MessageTypeState)

	tests := []struct {
		name    string
		typ     ws.MessageType
		payload any
		code    string
	}{
		{
			name:    "future revision",
			typ:     ws.MessageTypeEdit,
			payload: editMsg(7, ot.Insert{At: textpos.Pos(0, 0), Text: "x"}),
			code:    ws.ErrorCodeStaleRevision,
		},
		{
			name:    "position outside the document",
			typ:     ws.MessageTypeEdit,
			payload: editMsg(0, ot.Insert{At: textpos.Pos(3, 0), Text: "x"}),
			code:    ws.ErrorCodeInvalidEdit,
		},
		{
			name:    "unknown operation",
			typ:     ws.MessageTypeEdit,
			payload: ws.EditPayload{DocID: "doc1", Op: ws.Operation{Type: "move"}},
			code:    ws.ErrorCodeInvalidMessage,
		},
		{
			name:    "nothing to undo",
			typ:     ws.MessageTypeUndo,
			payload: ws.DocPayload{DocID: "doc1"},
			code:    ws.ErrorCodeInvalidEdit,
		},
		{
			name:    "server message from client",
			typ:     ws.MessageTypeAck,
			payload: ws.AckPayload{Revision: 1},
			code:    ws.ErrorCodeInvalidMessage,
		},
	}

	// Run in order on one connection.
	for _, tt := range tests {
		send(t, alice, tt.typ, tt.payload)

		payload := readPayload[ws.ErrorPayload](t, alice, ws.MessageTypeError)
		assert.Equal(t, tt.code, payload.Code, tt.name)
	}
}

func TestWebSocket_CommenterAnnotates(t *testing.T) {
	t.Parallel()

	ts, srv := newWebSocketServer(t, "hello")

	carol := dial(t, srv, "doc1", "carol")
	readPayload[ws.StatePayload](t, carol, ws.MessageTypeState)

	send(t, carol, ws.MessageTypeEdit, editMsg(0, ot.Insert{At: textpos.Pos(0, 0), Text: "x"}))

	denied := readPayload[ws.ErrorPayload](t, carol, ws.MessageTypeError)
	assert.Equal(t, ws.ErrorCodeAccessDenied, denied.Code)

	span := textpos.MustRange(textpos.Pos(0, 1), textpos.Pos(0, 4))
	send(t, carol, ws.MessageTypeSpan, ws.SpanPayload{DocID: "doc1", Range: span, Style: "comment:1"})

	state := readPayload[ws.StatePayload](t, carol, ws.MessageTypeState)
	assert.Equal(t, []ot.Span{{Range: span, Style: "comment:1"}}, state.State.Spans)

	snapshot, err := ts.store.LoadSnapshot("doc1")
	require.NoError(t, err)
	assert.Equal(t, state.State.Spans, snapshot.State.Spans)
}

func TestWebSocket_Rejections(t *testing.T) {
	t.Parallel()

	_, srv := newWebSocketServer(t, "hello")

	t.Run("unknown document", func(t *testing.T) {
		t.Parallel()

		conn := dial(t, srv, "missing", "alice")

		payload := readPayload[ws.ErrorPayload](t, conn, ws.MessageTypeError)
		assert.Equal(t, ws.ErrorCodeInvalidMessage, payload.Code)
	})

	t.Run("user without access", func(t *testing.T) {
		t.Parallel()

		conn := dial(t, srv, "doc1", "mallory")

		payload := readPayload[ws.ErrorPayload](t, conn, ws.MessageTypeError)
		assert.Equal(t, ws.ErrorCodeAccessDenied, payload.Code)
	})
}
