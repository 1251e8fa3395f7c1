package ws_test

import (
	"testing"

	"github.com/serroba/richdocs/internal/textpos"
	"github.com/serroba/richdocs/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	client := ws.NewClient("c1", "user1", conn)

	require.NoError(t, client.Send(ws.Message{
		Type:    ws.MessageTypeAck,
		Payload: ws.AckPayload{Revision: 5},
	}))

	messages := conn.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, ws.MessageTypeAck, messages[0].Type)
}

func TestClient_SendError(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	client := ws.NewClient("c1", "user1", conn)

	require.NoError(t, client.SendError(ws.ErrorCodeAccessDenied, "not allowed"))

	messages := conn.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, ws.MessageTypeError, messages[0].Type)
}

func TestClient_Receive(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	client := ws.NewClient("c1", "user1", conn)

	edit := ws.EditPayload{
		DocID:        testDocID,
		BaseRevision: 3,
		Op:           ws.Operation{Type: "insert", At: textpos.Pos(1, 2), Text: "hi"},
	}
	conn.incoming <- ws.Message{Type: ws.MessageTypeEdit, Payload: edit}
	conn.incoming <- ws.Message{Type: ws.MessageTypeUndo, Payload: ws.DocPayload{DocID: testDocID}}
	conn.incoming <- map[string]any{"type": "sync"}
	conn.incoming <- map[string]any{"type": "span", "payload": "not an object"}

	msg, err := client.Receive()
	require.NoError(t, err)
	assert.Equal(t, ws.MessageTypeEdit, msg.Type)
	assert.Equal(t, edit, msg.Payload)

	msg, err = client.Receive()
	require.NoError(t, err)
	assert.Equal(t, ws.DocPayload{DocID: testDocID}, msg.Payload)

	msg, err = client.Receive()
	require.NoError(t, err)
	assert.Equal(t, ws.MessageTypeSync, msg.Type)

	_, err = client.Receive()
	assert.Error(t, err)
}

func TestClient_Close(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	client := ws.NewClient("c1", "user1", conn)

	require.NoError(t, client.Close())
	assert.True(t, conn.IsClosed())
}

func TestClient_DocID(t *testing.T) {
	t.Parallel()

	client := ws.NewClient("c1", "user1", newMockConn())
	assert.Equal(t, "", client.DocID())

	client.SetDocID(testDocID)
	assert.Equal(t, testDocID, client.DocID())
}
