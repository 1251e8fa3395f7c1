package ws_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/serroba/richdocs/internal/editor"
	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/textpos"
	"github.com/serroba/richdocs/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testDocID = "doc1"

// mockConn is a test double for ws.Conn.
type mockConn struct {
	mu       sync.Mutex
	messages []ws.Message
	closed   bool
	writeErr error

	// For ReadJSON simulation
	incoming chan any
}

func newMockConn() *mockConn {
	return &mockConn{
		incoming: make(chan any, 10),
	}
}

func (m *mockConn) WriteJSON(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var msg ws.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}

	m.messages = append(m.messages, msg)

	return nil
}

func (m *mockConn) ReadJSON(v any) error {
	msg, ok := <-m.incoming
	if !ok {
		return errors.New("connection closed")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}

func (m *mockConn) Messages() []ws.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]ws.Message, len(m.messages))
	copy(result, m.messages)

	return result
}

func (m *mockConn) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

func newHub() *ws.Hub {
	return ws.NewHub(ws.HubConfig{})
}

func TestHub_RegisterUnregister(t *testing.T) {
	t.Parallel()

	hub := newHub()
	client := ws.NewClient("c1", "user1", newMockConn())

	hub.Register(client)
	assert.Equal(t, 1, hub.TotalClients())

	hub.Unregister(client)
	assert.Equal(t, 0, hub.TotalClients())
}

func TestHub_Subscribe(t *testing.T) {
	t.Parallel()

	hub := newHub()
	client := ws.NewClient("c1", "user1", newMockConn())

	hub.Register(client)
	hub.Subscribe(client, testDocID)

	assert.Equal(t, 1, hub.ClientCount(testDocID))
	assert.Equal(t, testDocID, client.DocID())

	hub.Subscribe(client, "doc2")

	assert.Equal(t, 0, hub.ClientCount(testDocID))
	assert.Equal(t, 1, hub.ClientCount("doc2"))
}

func TestHub_Unsubscribe(t *testing.T) {
	t.Parallel()

	hub := newHub()
	client := ws.NewClient("c1", "user1", newMockConn())

	hub.Register(client)
	hub.Subscribe(client, testDocID)
	hub.Unsubscribe(client, testDocID)

	assert.Equal(t, 0, hub.ClientCount(testDocID))
	assert.Equal(t, "", client.DocID())
}

func TestHub_Unregister_CleansUpSubscription(t *testing.T) {
	t.Parallel()

	hub := newHub()
	client := ws.NewClient("c1", "user1", newMockConn())

	hub.Register(client)
	hub.Subscribe(client, testDocID)
	hub.Unregister(client)

	assert.Equal(t, 0, hub.ClientCount(testDocID))
}

func TestHub_Broadcast(t *testing.T) {
	t.Parallel()

	hub := newHub()

	conn1, conn2, conn3 := newMockConn(), newMockConn(), newMockConn()
	client1 := ws.NewClient("c1", "user1", conn1)
	client2 := ws.NewClient("c2", "user2", conn2)
	client3 := ws.NewClient("c3", "user3", conn3)

	for _, c := range []*ws.Client{client1, client2, client3} {
		hub.Register(c)
	}

	hub.Subscribe(client1, testDocID)
	hub.Subscribe(client2, testDocID)
	hub.Subscribe(client3, "doc2")

	hub.Broadcast(testDocID, ws.Message{Type: ws.MessageTypeBroadcast, Payload: "test"}, "c1")

	assert.Eventually(t, func() bool { return len(conn2.Messages()) == 1 }, time.Second, time.Millisecond)

	assert.Empty(t, conn1.Messages(), "sender should not receive its own broadcast")
	assert.Empty(t, conn3.Messages(), "other documents should not receive the broadcast")
}

func TestHub_BroadcastOperation(t *testing.T) {
	t.Parallel()

	hub := newHub()
	conn := newMockConn()
	client := ws.NewClient("c1", "user1", conn)

	hub.Register(client)
	hub.Subscribe(client, testDocID)

	hub.BroadcastOperation(testDocID, ot.SequencedOperation{
		Operation: ot.Insert{At: textpos.Pos(0, 2), Text: "a"},
		Revision:  5,
		UserID:    "user2",
	}, "other")

	require.Eventually(t, func() bool { return len(conn.Messages()) == 1 }, time.Second, time.Millisecond)

	msg := conn.Messages()[0]
	assert.Equal(t, ws.MessageTypeBroadcast, msg.Type)

	payload, ok := msg.Payload.(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 5, payload["revision"], 0)
	assert.Equal(t, "user2", payload["userId"])
}

func TestHub_BroadcastState(t *testing.T) {
	t.Parallel()

	hub := newHub()
	conn := newMockConn()
	client := ws.NewClient("c1", "user1", conn)

	hub.Register(client)
	hub.Subscribe(client, testDocID)

	hub.BroadcastState(testDocID, editor.Snapshot{Text: "hello"}, 3, "")

	require.Eventually(t, func() bool { return len(conn.Messages()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, ws.MessageTypeState, conn.Messages()[0].Type)
}

func TestHub_BroadcastLogsSendFailure(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	hub := ws.NewHub(ws.HubConfig{Logger: zap.New(core)})

	conn := newMockConn()
	conn.writeErr = errors.New("broken pipe")
	client := ws.NewClient("c1", "user1", conn)

	hub.Register(client)
	hub.Subscribe(client, testDocID)

	hub.Broadcast(testDocID, ws.Message{Type: ws.MessageTypeBroadcast}, "")

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("broadcast send failed").Len() == 1
	}, time.Second, time.Millisecond)
}

func TestHub_ConcurrentOperations(t *testing.T) {
	t.Parallel()

	hub := newHub()

	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			client := ws.NewClient(fmt.Sprintf("c%d", n), "user", newMockConn())

			hub.Register(client)
			hub.Subscribe(client, testDocID)
			hub.Broadcast(testDocID, ws.Message{Type: ws.MessageTypeBroadcast}, client.ID)
		}(i)
	}

	wg.Wait()

	assert.Equal(t, 20, hub.ClientCount(testDocID))
	assert.Equal(t, 20, hub.TotalClients())
}

func TestHub_Broadcast_NoSubscribers(t *testing.T) {
	t.Parallel()

	hub := newHub()

	assert.NotPanics(t, func() {
		hub.Broadcast("nonexistent", ws.Message{Type: ws.MessageTypeBroadcast}, "")
	})
}
