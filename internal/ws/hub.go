package ws

import (
	"sync"

	"github.com/serroba/richdocs/internal/editor"
	"github.com/serroba/richdocs/internal/ot"
	"go.uber.org/zap"
)

// HubConfig holds configuration for a Hub.
type HubConfig struct {
	Logger *zap.Logger
}

// Hub tracks connected clients and the document each one follows, and fans
// messages out to them.
type Hub struct {
	mu sync.RWMutex

	// clients maps client ID to client
	clients map[string]*Client

	// documents maps document ID to set of client IDs
	documents map[string]map[string]struct{}

	logger *zap.Logger
}

// NewHub creates a new Hub.
func NewHub(cfg HubConfig) *Hub {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Hub{
		clients:   make(map[string]*Client),
		documents: make(map[string]map[string]struct{}),
		logger:    cfg.Logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
}

// Unregister removes a client from the hub and any document subscriptions.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leave(client.ID, client.DocID())
	delete(h.clients, client.ID)
}

// Subscribe moves a client onto a document's broadcast list.
func (h *Hub) Subscribe(client *Client, docID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old := client.DocID(); old != docID {
		h.leave(client.ID, old)
	}

	if h.documents[docID] == nil {
		h.documents[docID] = make(map[string]struct{})
	}

	h.documents[docID][client.ID] = struct{}{}
	client.SetDocID(docID)
}

// Unsubscribe removes a client from a document's broadcast list.
func (h *Hub) Unsubscribe(client *Client, docID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leave(client.ID, docID)

	if client.DocID() == docID {
		client.SetDocID("")
	}
}

// leave drops clientID from docID's subscribers. Callers hold h.mu.
func (h *Hub) leave(clientID, docID string) {
	if docID == "" {
		return
	}

	clients, ok := h.documents[docID]
	if !ok {
		return
	}

	delete(clients, clientID)

	if len(clients) == 0 {
		delete(h.documents, docID)
	}
}

// Broadcast sends a message to all clients subscribed to a document,
// except the sender (identified by excludeClientID). Sends run in their own
// goroutines so a slow client does not hold up the others.
func (h *Hub) Broadcast(docID string, msg Message, excludeClientID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for clientID := range h.documents[docID] {
		if clientID == excludeClientID {
			continue
		}

		client, ok := h.clients[clientID]
		if !ok {
			continue
		}

		go func(c *Client) {
			if err := c.Send(msg); err != nil {
				h.logger.Warn("broadcast send failed",
					zap.String("doc", docID), zap.String("client", c.ID), zap.Error(err))
			}
		}(client)
	}
}

// BroadcastOperation pushes a sequenced edit to a document's clients.
func (h *Hub) BroadcastOperation(docID string, op ot.SequencedOperation, excludeClientID string) {
	h.Broadcast(docID, Message{
		Type: MessageTypeBroadcast,
		Payload: BroadcastPayload{
			DocID:    docID,
			Revision: op.Revision,
			Op:       EncodeOperation(op.Operation),
			UserID:   op.UserID,
		},
	}, excludeClientID)
}

// BroadcastState pushes the full document state to a document's clients.
// It is used for changes that are not plain edits, such as undo and span
// changes.
func (h *Hub) BroadcastState(docID string, state editor.Snapshot, revision int, excludeClientID string) {
	h.Broadcast(docID, Message{
		Type: MessageTypeState,
		Payload: StatePayload{
			DocID:    docID,
			State:    state,
			Revision: revision,
		},
	}, excludeClientID)
}

// ClientCount returns the number of clients subscribed to a document.
func (h *Hub) ClientCount(docID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.documents[docID])
}

// TotalClients returns the total number of connected clients.
func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
