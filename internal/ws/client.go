package ws

import (
	"encoding/json"
	"sync"
)

// Conn abstracts a WebSocket connection for testability.
// *websocket.Conn from gorilla/websocket satisfies it.
type Conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}

// Client represents a connected user.
type Client struct {
	ID     string
	UserID string
	conn   Conn

	mu    sync.Mutex
	docID string // Currently subscribed document
}

// NewClient creates a new client wrapper.
func NewClient(id, userID string, conn Conn) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		conn:   conn,
	}
}

// Send sends a message to the client.
func (c *Client) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteJSON(msg)
}

// SendError sends an error message to the client.
func (c *Client) SendError(code, message string) error {
	return c.Send(Message{
		Type: MessageTypeError,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

// Receive reads a message from the client. Payloads of client messages are
// decoded into their typed form; server message payloads stay raw.
func (c *Client) Receive() (Message, error) {
	var raw struct {
		Type    MessageType     `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}

	if err := c.conn.ReadJSON(&raw); err != nil {
		return Message{}, err
	}

	msg := Message{Type: raw.Type}

	var err error

	switch raw.Type {
	case MessageTypeEdit:
		msg.Payload, err = decode[EditPayload](raw.Payload)
	case MessageTypeSpan:
		msg.Payload, err = decode[SpanPayload](raw.Payload)
	case MessageTypeUndo, MessageTypeRedo, MessageTypeSync:
		msg.Payload, err = decode[DocPayload](raw.Payload)
	case MessageTypeAck, MessageTypeBroadcast, MessageTypeState, MessageTypeError:
		msg.Payload = raw.Payload
	}

	if err != nil {
		return Message{}, err
	}

	return msg, nil
}

func decode[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}

	err := json.Unmarshal(data, &v)

	return v, err
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// DocID returns the document the client is subscribed to.
func (c *Client) DocID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.docID
}

// SetDocID sets the document the client is subscribed to.
func (c *Client) SetDocID(docID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.docID = docID
}
