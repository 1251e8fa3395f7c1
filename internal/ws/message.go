package ws

import (
	"errors"
	"fmt"

	"github.com/serroba/richdocs/internal/editor"
	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/textpos"
)

// ErrUnknownOpType is returned when decoding an operation of unknown type.
var ErrUnknownOpType = errors.New("unknown operation type")

// MessageType identifies the kind of WebSocket message.
type MessageType string

const (
	// Client to Server messages.
	MessageTypeEdit MessageType = "edit" // Client submits an edit
	MessageTypeSpan MessageType = "span" // Client adds or removes an annotation span
	MessageTypeUndo MessageType = "undo" // Client reverts the latest edit
	MessageTypeRedo MessageType = "redo" // Client re-applies the latest undone edit
	MessageTypeSync MessageType = "sync" // Client requests current state

	// Server to Client messages.
	MessageTypeAck       MessageType = "ack"       // Server confirms an edit was applied
	MessageTypeBroadcast MessageType = "broadcast" // Server pushes an edit to clients
	MessageTypeState     MessageType = "state"     // Server sends full document state
	MessageTypeError     MessageType = "error"     // Server reports an error
)

// Message is the envelope for all WebSocket communication.
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

// Operation is the wire form of an ot.Operation. Type is one of "insert",
// "delete", "replace" and "style"; the other fields are read according to
// it.
type Operation struct {
	Type    string           `json:"type"`
	At      textpos.Position `json:"at"`
	Range   textpos.Range    `json:"range"`
	Text    string           `json:"text,omitempty"`
	OldText string           `json:"oldText,omitempty"`
	Style   ot.Style         `json:"style,omitempty"`
	Add     bool             `json:"add,omitempty"`
	Inherit bool             `json:"inherit,omitempty"`
}

// EncodeOperation converts op to its wire form.
func EncodeOperation(op ot.Operation) Operation {
	switch o := op.(type) {
	case ot.Insert:
		return Operation{Type: ot.OpInsert.String(), At: o.At, Text: o.Text}
	case ot.Delete:
		return Operation{Type: ot.OpDelete.String(), Range: o.Range, OldText: o.Text}
	case ot.Replace:
		return Operation{
			Type:    ot.OpReplace.String(),
			Range:   o.Range,
			Text:    o.NewText,
			OldText: o.OldText,
			Inherit: o.InheritStyle,
		}
	case ot.StyleSpan:
		return Operation{Type: ot.OpStyleSpan.String(), Range: o.Range, Style: o.Style, Add: o.Add}
	default:
		return Operation{}
	}
}

// Decode converts the wire form back into an operation. The cursor after the
// edit is set to the end of the written text.
func (o Operation) Decode() (ot.Operation, error) {
	switch o.Type {
	case ot.OpInsert.String():
		return ot.Insert{At: o.At, Text: o.Text, After: ot.EndOf(o.At, o.Text)}, nil
	case ot.OpDelete.String():
		return ot.Delete{Range: o.Range, Text: o.OldText, After: o.Range.Start}, nil
	case ot.OpReplace.String():
		return ot.Replace{
			Range:        o.Range,
			NewText:      o.Text,
			OldText:      o.OldText,
			InheritStyle: o.Inherit,
			After:        ot.EndOf(o.Range.Start, o.Text),
		}, nil
	case ot.OpStyleSpan.String():
		return ot.StyleSpan{Range: o.Range, Style: o.Style, Add: o.Add}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOpType, o.Type)
	}
}

// EditPayload is sent when a client submits an edit. Positions refer to the
// document as of BaseRevision.
type EditPayload struct {
	DocID        string    `json:"docId"`
	BaseRevision int       `json:"baseRevision"`
	Op           Operation `json:"op"`
}

// SpanPayload adds or removes an annotation span.
type SpanPayload struct {
	DocID        string        `json:"docId"`
	BaseRevision int           `json:"baseRevision"`
	Range        textpos.Range `json:"range"`
	Style        ot.Style      `json:"style"`
	Remove       bool          `json:"remove,omitempty"`
}

// DocPayload carries only a document ID (sync, undo, redo).
type DocPayload struct {
	DocID string `json:"docId"`
}

// AckPayload confirms an edit was applied.
type AckPayload struct {
	Revision int `json:"revision"` // The assigned revision number
}

// BroadcastPayload pushes an edit to other clients.
type BroadcastPayload struct {
	DocID    string    `json:"docId"`
	Revision int       `json:"revision"`
	Op       Operation `json:"op"`
	UserID   string    `json:"userId"`
}

// StatePayload sends the full document state.
type StatePayload struct {
	DocID    string          `json:"docId"`
	State    editor.Snapshot `json:"state"`
	Revision int             `json:"revision"`
}

// ErrorPayload reports an error to the client.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrorCodeAccessDenied   = "access_denied"
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeStaleRevision  = "stale_revision"
	ErrorCodeInvalidEdit    = "invalid_edit"
	ErrorCodeInternalError  = "internal_error"
)
