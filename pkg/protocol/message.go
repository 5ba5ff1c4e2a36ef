// Package protocol defines the wire protocol between the browser client and
// the live host.
package protocol

import "fmt"

// MessageType identifies the type of protocol message.
type MessageType string

const (
	// MsgEvent is sent by the client for user interactions.
	MsgEvent MessageType = "event"
	// MsgRender carries the component's current HTML.
	MsgRender MessageType = "render"
	// MsgError reports a failed event.
	MsgError MessageType = "error"
	// MsgHeartbeat is sent for connection keepalive and echoed back.
	MsgHeartbeat MessageType = "heartbeat"
)

// Message is exchanged between client and server.
type Message struct {
	// Type identifies what kind of message this is.
	Type MessageType `json:"type" msgpack:"type"`

	// Ref correlates a reply with the client message that caused it.
	Ref string `json:"ref,omitempty" msgpack:"ref,omitempty"`

	// Event is the component event name, e.g. "next".
	Event string `json:"event,omitempty" msgpack:"event,omitempty"`

	// Payload carries the event data.
	Payload map[string]any `json:"payload,omitempty" msgpack:"payload,omitempty"`

	// HTML is the rendered component.
	HTML string `json:"html,omitempty" msgpack:"html,omitempty"`

	// Error is set on MsgError replies.
	Error string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// NewRender creates a render reply.
func NewRender(ref, html string) *Message {
	return &Message{Type: MsgRender, Ref: ref, HTML: html}
}

// NewError creates an error reply.
func NewError(ref string, err error) *Message {
	return &Message{Type: MsgError, Ref: ref, Error: err.Error()}
}

// Validate checks that a client message is well formed.
func (m *Message) Validate() error {
	switch m.Type {
	case MsgEvent:
		if m.Event == "" {
			return fmt.Errorf("%w: event message without event name", ErrInvalidMessage)
		}
	case MsgHeartbeat:
	default:
		return fmt.Errorf("%w: unexpected type %q", ErrInvalidMessage, m.Type)
	}
	return nil
}
