package protocol

import (
	"encoding/json"
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

// Common codec errors.
var (
	ErrInvalidMessage = errors.New("invalid message format")
	ErrUnknownCodec   = errors.New("unknown codec type")
)

// WebSocket subprotocols, one per codec.
const (
	SubprotocolJSON    = "golivestepper.json"
	SubprotocolMsgPack = "golivestepper.msgpack"
)

// Codec handles message encoding/decoding.
type Codec interface {
	// Encode serializes a message to bytes.
	Encode(msg *Message) ([]byte, error)

	// Decode deserializes bytes to a message.
	Decode(data []byte) (*Message, error)

	// Name returns the codec name.
	Name() string

	// Subprotocol returns the WebSocket subprotocol that selects the codec.
	Subprotocol() string

	// Binary reports whether frames are binary rather than text.
	Binary() bool
}

// JSONCodec implements Codec using JSON encoding.
type JSONCodec struct{}

func (JSONCodec) Encode(msg *Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.Join(ErrInvalidMessage, err)
	}
	return &msg, nil
}

func (JSONCodec) Name() string        { return "json" }
func (JSONCodec) Subprotocol() string { return SubprotocolJSON }
func (JSONCodec) Binary() bool        { return false }

// MsgPackCodec implements Codec using MessagePack encoding.
type MsgPackCodec struct{}

func (MsgPackCodec) Encode(msg *Message) ([]byte, error) {
	return msgpack.Marshal(msg)
}

func (MsgPackCodec) Decode(data []byte) (*Message, error) {
	var msg Message
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return nil, errors.Join(ErrInvalidMessage, err)
	}
	return &msg, nil
}

func (MsgPackCodec) Name() string        { return "msgpack" }
func (MsgPackCodec) Subprotocol() string { return SubprotocolMsgPack }
func (MsgPackCodec) Binary() bool        { return true }

// Subprotocols lists the supported subprotocols in order of preference.
func Subprotocols() []string {
	return []string{SubprotocolJSON, SubprotocolMsgPack}
}

// ForSubprotocol returns the codec negotiated by a WebSocket handshake. An
// empty subprotocol selects JSON.
func ForSubprotocol(name string) (Codec, error) {
	switch name {
	case "", SubprotocolJSON:
		return JSONCodec{}, nil
	case SubprotocolMsgPack:
		return MsgPackCodec{}, nil
	}
	return nil, ErrUnknownCodec
}
