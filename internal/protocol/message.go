package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type discriminates collaboration messages.
type Type string

const (
	TypeJoin       Type = "join"
	TypeLeave      Type = "leave"
	TypeCodeUpdate Type = "code-update"
)

// Message is the envelope sent over a room connection.
type Message struct {
	Type     Type   `json:"type"`
	Code     string `json:"code,omitempty"`
	Language string `json:"language,omitempty"`
}

// ErrMalformed is returned by Parse for payloads that are not a known message.
var ErrMalformed = errors.New("malformed message")

// Join returns a join announcement.
func Join() Message { return Message{Type: TypeJoin} }

// Leave returns a leave notification.
func Leave() Message { return Message{Type: TypeLeave} }

// CodeUpdate returns a full-state code update.
func CodeUpdate(code, language string) Message {
	return Message{Type: TypeCodeUpdate, Code: code, Language: language}
}

// Parse decodes a raw websocket payload.
func Parse(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch msg.Type {
	case TypeJoin, TypeLeave:
	case TypeCodeUpdate:
		if msg.Language == "" {
			return Message{}, fmt.Errorf("%w: code-update without language", ErrMalformed)
		}
	default:
		return Message{}, fmt.Errorf("%w: unknown type %q", ErrMalformed, msg.Type)
	}
	return msg, nil
}

// Encode serializes a message for the wire.
func Encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshaling message: %w", err)
	}
	return data, nil
}
