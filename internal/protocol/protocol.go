// Package protocol classifies command messages exchanged with clients.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Recognized message types.
const (
	LoadDefaultScenario = "LOAD_DEFAULT_SCENARIO"
	StepScenario        = "STEP_SCENARIO"
	Unknown             = "unknown"
)

// ErrMalformedMessage is returned for frames that are not a JSON object.
var ErrMalformedMessage = errors.New("malformed message")

// Message is a {type, content} frame. Content is passed through unparsed.
type Message struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

var emptyContent = json.RawMessage("{}")

// ProcessMessage classifies a raw frame. Recognized types keep their content;
// anything else becomes Unknown with empty content.
func ProcessMessage(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	switch m.Type {
	case LoadDefaultScenario, StepScenario:
		return m, nil
	default:
		return Message{Type: Unknown, Content: emptyContent}, nil
	}
}

// CreateMessage encodes content under the given type.
func CreateMessage(msgType string, content any) ([]byte, error) {
	var raw json.RawMessage
	switch c := content.(type) {
	case nil:
		raw = json.RawMessage("null")
	case json.RawMessage:
		raw = c
	default:
		b, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("encode %s content: %w", msgType, err)
		}
		raw = b
	}
	return json.Marshal(Message{Type: msgType, Content: raw})
}

// HasContent reports whether the message carries a non-null, non-empty payload.
func (m Message) HasContent() bool {
	s := string(m.Content)
	return s != "" && s != "null" && s != "{}" && s != `""`
}
