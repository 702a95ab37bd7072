package conversations

import (
	"encoding/json"
	"fmt"
)

// Sender describes who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderCompanion Sender = "ai"
)

func (s Sender) IsValid() bool {
	return s == SenderUser || s == SenderCompanion
}

// Message is a single entry of the conversation.
//
// Companion messages start out empty and are filled in place, by ID, while the
// response is streamed in.
type Message struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	Sender  Sender `json:"sender" jsonschema:"enum=user,enum=ai"`
	IsError bool   `json:"isError,omitempty"`
}

func (m Message) IsFromUser() bool      { return m.Sender == SenderUser }
func (m Message) IsFromCompanion() bool { return m.Sender == SenderCompanion }

func (s *Sender) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("sender must be a string: %w", err)
	}

	sender := Sender(raw)
	if !sender.IsValid() {
		return fmt.Errorf("unknown sender %q", raw)
	}

	*s = sender
	return nil
}
