package llms

import (
	"strings"

	"github.com/koscakluka/ema-companion/core/conversations"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a role tagged prompt message as model providers expect it.
type Message struct {
	Role    Role
	Content string
}

// ToMessages converts conversation history into prompt messages. Errored and
// empty messages carry nothing the model should see and are skipped.
func ToMessages(instructions string, history []conversations.Message) []Message {
	messages := []Message{}
	if instructions != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: instructions})
	}

	for _, msg := range history {
		if msg.IsError || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		role := RoleAssistant
		if msg.IsFromUser() {
			role = RoleUser
		}
		messages = append(messages, Message{Role: role, Content: msg.Text})
	}

	return messages
}
