package orchestration

import (
	"time"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-companion/core/conversations"
)

// activeConversation is the ordered message list of the running session.
// It is only touched from the event loop.
type activeConversation struct {
	messages []conversations.Message
	lastID   int64

	now func() time.Time
}

func newConversation() activeConversation {
	return activeConversation{now: time.Now}
}

// nextID derives an id from the current time, bumped past the last one handed
// out so ids stay unique and increasing within the session.
func (c *activeConversation) nextID() int64 {
	id := c.now().UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id
	return id
}

func (c *activeConversation) append(text string, sender conversations.Sender) int64 {
	id := c.nextID()
	c.messages = append(c.messages, conversations.Message{ID: id, Text: text, Sender: sender})
	return id
}

// update replaces the text of the message with id. Unknown ids are ignored.
func (c *activeConversation) update(id int64, text string, isError bool) bool {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == id {
			c.messages[i].Text = text
			c.messages[i].IsError = isError
			return true
		}
	}
	return false
}

func (c *activeConversation) isEmpty() bool { return len(c.messages) == 0 }

func (c *activeConversation) reset() {
	c.messages = nil
}

// history returns a copy of every message except the one with id excluded.
func (c *activeConversation) history(excluded int64) []conversations.Message {
	history := make([]conversations.Message, 0, len(c.messages))
	for _, msg := range c.messages {
		if msg.ID != excluded {
			history = append(history, msg)
		}
	}
	return history
}

func (c *activeConversation) snapshot() []conversations.Message {
	if len(c.messages) == 0 {
		return nil
	}

	var snapshot []conversations.Message
	if err := copier.CopyWithOption(&snapshot, &c.messages, copier.Option{DeepCopy: true}); err != nil {
		logger.Warn("failed to copy conversation snapshot", "error", err)
		return append([]conversations.Message(nil), c.messages...)
	}
	return snapshot
}
