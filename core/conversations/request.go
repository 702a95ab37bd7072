package conversations

// ChatRequest is the body of a chat request: the conversation so far and the
// language the companion should answer in.
type ChatRequest struct {
	Messages []Message `json:"messages" jsonschema:"minItems=1"`
	Language Language  `json:"language" jsonschema:"enum=en,enum=hi"`
}

// ChatError is the body returned alongside a non-success status.
type ChatError struct {
	Error string `json:"error"`
}

// LastUserMessage returns the most recent message authored by the user.
func (r ChatRequest) LastUserMessage() (Message, bool) {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].IsFromUser() {
			return r.Messages[i], true
		}
	}
	return Message{}, false
}
