package events

const (
	// KindAssistantSpeechStarted identifies the start of response narration.
	KindAssistantSpeechStarted Kind = "assistant_speech.started"
	// KindAssistantSpeechEnded identifies the end of response narration.
	KindAssistantSpeechEnded Kind = "assistant_speech.ended"
)

// AssistantSpeechStarted marks the start of response narration.
type AssistantSpeechStarted struct {
	Base
	Turn
	Language string
}

// NewAssistantSpeechStarted creates an assistant speech started event.
func NewAssistantSpeechStarted(turnID, language string) AssistantSpeechStarted {
	return AssistantSpeechStarted{Base: NewBase(KindAssistantSpeechStarted), Turn: Turn{TurnID: turnID}, Language: language}
}

// AssistantSpeechEnded marks the end of response narration. Cancelled is set
// when playback was stopped before the utterance finished.
type AssistantSpeechEnded struct {
	Base
	Turn
	Cancelled bool
}

// NewAssistantSpeechEnded creates an assistant speech ended event.
func NewAssistantSpeechEnded(turnID string, cancelled bool) AssistantSpeechEnded {
	return AssistantSpeechEnded{Base: NewBase(KindAssistantSpeechEnded), Turn: Turn{TurnID: turnID}, Cancelled: cancelled}
}
