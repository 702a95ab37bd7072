package orchestration

import "github.com/koscakluka/ema-companion/core/conversations"

// State is a read-only snapshot of the orchestrator, safe to keep and share.
type State struct {
	Messages        []conversations.Message
	IsLoading       bool
	VoiceChatActive bool
	VoiceMode       VoiceMode
	Language        conversations.Language
	// LastError is the user facing message of the last failed turn.
	LastError string

	IsListening          bool
	IsSpeaking           bool
	Turns                int
	SpeechInputAvailable bool
}

// HasStartedChat reports whether the welcome screen has been left.
func (s State) HasStartedChat() bool { return len(s.Messages) > 0 }

// ShowLoading reports whether a loading indicator should be shown. Voice mode
// has its own indicators.
func (s State) ShowLoading() bool { return s.IsLoading && !s.VoiceChatActive }

// ShowError reports whether the error banner should be shown.
func (s State) ShowError() bool { return s.LastError != "" && !s.IsLoading }

func (o *Orchestrator) snapshot() State {
	session := &o.session
	return State{
		Messages:             session.conversation.snapshot(),
		IsLoading:            session.isLoading,
		VoiceChatActive:      session.voiceMode.IsActive(),
		VoiceMode:            session.voiceMode,
		Language:             session.language,
		LastError:            session.lastError,
		IsListening:          session.isListening,
		IsSpeaking:           session.isSpeaking,
		Turns:                session.turns,
		SpeechInputAvailable: o.speechInput.available(),
	}
}

// publish makes the current state visible to readers and state callbacks.
func (o *Orchestrator) publish() {
	state := o.snapshot()
	o.state.Store(&state)
	if o.orchestrateOptions.onState != nil {
		o.orchestrateOptions.onState(state)
	}
}
