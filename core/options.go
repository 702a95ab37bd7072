package orchestration

import (
	"time"

	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/koscakluka/ema-companion/core/events"
	"github.com/koscakluka/ema-companion/core/llms"
	"github.com/koscakluka/ema-companion/core/speechtotext"
	"github.com/koscakluka/ema-companion/core/texttospeech"
)

type OrchestratorOption func(*Orchestrator)

// WithResponseClient sets the client that streams companion responses.
func WithResponseClient(client llms.ResponseStreamer) OrchestratorOption {
	return func(o *Orchestrator) { o.responses = client }
}

// WithSpeechOutput enables narration of responses while voice chat is on.
func WithSpeechOutput(speaker texttospeech.Speaker) OrchestratorOption {
	return func(o *Orchestrator) { o.speechOutput.set(speaker) }
}

// WithSpeechInput enables voice chat. Without a recognizer voice chat can not
// be turned on.
func WithSpeechInput(recognizer speechtotext.Recognizer) OrchestratorOption {
	return func(o *Orchestrator) { o.speechInput.set(recognizer) }
}

// WithFallbackMessage replaces the message shown when a turn fails.
func WithFallbackMessage(message string) OrchestratorOption {
	return func(o *Orchestrator) {
		if message != "" {
			o.fallbackMessage = message
		}
	}
}

// WithLanguage sets the starting language. Invalid languages are ignored.
func WithLanguage(language conversations.Language) OrchestratorOption {
	return func(o *Orchestrator) {
		if language.IsValid() {
			o.session.language = language
		}
	}
}

// WithRecognitionTimeout limits how long a single listening session waits for
// speech.
func WithRecognitionTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.speechInput.noSpeechTimeout = timeout }
}

type OrchestrateOptions struct {
	onState            func(State)
	onEvent            func(events.Event)
	onResponse         func(string)
	onResponseEnd      func()
	onTranscription    func(string)
	onRecognitionError func(error)
	onCancellation     func()
}

// OrchestrateOption configures callbacks. Callbacks run on the event loop and
// must not block; they must not call Close.
type OrchestrateOption func(*OrchestrateOptions)

// WithStateCallback is called with a fresh snapshot after every change.
func WithStateCallback(callback func(State)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onState = callback }
}

// WithEventCallback is called with every emitted event.
func WithEventCallback(callback func(events.Event)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onEvent = callback }
}

func WithResponseCallback(callback func(string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onResponse = callback }
}

func WithResponseEndCallback(callback func()) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onResponseEnd = callback }
}

func WithTranscriptionCallback(callback func(string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onTranscription = callback }
}

func WithRecognitionErrorCallback(callback func(error)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onRecognitionError = callback }
}

func WithCancellationCallback(callback func()) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onCancellation = callback }
}
