package orchestration

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/koscakluka/ema-companion/core/events"
	"github.com/koscakluka/ema-companion/core/llms"
	"github.com/koscakluka/ema-companion/core/prompts"
)

// Orchestrator coordinates the conversation: typed and spoken input, streamed
// responses, narration and the hands-free voice loop.
//
// All session state is owned by a single event loop goroutine. Exported
// methods only queue intents and return immediately; observers read published
// [State] snapshots.
type Orchestrator struct {
	responses       llms.ResponseStreamer
	speechOutput    speechOutput
	speechInput     speechInput
	fallbackMessage string

	loop    *eventPlayer
	session sessionState
	state   atomic.Pointer[State]

	emitEvent          eventEmitter
	orchestrateOptions OrchestrateOptions
	baseContext        context.Context

	closeOnce sync.Once
	closed    atomic.Bool
}

// sessionState is only touched from the event loop.
type sessionState struct {
	conversation activeConversation
	language     conversations.Language
	isLoading    bool
	voiceMode    VoiceMode
	lastError    string

	isListening         bool
	listenSession       uint64
	recognitionFailures int
	isSpeaking          bool
	turns               int

	epoch uint64
	turn  *activeTurn
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		fallbackMessage: prompts.FallbackMessage,
		loop:            newEventPlayer(),
		session: sessionState{
			conversation: newConversation(),
			language:     conversations.DefaultLanguage,
		},
		emitEvent:   noopEventEmitter,
		baseContext: context.Background(),
	}

	for _, opt := range opts {
		opt(o)
	}

	state := o.snapshot()
	o.state.Store(&state)
	return o
}

// Orchestrate starts the event loop. Intents queued before it are handled
// once it runs.
//
// ctx is used as the base context for every turn; cancelling it shuts the
// orchestrator down. Call Orchestrate at most once.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) {
	if o.closed.Load() {
		logger.Warn("orchestrator already closed, skipping Orchestrate")
		return
	}

	o.orchestrateOptions = OrchestrateOptions{}
	for _, opt := range opts {
		opt(&o.orchestrateOptions)
	}
	o.emitEvent = newCallbackEventEmitter(o.orchestrateOptions)
	o.baseContext = ctx

	if started := o.loop.StartLoop(ctx, o.handle); started {
		o.loop.Ingest(loopFunc(o.publish))
		go func() {
			<-ctx.Done()
			o.Close()
		}()
	}
}

// Close stops recognition, cancels speech and aborts the request in flight,
// then stops the event loop. It must not be called from a callback.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.closed.Store(true)

		done := make(chan struct{})
		if o.loop.Ingest(loopFunc(func() {
			defer close(done)
			o.shutdown()
		})) && o.loop.started.Load() {
			<-done
		} else {
			o.shutdown()
		}

		o.loop.Stop()
		o.loop.AwaitDone()
	})
}

func (o *Orchestrator) shutdown() {
	o.session.voiceMode = transition(o.session.voiceMode, triggerToggleOff)
	o.stopListening()
	o.speechOutput.cancel()
	o.cancelTurn()
}

// State returns the last published snapshot.
func (o *Orchestrator) State() State {
	return *o.state.Load()
}

// SubmitUserText starts a turn with text. It is ignored while a response is
// loading or when text is blank.
func (o *Orchestrator) SubmitUserText(text string) {
	o.loop.Ingest(submitTextRequested{text: text})
}

// ToggleVoiceChat turns the hands-free loop on or off. It is ignored before
// the conversation has started or when no speech input is configured.
func (o *Orchestrator) ToggleVoiceChat() {
	o.loop.Ingest(voiceChatToggleRequested{})
}

// ChangeLanguage switches the language and starts a new conversation. Voice
// chat is turned off and anything in flight is abandoned.
func (o *Orchestrator) ChangeLanguage(language conversations.Language) {
	o.loop.Ingest(languageChangeRequested{language: language})
}

func (o *Orchestrator) handle(ctx context.Context, event loopEvent) {
	switch e := event.(type) {
	case submitTextRequested:
		o.handleSubmit(ctx, e.text)
	case voiceChatToggleRequested:
		o.handleToggleVoiceChat(ctx)
	case languageChangeRequested:
		o.handleChangeLanguage(e.language)
	case recognitionResulted:
		o.handleRecognitionResult(ctx, e)
	case recognitionNoMatched:
		o.handleRecognitionNoMatch(e)
	case recognitionFailed:
		o.handleRecognitionError(ctx, e)
	case recognitionEnded:
		o.handleRecognitionEnded(ctx, e)
		o.publish()
	case responseChunkReceived:
		o.handleResponseChunk(e)
	case responseStreamEnded:
		o.handleResponseStreamEnded(e)
	case speechPlaybackEnded:
		o.handleSpeechPlaybackEnded(e)
	case loopFunc:
		e()
	}
}

func (o *Orchestrator) handleToggleVoiceChat(ctx context.Context) {
	session := &o.session
	if session.conversation.isEmpty() || !o.speechInput.available() {
		return
	}

	if session.voiceMode.IsActive() {
		session.voiceMode = transition(session.voiceMode, triggerToggleOff)
		o.speechOutput.cancel()
		o.stopListening()
	} else {
		session.voiceMode = transition(session.voiceMode, triggerToggleOn)
		session.recognitionFailures = 0
		if session.isLoading {
			session.voiceMode = transition(session.voiceMode, triggerTurnStarted)
		}
		o.armListening(ctx)
	}

	o.publish()
	o.emitEvent(events.NewVoiceChatToggled(session.voiceMode.IsActive()))
}

func (o *Orchestrator) handleChangeLanguage(language conversations.Language) {
	if !language.IsValid() {
		logger.Warn("ignoring unsupported language", "language", string(language))
		return
	}

	session := &o.session
	o.cancelTurn()
	o.speechOutput.cancel()
	o.stopListening()

	session.language = language
	session.conversation.reset()
	session.voiceMode = transition(session.voiceMode, triggerLanguageChanged)
	session.lastError = ""

	o.publish()
	o.emitEvent(events.NewLanguageChanged(string(language)))
}
