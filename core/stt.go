package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/koscakluka/ema-companion/core/events"
	"github.com/koscakluka/ema-companion/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	rearmRetryDelay    = 250 * time.Millisecond
	maxRearmRetryDelay = 5 * time.Second
)

// speechInput is the recognizer facade used to handle optional wiring.
type speechInput struct {
	recognizer      speechtotext.Recognizer
	noSpeechTimeout time.Duration
}

func (s *speechInput) set(recognizer speechtotext.Recognizer) {
	s.recognizer = recognizer
}

func (s *speechInput) available() bool {
	return s != nil && s.recognizer != nil
}

func (s *speechInput) start(ctx context.Context, locale string, callbacks speechInputCallbacks) error {
	if !s.available() {
		return ErrNotConfigured
	}

	return s.recognizer.Start(ctx,
		speechtotext.WithLocale(locale),
		speechtotext.WithNoSpeechTimeout(s.noSpeechTimeout),
		speechtotext.WithResultCallback(callbacks.onResult),
		speechtotext.WithNoMatchCallback(callbacks.onNoMatch),
		speechtotext.WithErrorCallback(callbacks.onError),
		speechtotext.WithEndCallback(callbacks.onEnd),
	)
}

func (s *speechInput) stop() {
	if !s.available() {
		return
	}

	if err := s.recognizer.Stop(); err != nil {
		logger.Warn("failed to stop recognition", "error", err)
	}
}

type speechInputCallbacks struct {
	onResult  func(string)
	onNoMatch func()
	onError   func(error)
	onEnd     func()
}

// armListening starts a listening session when voice chat waits for input and
// nothing is listening yet.
func (o *Orchestrator) armListening(ctx context.Context) {
	session := &o.session
	if session.voiceMode != VoiceModeListening || session.isListening || !o.speechInput.available() {
		return
	}

	id := session.listenSession + 1
	locale := session.language.Locale()

	err := o.speechInput.start(ctx, locale, speechInputCallbacks{
		onResult: func(transcript string) {
			o.loop.Ingest(recognitionResulted{session: id, transcript: transcript})
		},
		onNoMatch: func() { o.loop.Ingest(recognitionNoMatched{session: id}) },
		onError:   func(err error) { o.loop.Ingest(recognitionFailed{session: id, err: err}) },
		onEnd:     func() { o.loop.Ingest(recognitionEnded{session: id}) },
	})
	switch {
	case errors.Is(err, speechtotext.ErrAlreadyListening):
		logger.Debug("recognition already running, retrying shortly")
		o.scheduleRearm(ctx, rearmRetryDelay)
		return
	case err != nil:
		err = fmt.Errorf("failed to start recognition: %w", err)
		session.recognitionFailures++
		delay := rearmBackoff(session.recognitionFailures)
		logger.Warn(err.Error(), "locale", locale, "retry_in", delay)
		recordError(trace.SpanFromContext(ctx), err)
		o.emitEvent(events.NewUserRecognitionFailed(err))
		o.scheduleRearm(ctx, delay)
		return
	}

	session.listenSession = id
	session.isListening = true
	trace.SpanFromContext(ctx).AddEvent("listening started", trace.WithAttributes(attribute.String("recognition.locale", locale)))
	o.emitEvent(events.NewListeningStarted(locale))
}

// scheduleRearm tries to arm listening again after delay. The attempt is a
// no-op if voice chat has moved on by then.
func (o *Orchestrator) scheduleRearm(ctx context.Context, delay time.Duration) {
	time.AfterFunc(delay, func() {
		o.loop.Ingest(loopFunc(func() {
			o.armListening(ctx)
			o.publish()
		}))
	})
}

func rearmBackoff(failures int) time.Duration {
	delay := rearmRetryDelay
	for i := 1; i < failures && delay < maxRearmRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, maxRearmRetryDelay)
}

func (o *Orchestrator) stopListening() {
	o.speechInput.stop()
}

func (o *Orchestrator) handleRecognitionResult(ctx context.Context, event recognitionResulted) {
	session := &o.session
	if event.session != session.listenSession {
		return
	}

	session.recognitionFailures = 0
	transcript := strings.TrimSpace(event.transcript)
	o.emitEvent(events.NewUserTranscriptFinal(transcript))
	if transcript == "" {
		return
	}

	if session.voiceMode != VoiceModeListening || session.isLoading {
		logger.Debug("dropping transcript while a turn is in flight", "voice_mode", session.voiceMode.String())
		return
	}

	o.startTurn(ctx, transcript, true)
}

func (o *Orchestrator) handleRecognitionNoMatch(event recognitionNoMatched) {
	if event.session != o.session.listenSession {
		return
	}
	o.session.recognitionFailures = 0
	o.emitEvent(events.NewUserRecognitionNoMatch())
}

func (o *Orchestrator) handleRecognitionError(ctx context.Context, event recognitionFailed) {
	if event.session != o.session.listenSession {
		return
	}
	if errors.Is(event.err, speechtotext.ErrNoSpeech) || errors.Is(event.err, speechtotext.ErrAborted) {
		return
	}

	o.session.recognitionFailures++
	logger.Warn("speech recognition failed", "error", event.err)
	recordError(trace.SpanFromContext(ctx), fmt.Errorf("speech recognition failed: %w", event.err))
	o.emitEvent(events.NewUserRecognitionFailed(event.err))
}

func (o *Orchestrator) handleRecognitionEnded(ctx context.Context, event recognitionEnded) {
	if event.session != o.session.listenSession {
		return
	}

	o.session.isListening = false
	o.emitEvent(events.NewUserRecognitionEnded())
	if failures := o.session.recognitionFailures; failures > 0 {
		o.scheduleRearm(ctx, rearmBackoff(failures))
		return
	}
	o.armListening(ctx)
}
