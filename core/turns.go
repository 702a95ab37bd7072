package orchestration

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/koscakluka/ema-companion/core/events"
	"github.com/koscakluka/ema-companion/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// activeTurn is the turn currently in flight. Workers started for it carry
// its epoch; anything they report under another epoch is stale.
type activeTurn struct {
	id            string
	epoch         uint64
	placeholderID int64
	fromSpeech    bool
	response      strings.Builder

	ctx    context.Context
	cancel context.CancelFunc
	span   trace.Span
}

func (o *Orchestrator) handleSubmit(ctx context.Context, text string) {
	if o.session.isLoading || strings.TrimSpace(text) == "" {
		return
	}

	o.startTurn(ctx, text, false)
}

func (o *Orchestrator) startTurn(ctx context.Context, text string, fromSpeech bool) {
	session := &o.session
	o.cancelTurn()

	session.epoch++
	session.conversation.append(text, conversations.SenderUser)
	placeholderID := session.conversation.append("", conversations.SenderCompanion)
	session.isLoading = true
	session.lastError = ""
	session.turns++
	session.voiceMode = transition(session.voiceMode, triggerTurnStarted)

	turnCtx, cancel := context.WithCancel(ctx)
	turnCtx, span := tracer.Start(turnCtx, "assistant turn")
	turn := &activeTurn{
		id:            uuid.NewString(),
		epoch:         session.epoch,
		placeholderID: placeholderID,
		fromSpeech:    fromSpeech,
		ctx:           turnCtx,
		cancel:        cancel,
		span:          span,
	}
	span.SetAttributes(
		attribute.String("assistant_turn.id", turn.id),
		attribute.String("assistant_turn.language", string(session.language)),
		attribute.Bool("assistant_turn.from_speech", fromSpeech),
		attribute.Int("assistant_turn.history", len(session.conversation.messages)-1),
	)
	session.turn = turn

	o.publish()
	o.emitEvent(events.NewTurnStarted(turn.id, fromSpeech))
	o.emitEvent(events.NewUserTextSubmitted(turn.id, text))

	if o.responses == nil {
		o.loop.Ingest(responseStreamEnded{epoch: turn.epoch, err: ErrNotConfigured})
		return
	}

	stream := o.responses.StreamResponse(session.conversation.history(placeholderID), session.language)
	go o.consumeResponse(turn.ctx, turn.epoch, stream)
}

// consumeResponse forwards stream deltas to the event loop.
func (o *Orchestrator) consumeResponse(ctx context.Context, epoch uint64, stream llms.Stream) {
	run := panicSafeNamedWorker("response stream", func(ctx context.Context) error {
		for chunk, err := range stream.Chunks(ctx) {
			if err != nil {
				return err
			}
			if chunk == "" {
				continue
			}
			o.loop.Ingest(responseChunkReceived{epoch: epoch, chunk: chunk})
		}
		return ctx.Err()
	})

	o.loop.Ingest(responseStreamEnded{epoch: epoch, err: run(ctx)})
}

func (o *Orchestrator) currentTurn(epoch uint64) *activeTurn {
	turn := o.session.turn
	if turn == nil || turn.epoch != epoch {
		return nil
	}
	return turn
}

func (o *Orchestrator) handleResponseChunk(event responseChunkReceived) {
	turn := o.currentTurn(event.epoch)
	if turn == nil {
		return
	}

	turn.response.WriteString(event.chunk)
	o.session.conversation.update(turn.placeholderID, turn.response.String(), false)
	o.publish()
	o.emitEvent(events.NewAssistantResponseSegment(turn.id, event.chunk))
}

func (o *Orchestrator) handleResponseStreamEnded(event responseStreamEnded) {
	turn := o.currentTurn(event.epoch)
	if turn == nil {
		return
	}

	if event.err != nil {
		if llms.IsCancellation(turn.ctx, event.err) {
			o.cancelTurn()
			return
		}
		o.failTurn(turn, event.err)
		return
	}

	response := turn.response.String()
	turn.span.SetAttributes(attribute.Int("assistant_turn.response_length", len(response)))
	o.emitEvent(events.NewAssistantResponseFinal(turn.id, response))

	if o.session.voiceMode.IsActive() && response != "" && o.speechOutput.available() {
		o.startSpeaking(turn, response)
		return
	}

	o.completeTurn(turn)
}

func (o *Orchestrator) startSpeaking(turn *activeTurn, text string) {
	language := o.session.language
	o.session.isSpeaking = true
	o.publish()
	o.emitEvent(events.NewAssistantSpeechStarted(turn.id, string(language)))

	go func() {
		ctx, span := tracer.Start(turn.ctx, "speak response")
		defer span.End()
		span.SetAttributes(attribute.String("speech.language", string(language)))

		run := panicSafeNamedWorker("speech playback", func(ctx context.Context) error {
			return o.speechOutput.speak(ctx, text, language)
		})
		err := run(ctx)
		if err != nil && !isSpeechCancellation(ctx, err) {
			recordError(span, err)
		}
		o.loop.Ingest(speechPlaybackEnded{epoch: turn.epoch, err: err})
	}()
}

func (o *Orchestrator) handleSpeechPlaybackEnded(event speechPlaybackEnded) {
	turn := o.currentTurn(event.epoch)
	if turn == nil {
		return
	}

	o.session.isSpeaking = false
	cancelled := event.err != nil && isSpeechCancellation(turn.ctx, event.err)
	o.emitEvent(events.NewAssistantSpeechEnded(turn.id, cancelled))

	if event.err != nil && !cancelled {
		o.failTurn(turn, event.err)
		return
	}
	o.completeTurn(turn)
}

func (o *Orchestrator) completeTurn(turn *activeTurn) {
	o.emitEvent(events.NewTurnCompleted(turn.id))
	o.finishTurn(turn)
}

// failTurn replaces the placeholder with the fallback message. The cause is
// only logged and traced.
func (o *Orchestrator) failTurn(turn *activeTurn, err error) {
	logger.Error("assistant turn failed", "turn_id", turn.id, "error", err)
	recordError(turn.span, err)

	var serverErr *llms.ServerError
	if errors.As(err, &serverErr) {
		turn.span.SetAttributes(attribute.Int("assistant_turn.status_code", serverErr.StatusCode))
	}

	o.session.lastError = o.fallbackMessage
	o.session.conversation.update(turn.placeholderID, o.fallbackMessage, true)
	o.emitEvent(events.NewTurnFailed(turn.id, err))
	o.finishTurn(turn)
}

func (o *Orchestrator) finishTurn(turn *activeTurn) {
	session := &o.session
	turn.cancel()
	turn.span.End()

	session.turn = nil
	session.isLoading = false
	session.isSpeaking = false
	session.voiceMode = transition(session.voiceMode, triggerTurnFinished)

	o.armListening(o.baseContext)
	o.publish()
}

// cancelTurn abandons the turn in flight, if any. Its workers are cancelled
// and whatever they still report is dropped.
func (o *Orchestrator) cancelTurn() {
	session := &o.session
	turn := session.turn
	if turn == nil {
		return
	}

	turn.cancel()
	turn.span.AddEvent("turn cancelled")
	turn.span.End()

	session.turn = nil
	session.epoch++
	session.isLoading = false
	session.isSpeaking = false
	o.emitEvent(events.NewTurnCancelled(turn.id))
}
