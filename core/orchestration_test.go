package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/koscakluka/ema-companion/core/events"
	"github.com/koscakluka/ema-companion/core/llms"
	"github.com/koscakluka/ema-companion/core/prompts"
)

func TestSubmitUserTextAppendsUserMessageAndPlaceholder(t *testing.T) {
	stream := newControlledStream()
	streamer := &stubStreamer{next: func(int) llms.Stream { return stream }}
	o := NewOrchestrator(WithResponseClient(streamer))
	startOrchestrator(t, o)

	o.SubmitUserText("Hello")
	waitForCondition(t, 2*time.Second, "turn to start", func() bool { return o.State().IsLoading })

	state := o.State()
	if len(state.Messages) != 2 {
		t.Fatalf("expected user message and placeholder, got %+v", state.Messages)
	}
	if user := state.Messages[0]; !user.IsFromUser() || user.Text != "Hello" {
		t.Fatalf("unexpected user message: %+v", user)
	}
	if placeholder := state.Messages[1]; !placeholder.IsFromCompanion() || placeholder.Text != "" || placeholder.IsError {
		t.Fatalf("unexpected placeholder: %+v", placeholder)
	}
	if state.Messages[1].ID <= state.Messages[0].ID {
		t.Fatalf("expected increasing ids, got %d then %d", state.Messages[0].ID, state.Messages[1].ID)
	}

	waitForCondition(t, 2*time.Second, "request", func() bool { return streamer.callCount() == 1 })
	call := streamer.call(0)
	if len(call.messages) != 1 || call.messages[0].Text != "Hello" {
		t.Fatalf("expected payload with only the user message, got %+v", call.messages)
	}
	if call.language != conversations.LanguageEnglish {
		t.Fatalf("expected english payload, got %q", call.language)
	}
}

func TestSubmitUserTextIgnoresBlankText(t *testing.T) {
	streamer := &stubStreamer{next: func(int) llms.Stream { return staticStream("unused") }}
	o := NewOrchestrator(WithResponseClient(streamer))
	startOrchestrator(t, o)

	o.SubmitUserText("")
	o.SubmitUserText("   \n\t")
	flushLoop(t, o)

	state := o.State()
	if len(state.Messages) != 0 || state.IsLoading || state.Turns != 0 {
		t.Fatalf("expected blank input to be ignored, got %+v", state)
	}
	if streamer.callCount() != 0 {
		t.Fatalf("expected no request, got %d", streamer.callCount())
	}
}

func TestSubmitUserTextIgnoredWhileLoading(t *testing.T) {
	stream := newControlledStream()
	streamer := &stubStreamer{next: func(int) llms.Stream { return stream }}
	o := NewOrchestrator(WithResponseClient(streamer))
	startOrchestrator(t, o)

	o.SubmitUserText("first")
	waitForCondition(t, 2*time.Second, "turn to start", func() bool { return o.State().IsLoading })

	o.SubmitUserText("second")
	flushLoop(t, o)

	state := o.State()
	if len(state.Messages) != 2 || state.Turns != 1 {
		t.Fatalf("expected second submission to be ignored, got %+v", state.Messages)
	}
	if streamer.callCount() != 1 {
		t.Fatalf("expected a single request, got %d", streamer.callCount())
	}
}

func TestQueuedSubmissionBeforeOrchestrateIsProcessed(t *testing.T) {
	streamer := &stubStreamer{next: func(int) llms.Stream { return staticStream("queued response") }}
	o := NewOrchestrator(WithResponseClient(streamer))
	o.SubmitUserText("queued prompt")

	responseEnded := make(chan struct{}, 1)
	startOrchestrator(t, o, WithResponseEndCallback(func() {
		select {
		case responseEnded <- struct{}{}:
		default:
		}
	}))

	select {
	case <-responseEnded:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for queued prompt to finish")
	}

	waitForCondition(t, 2*time.Second, "turn to finish", func() bool { return !o.State().IsLoading })
	if got := o.State().Messages[1].Text; got != "queued response" {
		t.Fatalf("expected queued response, got %q", got)
	}
}

func TestStreamedChunksRenderInOrder(t *testing.T) {
	stream := newControlledStream()
	streamer := &stubStreamer{next: func(int) llms.Stream { return stream }}
	o := NewOrchestrator(WithResponseClient(streamer))

	var mu sync.Mutex
	var rendered []string
	startOrchestrator(t, o, WithStateCallback(func(state State) {
		if len(state.Messages) != 2 || state.Messages[1].Text == "" {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if text := state.Messages[1].Text; len(rendered) == 0 || rendered[len(rendered)-1] != text {
			rendered = append(rendered, text)
		}
	}))

	o.SubmitUserText("Hi")
	stream.chunks <- "Hel"
	waitForCondition(t, 2*time.Second, "first chunk", func() bool {
		messages := o.State().Messages
		return len(messages) == 2 && messages[1].Text == "Hel"
	})

	stream.chunks <- "lo!"
	close(stream.chunks)
	waitForCondition(t, 2*time.Second, "turn to finish", func() bool {
		state := o.State()
		return !state.IsLoading && len(state.Messages) == 2 && state.Messages[1].Text == "Hello!"
	})

	mu.Lock()
	defer mu.Unlock()
	if len(rendered) != 2 || rendered[0] != "Hel" || rendered[1] != "Hello!" {
		t.Fatalf("expected placeholder to render Hel then Hello!, got %q", rendered)
	}
}

func TestCompletedTurnRendersResponseAndNotifiesCallbacks(t *testing.T) {
	streamer := &stubStreamer{next: func(int) llms.Stream { return staticStream("Hi", " there!") }}
	o := NewOrchestrator(WithResponseClient(streamer))

	var mu sync.Mutex
	var segments []string
	var kinds []events.Kind
	responseEnds := 0
	startOrchestrator(t, o,
		WithResponseCallback(func(segment string) {
			mu.Lock()
			defer mu.Unlock()
			segments = append(segments, segment)
		}),
		WithResponseEndCallback(func() {
			mu.Lock()
			defer mu.Unlock()
			responseEnds++
		}),
		WithEventCallback(func(event events.Event) {
			mu.Lock()
			defer mu.Unlock()
			kinds = append(kinds, event.Kind())
		}),
	)

	o.SubmitUserText("Hello")
	waitForCondition(t, 2*time.Second, "turn to finish", func() bool {
		state := o.State()
		return state.Turns == 1 && !state.IsLoading
	})

	state := o.State()
	if len(state.Messages) != 2 || state.Messages[0].Text != "Hello" || state.Messages[1].Text != "Hi there!" {
		t.Fatalf("unexpected conversation: %+v", state.Messages)
	}
	if state.LastError != "" || state.Messages[1].IsError {
		t.Fatalf("expected no error, got %+v", state)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(segments) != 2 || segments[0] != "Hi" || segments[1] != " there!" {
		t.Fatalf("unexpected segments: %q", segments)
	}
	if responseEnds != 1 {
		t.Fatalf("expected one response end, got %d", responseEnds)
	}
	if len(kinds) == 0 || kinds[0] != events.KindTurnStarted || kinds[len(kinds)-1] != events.KindTurnCompleted {
		t.Fatalf("expected turn started ... turn completed, got %v", kinds)
	}
}

func TestServerErrorShowsFallbackMessage(t *testing.T) {
	streamer := &stubStreamer{next: func(int) llms.Stream {
		return failingStream(&llms.ServerError{StatusCode: 500, Message: "upstream exploded"})
	}}
	o := NewOrchestrator(WithResponseClient(streamer))

	failures := make(chan error, 1)
	startOrchestrator(t, o, WithEventCallback(func(event events.Event) {
		if failed, ok := event.(events.TurnFailed); ok {
			failures <- failed.Err
		}
	}))

	o.SubmitUserText("Hello")
	waitForCondition(t, 2*time.Second, "turn to fail", func() bool {
		state := o.State()
		return state.Turns == 1 && !state.IsLoading
	})

	state := o.State()
	if state.LastError != prompts.FallbackMessage {
		t.Fatalf("expected fallback as last error, got %q", state.LastError)
	}
	placeholder := state.Messages[1]
	if placeholder.Text != prompts.FallbackMessage || !placeholder.IsError {
		t.Fatalf("expected placeholder to show the fallback, got %+v", placeholder)
	}
	if !state.ShowError() {
		t.Fatalf("expected error banner once loading cleared")
	}

	select {
	case err := <-failures:
		var serverErr *llms.ServerError
		if !errors.As(err, &serverErr) || serverErr.StatusCode != 500 {
			t.Fatalf("expected server error cause, got %v", err)
		}
	default:
		t.Fatalf("expected a turn failed event")
	}
}

func TestNetworkErrorUsesConfiguredFallback(t *testing.T) {
	streamer := &stubStreamer{next: func(int) llms.Stream {
		return failingStream(&llms.NetworkError{Err: errors.New("connection refused")})
	}}
	o := NewOrchestrator(WithResponseClient(streamer), WithFallbackMessage("Try again later."))
	startOrchestrator(t, o)

	o.SubmitUserText("Hello")
	waitForCondition(t, 2*time.Second, "turn to fail", func() bool {
		state := o.State()
		return state.Turns == 1 && !state.IsLoading
	})

	if got := o.State().Messages[1].Text; got != "Try again later." {
		t.Fatalf("expected configured fallback, got %q", got)
	}
}

func TestMissingResponseClientFailsTurn(t *testing.T) {
	o := NewOrchestrator()
	startOrchestrator(t, o)

	o.SubmitUserText("Hello")
	waitForCondition(t, 2*time.Second, "turn to fail", func() bool {
		state := o.State()
		return state.Turns == 1 && !state.IsLoading
	})

	if o.State().LastError != prompts.FallbackMessage {
		t.Fatalf("expected fallback message, got %q", o.State().LastError)
	}
}

func TestNextSubmissionClearsLastError(t *testing.T) {
	second := newControlledStream()
	streamer := &stubStreamer{next: func(call int) llms.Stream {
		if call == 1 {
			return failingStream(errors.New("boom"))
		}
		return second
	}}
	o := NewOrchestrator(WithResponseClient(streamer))
	startOrchestrator(t, o)

	o.SubmitUserText("first")
	waitForCondition(t, 2*time.Second, "first turn to fail", func() bool { return o.State().LastError != "" })

	o.SubmitUserText("second")
	waitForCondition(t, 2*time.Second, "second turn to start", func() bool { return o.State().Turns == 2 })

	if state := o.State(); state.LastError != "" || !state.IsLoading {
		t.Fatalf("expected error cleared while loading, got %+v", state)
	}
	close(second.chunks)
}

func TestChangeLanguageResetsConversationAndCancelsTurn(t *testing.T) {
	stream := newControlledStream()
	streamer := &stubStreamer{next: func(int) llms.Stream { return stream }}
	o := NewOrchestrator(WithResponseClient(streamer))

	cancellations := make(chan struct{}, 1)
	startOrchestrator(t, o, WithCancellationCallback(func() { cancellations <- struct{}{} }))

	o.SubmitUserText("Hello")
	waitForCondition(t, 2*time.Second, "turn to start", func() bool { return o.State().IsLoading })

	o.ChangeLanguage(conversations.LanguageHindi)
	waitForCondition(t, 2*time.Second, "language change", func() bool {
		return o.State().Language == conversations.LanguageHindi
	})

	state := o.State()
	if len(state.Messages) != 0 || state.IsLoading || state.VoiceChatActive || state.LastError != "" {
		t.Fatalf("expected a fresh session, got %+v", state)
	}

	select {
	case <-stream.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected in-flight request to be cancelled")
	}
	select {
	case <-cancellations:
	default:
		t.Fatalf("expected cancellation callback")
	}
}

func TestChangeLanguageIgnoresUnknownLanguage(t *testing.T) {
	streamer := &stubStreamer{next: func(int) llms.Stream { return staticStream("Hi") }}
	o := NewOrchestrator(WithResponseClient(streamer))
	startOrchestrator(t, o)

	o.SubmitUserText("Hello")
	waitForCondition(t, 2*time.Second, "turn to finish", func() bool {
		state := o.State()
		return state.Turns == 1 && !state.IsLoading
	})

	o.ChangeLanguage(conversations.Language("fr"))
	flushLoop(t, o)

	if state := o.State(); state.Language != conversations.LanguageEnglish || len(state.Messages) != 2 {
		t.Fatalf("expected unknown language to be ignored, got %+v", state)
	}
}

func TestStaleChunksAfterSupersessionAreDropped(t *testing.T) {
	first := newControlledStream()
	first.ignoreCancel = true
	second := newControlledStream()
	streamer := &stubStreamer{next: func(call int) llms.Stream {
		if call == 1 {
			return first
		}
		return second
	}}
	o := NewOrchestrator(WithResponseClient(streamer))

	var mu sync.Mutex
	var segments []string
	startOrchestrator(t, o, WithResponseCallback(func(segment string) {
		mu.Lock()
		defer mu.Unlock()
		segments = append(segments, segment)
	}))

	o.SubmitUserText("first")
	waitForCondition(t, 2*time.Second, "first turn", func() bool { return o.State().IsLoading })

	o.ChangeLanguage(conversations.LanguageHindi)
	o.SubmitUserText("second")
	waitForCondition(t, 2*time.Second, "second turn", func() bool { return o.State().Turns == 2 })

	first.chunks <- "late"
	close(first.chunks)
	<-first.finished

	second.chunks <- "fresh"
	close(second.chunks)
	waitForCondition(t, 2*time.Second, "second turn to finish", func() bool { return !o.State().IsLoading })
	flushLoop(t, o)

	state := o.State()
	if len(state.Messages) != 2 || state.Messages[0].Text != "second" || state.Messages[1].Text != "fresh" {
		t.Fatalf("expected only the second turn, got %+v", state.Messages)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(segments) != 1 || segments[0] != "fresh" {
		t.Fatalf("expected stale segments to be dropped, got %q", segments)
	}
}

func TestCloseBeforeOrchestrateMarksClosed(t *testing.T) {
	o := NewOrchestrator()
	o.Close()

	if !o.closed.Load() {
		t.Fatalf("expected orchestrator to be closed")
	}

	o.Orchestrate(context.Background())
	o.SubmitUserText("ignored")
	if o.loop.started.Load() {
		t.Fatalf("expected closed orchestrator not to start")
	}
}

func TestCancellingContextClosesOrchestrator(t *testing.T) {
	stream := newControlledStream()
	streamer := &stubStreamer{next: func(int) llms.Stream { return stream }}
	o := NewOrchestrator(WithResponseClient(streamer))

	ctx, cancel := context.WithCancel(context.Background())
	o.Orchestrate(ctx)

	o.SubmitUserText("Hello")
	waitForCondition(t, 2*time.Second, "turn to start", func() bool { return o.State().IsLoading })

	cancel()
	select {
	case <-stream.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected request to be aborted on shutdown")
	}
	waitForCondition(t, 2*time.Second, "orchestrator to close", func() bool { return o.closed.Load() })
}

func TestForeignCancellationErrorFailsTurn(t *testing.T) {
	streamer := &stubStreamer{next: func(int) llms.Stream {
		return failingStream(fmt.Errorf("upstream request aborted: %w", context.Canceled))
	}}
	o := NewOrchestrator(WithResponseClient(streamer))
	startOrchestrator(t, o)

	o.SubmitUserText("Hi")
	waitForCondition(t, 2*time.Second, "turn to fail", func() bool {
		state := o.State()
		return state.Turns == 1 && !state.IsLoading
	})

	state := o.State()
	if state.LastError != prompts.FallbackMessage || !state.Messages[1].IsError {
		t.Fatalf("expected fallback for a cancellation the turn did not ask for, got %+v", state)
	}

	o.SubmitUserText("Still there?")
	waitForCondition(t, 2*time.Second, "next turn to run", func() bool {
		return o.State().Turns == 2
	})
}
