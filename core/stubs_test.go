package orchestration

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/koscakluka/ema-companion/core/llms"
	"github.com/koscakluka/ema-companion/core/speechtotext"
	"github.com/koscakluka/ema-companion/core/texttospeech"
)

func waitForCondition(t *testing.T, timeout time.Duration, description string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for %s", description)
}

// flushLoop waits until everything queued so far has been handled.
func flushLoop(t *testing.T, o *Orchestrator) {
	t.Helper()

	done := make(chan struct{})
	o.loop.Ingest(loopFunc(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event loop")
	}
}

func startOrchestrator(t *testing.T, o *Orchestrator, opts ...OrchestrateOption) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		o.Close()
	})
	o.Orchestrate(ctx, opts...)
}

type streamCall struct {
	messages []conversations.Message
	language conversations.Language
}

type stubStreamer struct {
	mu    sync.Mutex
	calls []streamCall
	next  func(call int) llms.Stream
}

func (s *stubStreamer) StreamResponse(messages []conversations.Message, language conversations.Language) llms.Stream {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, streamCall{messages: messages, language: language})
	return s.next(len(s.calls))
}

func (s *stubStreamer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubStreamer) call(i int) streamCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i]
}

func staticStream(chunks ...string) llms.Stream {
	return llms.StreamFunc(func(context.Context) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			for _, chunk := range chunks {
				if !yield(chunk, nil) {
					return
				}
			}
		}
	})
}

func failingStream(err error) llms.Stream {
	return llms.StreamFunc(func(context.Context) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) { yield("", err) }
	})
}

// controlledStream yields whatever the test sends and ends when chunks is
// closed.
type controlledStream struct {
	chunks       chan string
	ignoreCancel bool

	cancelled chan struct{}
	finished  chan struct{}
}

func newControlledStream() *controlledStream {
	return &controlledStream{
		chunks:    make(chan string),
		cancelled: make(chan struct{}),
		finished:  make(chan struct{}),
	}
}

func (s *controlledStream) Chunks(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer close(s.finished)

		for {
			var chunk string
			var ok bool
			if s.ignoreCancel {
				chunk, ok = <-s.chunks
			} else {
				select {
				case <-ctx.Done():
					close(s.cancelled)
					return
				case chunk, ok = <-s.chunks:
				}
			}

			if !ok || !yield(chunk, nil) {
				return
			}
		}
	}
}

type stubSpeaker struct {
	mu      sync.Mutex
	calls   []string
	cancels int
	active  chan struct{}

	// release blocks Speak until closed. Speak returns right away when nil.
	release chan struct{}
	err     error
}

func (s *stubSpeaker) Speak(ctx context.Context, text string, _ conversations.Language) error {
	s.mu.Lock()
	s.calls = append(s.calls, text)
	stop := make(chan struct{})
	s.active = stop
	release, err := s.release, s.err
	s.mu.Unlock()

	if release == nil {
		return err
	}

	select {
	case <-release:
		return err
	case <-stop:
		return texttospeech.ErrSpeechCancelled
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stubSpeaker) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancels++
	if s.active != nil {
		close(s.active)
		s.active = nil
	}
	return nil
}

func (s *stubSpeaker) spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stubSpeaker) cancelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}

type stubRecognizer struct {
	mu      sync.Mutex
	starts  int
	stops   int
	locales []string
	session *speechtotext.Session

	// failStarts makes that many Start calls fail before any succeeds.
	failStarts int
	failed     int
}

func (r *stubRecognizer) Start(_ context.Context, opts ...speechtotext.RecognitionOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		select {
		case <-r.session.Done():
		default:
			return speechtotext.ErrAlreadyListening
		}
	}

	if r.failed < r.failStarts {
		r.failed++
		return errStubDial
	}

	options := speechtotext.NewRecognitionOptions(opts...)
	r.starts++
	r.locales = append(r.locales, options.Locale)
	r.session = speechtotext.NewSession(options)
	return nil
}

func (r *stubRecognizer) Stop() error {
	r.mu.Lock()
	r.stops++
	session := r.session
	r.mu.Unlock()

	if session != nil {
		session.Fail(speechtotext.ErrAborted)
	}
	return nil
}

var errStubDial = errors.New("dial failed")

func (r *stubRecognizer) failedStarts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

func (r *stubRecognizer) current() *speechtotext.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

func (r *stubRecognizer) startCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

func (r *stubRecognizer) stopCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

func (r *stubRecognizer) locale(i int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locales[i]
}
