package speechtotext

import (
	"errors"
	"sync"
)

// Session enforces the single utterance contract for recognizer
// implementations: the first outcome reported wins, later ones are ignored,
// and the end callback follows exactly once.
type Session struct {
	options RecognitionOptions

	once sync.Once
	done chan struct{}
}

func NewSession(options RecognitionOptions) *Session {
	return &Session{options: options, done: make(chan struct{})}
}

func (s *Session) Options() RecognitionOptions { return s.options }

// Done is closed once the session has ended.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Result(transcript string) bool {
	return s.finish(func() { s.options.ResultCallback(transcript) })
}

func (s *Session) NoMatch() bool {
	return s.finish(s.options.NoMatchCallback)
}

// Fail reports err. [ErrNoSpeech] is reported as a no-match.
func (s *Session) Fail(err error) bool {
	if errors.Is(err, ErrNoSpeech) {
		return s.NoMatch()
	}
	return s.finish(func() { s.options.ErrorCallback(err) })
}

func (s *Session) finish(report func()) (finished bool) {
	s.once.Do(func() {
		finished = true
		close(s.done)
		report()
		s.options.EndCallback()
	})
	return finished
}
