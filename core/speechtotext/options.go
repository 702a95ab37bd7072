package speechtotext

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAlreadyListening is returned by Start while a session is active.
	ErrAlreadyListening = errors.New("recognition already running")
	// ErrNoSpeech reports that the session ended without recognizing speech.
	ErrNoSpeech = errors.New("no speech detected")
	// ErrAborted reports that the session was stopped deliberately.
	ErrAborted = errors.New("recognition aborted")
)

const DefaultNoSpeechTimeout = 8 * time.Second

type RecognitionOptions struct {
	// Locale is the BCP 47 tag of the spoken language, e.g. "en-US".
	Locale string
	// NoSpeechTimeout ends the session with a no-match when nothing was
	// recognized in time.
	NoSpeechTimeout time.Duration

	ResultCallback  func(transcript string)
	NoMatchCallback func()
	ErrorCallback   func(error)
	// EndCallback runs last, once per session, whatever the outcome.
	EndCallback func()
}

type RecognitionOption func(*RecognitionOptions)

func NewRecognitionOptions(opts ...RecognitionOption) RecognitionOptions {
	options := RecognitionOptions{
		Locale:          "en-US",
		NoSpeechTimeout: DefaultNoSpeechTimeout,
		ResultCallback:  func(string) {},
		NoMatchCallback: func() {},
		ErrorCallback:   func(error) {},
		EndCallback:     func() {},
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithLocale(locale string) RecognitionOption {
	return func(o *RecognitionOptions) {
		if locale != "" {
			o.Locale = locale
		}
	}
}

func WithNoSpeechTimeout(timeout time.Duration) RecognitionOption {
	return func(o *RecognitionOptions) {
		if timeout > 0 {
			o.NoSpeechTimeout = timeout
		}
	}
}

func WithResultCallback(callback func(transcript string)) RecognitionOption {
	return func(o *RecognitionOptions) {
		if callback != nil {
			o.ResultCallback = callback
		}
	}
}

func WithNoMatchCallback(callback func()) RecognitionOption {
	return func(o *RecognitionOptions) {
		if callback != nil {
			o.NoMatchCallback = callback
		}
	}
}

func WithErrorCallback(callback func(error)) RecognitionOption {
	return func(o *RecognitionOptions) {
		if callback != nil {
			o.ErrorCallback = callback
		}
	}
}

func WithEndCallback(callback func()) RecognitionOption {
	return func(o *RecognitionOptions) {
		if callback != nil {
			o.EndCallback = callback
		}
	}
}

// Recognizer listens for a single utterance per Start. Start fails with
// [ErrAlreadyListening] while a session is active.
type Recognizer interface {
	Start(ctx context.Context, opts ...RecognitionOption) error
	Stop() error
}
