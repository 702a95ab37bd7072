package speechtotext

import (
	"errors"
	"testing"
)

type sessionRecorder struct {
	results  []string
	noMatch  int
	errors   []error
	ended    int
	sequence []string
}

func (r *sessionRecorder) options() RecognitionOptions {
	return NewRecognitionOptions(
		WithResultCallback(func(transcript string) {
			r.results = append(r.results, transcript)
			r.sequence = append(r.sequence, "result")
		}),
		WithNoMatchCallback(func() {
			r.noMatch++
			r.sequence = append(r.sequence, "no-match")
		}),
		WithErrorCallback(func(err error) {
			r.errors = append(r.errors, err)
			r.sequence = append(r.sequence, "error")
		}),
		WithEndCallback(func() {
			r.ended++
			r.sequence = append(r.sequence, "end")
		}),
	)
}

func TestSessionReportsOnlyFirstOutcome(t *testing.T) {
	recorder := &sessionRecorder{}
	session := NewSession(recorder.options())

	if !session.Result("hello") {
		t.Fatalf("expected first outcome to finish the session")
	}
	if session.Fail(errors.New("late")) {
		t.Fatalf("expected later outcome to be ignored")
	}
	session.NoMatch()

	if len(recorder.results) != 1 || recorder.results[0] != "hello" {
		t.Fatalf("expected single result, got %v", recorder.results)
	}
	if len(recorder.errors) != 0 || recorder.noMatch != 0 {
		t.Fatalf("expected no other outcomes, got errors %v and %d no-matches", recorder.errors, recorder.noMatch)
	}
	if recorder.ended != 1 {
		t.Fatalf("expected end once, got %d", recorder.ended)
	}
	if got := recorder.sequence; len(got) != 2 || got[0] != "result" || got[1] != "end" {
		t.Fatalf("expected end to follow the result, got %v", got)
	}

	select {
	case <-session.Done():
	default:
		t.Fatalf("expected session to be done")
	}
}

func TestSessionReportsNoSpeechAsNoMatch(t *testing.T) {
	recorder := &sessionRecorder{}
	session := NewSession(recorder.options())

	session.Fail(ErrNoSpeech)

	if recorder.noMatch != 1 || len(recorder.errors) != 0 || recorder.ended != 1 {
		t.Fatalf("expected no-match then end, got %v", recorder.sequence)
	}
}

func TestRecognitionOptionsDefaults(t *testing.T) {
	options := NewRecognitionOptions(WithLocale(""), WithNoSpeechTimeout(0))

	if options.Locale != "en-US" {
		t.Fatalf("expected default locale, got %q", options.Locale)
	}
	if options.NoSpeechTimeout != DefaultNoSpeechTimeout {
		t.Fatalf("expected default timeout, got %s", options.NoSpeechTimeout)
	}

	options.ResultCallback("ignored")
	options.NoMatchCallback()
	options.ErrorCallback(errors.New("ignored"))
	options.EndCallback()
}
