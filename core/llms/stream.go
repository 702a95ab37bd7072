package llms

import (
	"context"
	"iter"

	"github.com/koscakluka/ema-companion/core/conversations"
)

// Stream is a lazily consumed, non-restartable sequence of response text
// deltas. Deltas are yielded in arrival order.
//
// A stream whose context is cancelled ends without yielding an error.
type Stream interface {
	Chunks(ctx context.Context) iter.Seq2[string, error]
}

// ResponseStreamer produces a companion response for a conversation in the
// given language.
type ResponseStreamer interface {
	StreamResponse(messages []conversations.Message, language conversations.Language) Stream
}

// StreamFunc adapts a plain function into a [Stream].
type StreamFunc func(ctx context.Context) iter.Seq2[string, error]

func (f StreamFunc) Chunks(ctx context.Context) iter.Seq2[string, error] {
	return f(ctx)
}

// Collect drains the stream and returns the concatenated text.
func Collect(ctx context.Context, stream Stream) (string, error) {
	var text string
	for chunk, err := range stream.Chunks(ctx) {
		if err != nil {
			return text, err
		}
		text += chunk
	}
	return text, nil
}
