package orchestration

import (
	"context"
	"errors"

	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/koscakluka/ema-companion/core/llms"
	"github.com/koscakluka/ema-companion/core/texttospeech"
)

// speechOutput is the speaker facade used to handle optional wiring.
type speechOutput struct {
	speaker texttospeech.Speaker
}

func (s *speechOutput) set(speaker texttospeech.Speaker) {
	s.speaker = speaker
}

func (s *speechOutput) available() bool {
	return s != nil && s.speaker != nil
}

func (s *speechOutput) speak(ctx context.Context, text string, language conversations.Language) error {
	if !s.available() {
		return ErrNotConfigured
	}
	return s.speaker.Speak(ctx, text, language)
}

func (s *speechOutput) cancel() {
	if !s.available() {
		return
	}

	if err := s.speaker.Cancel(); err != nil {
		logger.Warn("failed to cancel speech", "error", err)
	}
}

// isSpeechCancellation reports whether err only says playback was cut short,
// either by the speaker or because the turn itself was cancelled.
func isSpeechCancellation(ctx context.Context, err error) bool {
	return errors.Is(err, texttospeech.ErrSpeechCancelled) || llms.IsCancellation(ctx, err)
}
