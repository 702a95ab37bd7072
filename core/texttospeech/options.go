package texttospeech

import (
	"context"
	"errors"

	"github.com/koscakluka/ema-companion/core/conversations"
)

// ErrSpeechCancelled is returned by Speak when the utterance was stopped
// before it finished playing.
var ErrSpeechCancelled = errors.New("speech cancelled")

// Speaker narrates text. Speak blocks until the utterance has played or was
// cancelled; a new Speak stops the previous utterance first. Cancel is
// idempotent and safe to call while idle.
type Speaker interface {
	Speak(ctx context.Context, text string, language conversations.Language) error
	Cancel() error
}
