package deepgram

import (
	"fmt"
	"slices"

	"github.com/koscakluka/ema-companion/core/conversations"
)

type Voice string

const defaultVoice Voice = "aura-2-thalia-en"

func GetAvailableVoices() []Voice {
	return []Voice{
		"aura-2-thalia-en",
		"aura-2-andromeda-en",
		"aura-2-helena-en",
		"aura-2-luna-en",
		"aura-2-asteria-en",
		"aura-2-athena-en",
		"aura-2-hera-en",
		"aura-asteria-en",
		"aura-luna-en",
		"aura-stella-en",
	}
}

func ParseVoice(raw string) (Voice, error) {
	voice := Voice(raw)
	if !slices.Contains(GetAvailableVoices(), voice) {
		return "", fmt.Errorf("unknown voice %q", raw)
	}
	return voice, nil
}

// voiceFor picks the configured voice for language, falling back to the
// default voice when none is configured.
func (s *Speaker) voiceFor(language conversations.Language) Voice {
	if voice, ok := s.voices[language]; ok {
		return voice
	}

	logger.Warn("no voice configured for language, using default voice", "language", string(language), "voice", string(defaultVoice))
	return defaultVoice
}
