package conversations

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Language selects the conversation language. It drives localized strings,
// the companion prompt and the speech locales.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"

	DefaultLanguage = LanguageEnglish
)

func Languages() []Language {
	return []Language{LanguageEnglish, LanguageHindi}
}

func ParseLanguage(raw string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(raw))) {
	case LanguageEnglish:
		return LanguageEnglish, nil
	case LanguageHindi:
		return LanguageHindi, nil
	}

	return "", fmt.Errorf("unsupported language %q", raw)
}

func (l Language) IsValid() bool {
	return l == LanguageEnglish || l == LanguageHindi
}

// Locale returns the BCP 47 tag used by the speech engines.
func (l Language) Locale() string {
	if l == LanguageHindi {
		return "hi-IN"
	}
	return "en-US"
}

// Next returns the other supported language.
func (l Language) Next() Language {
	if l == LanguageHindi {
		return LanguageEnglish
	}
	return LanguageHindi
}

func (l *Language) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("language must be a string: %w", err)
	}

	language, err := ParseLanguage(raw)
	if err != nil {
		return err
	}

	*l = language
	return nil
}
