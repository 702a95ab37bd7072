package events

const (
	KindVoiceChatToggled Kind = "session.voice_chat_toggled"
	KindLanguageChanged  Kind = "session.language_changed"
	KindListeningStarted Kind = "session.listening_started"
)

type VoiceChatToggled struct {
	Base
	Active bool
}

func NewVoiceChatToggled(active bool) VoiceChatToggled {
	return VoiceChatToggled{Base: NewBase(KindVoiceChatToggled), Active: active}
}

type LanguageChanged struct {
	Base
	Language string
}

func NewLanguageChanged(language string) LanguageChanged {
	return LanguageChanged{Base: NewBase(KindLanguageChanged), Language: language}
}

type ListeningStarted struct {
	Base
	Locale string
}

func NewListeningStarted(locale string) ListeningStarted {
	return ListeningStarted{Base: NewBase(KindListeningStarted), Locale: locale}
}
