package prompts

import "github.com/koscakluka/ema-companion/core/conversations"

// UIText is the set of localized strings the presentation layer renders.
type UIText struct {
	StartConversation    string
	HowAreYouFeeling     string
	ShareWhatsOnYourMind string
	StartToEnable        string
	Listening            string
	ImAayu               string
	WelcomeMessage       string
	AlwaysHere           string
	StartCall            string
	EndCall              string
	VoiceChatActive      string
	Language             string
	PrivacyNotice        string
}

// QuickStart is a canned opening line offered on the welcome screen.
type QuickStart struct {
	Icon string
	Text string
}

func Text(language conversations.Language) UIText {
	if language == conversations.LanguageHindi {
		return uiTextHindi
	}
	return uiTextEnglish
}

func QuickStarts(language conversations.Language) []QuickStart {
	quickStarts := quickStartsEnglish
	if language == conversations.LanguageHindi {
		quickStarts = quickStartsHindi
	}
	return append([]QuickStart(nil), quickStarts...)
}

// LanguageLabel is the name of the language as shown in the language toggle.
func LanguageLabel(language conversations.Language) string {
	if language == conversations.LanguageHindi {
		return "हिन्दी"
	}
	return "English"
}

var uiTextEnglish = UIText{
	StartConversation:    "Start the conversation",
	HowAreYouFeeling:     "How are you feeling today?",
	ShareWhatsOnYourMind: "Share what's on your mind...",
	StartToEnable:        "Start a conversation to enable input...",
	Listening:            "Listening...",
	ImAayu:               "I'm Aayu",
	WelcomeMessage:       "Whatever is on your mind, I'm here to hold space for you. Let's talk it through, gently.",
	AlwaysHere:           "Always here for you",
	StartCall:            "Start voice chat",
	EndCall:              "End voice chat",
	VoiceChatActive:      "Voice chat is active...",
	Language:             "Language",
	PrivacyNotice:        "Your conversations are private and are never shared or used for training.",
}

var uiTextHindi = UIText{
	StartConversation:    "बातचीत शुरू करें",
	HowAreYouFeeling:     "आज आप कैसा महसूस कर रहे हैं?",
	ShareWhatsOnYourMind: "आपके मन में क्या है, साझा करें...",
	StartToEnable:        "इनपुट सक्षम करने के लिए बातचीत शुरू करें...",
	Listening:            "सुन रही हूँ...",
	ImAayu:               "मैं आयू हूँ",
	WelcomeMessage:       "आपके मन में जो भी है, मैं उसे सुनने के लिए यहाँ हूँ। आइए, आराम से बात करते हैं।",
	AlwaysHere:           "हमेशा आपके लिए यहाँ",
	StartCall:            "वॉइस चैट शुरू करें",
	EndCall:              "वॉइस चैट समाप्त करें",
	VoiceChatActive:      "वॉइस चैट सक्रिय है...",
	Language:             "भाषा",
	PrivacyNotice:        "आपकी बातचीत निजी है और इसे कभी भी साझा या प्रशिक्षण के लिए उपयोग नहीं किया जाता है।",
}

var quickStartsEnglish = []QuickStart{
	{Icon: "💬", Text: "I need to talk about something on my mind."},
	{Icon: "✨", Text: "Help me find a moment of gratitude."},
	{Icon: "☀", Text: "I'm having a rough day and need some comfort."},
	{Icon: "☾", Text: "I'm feeling overwhelmed by my thoughts."},
}

var quickStartsHindi = []QuickStart{
	{Icon: "💬", Text: "मन में कुछ चल रहा है, बात करनी है।"},
	{Icon: "✨", Text: "आज किसी अच्छी चीज़ के लिए आभारी महसूस करें।"},
	{Icon: "☀", Text: "आज का दिन थोड़ा मुश्किल था, मुझे सहारा चाहिए।"},
	{Icon: "☾", Text: "मेरे विचार मुझ पर हावी हो रहे हैं।"},
}
