package conversations

import (
	"encoding/json"
	"testing"
)

func TestParseLanguageAcceptsSupportedLanguages(t *testing.T) {
	testCases := []struct {
		raw      string
		expected Language
	}{
		{raw: "en", expected: LanguageEnglish},
		{raw: " HI ", expected: LanguageHindi},
	}

	for _, testCase := range testCases {
		got, err := ParseLanguage(testCase.raw)
		if err != nil {
			t.Fatalf("expected %q to parse, got %v", testCase.raw, err)
		}
		if got != testCase.expected {
			t.Fatalf("expected %q, got %q", testCase.expected, got)
		}
	}
}

func TestParseLanguageRejectsUnknownLanguage(t *testing.T) {
	if _, err := ParseLanguage("fr"); err == nil {
		t.Fatalf("expected an error for unsupported language")
	}
}

func TestLanguageLocale(t *testing.T) {
	if got := LanguageEnglish.Locale(); got != "en-US" {
		t.Fatalf("expected en-US, got %q", got)
	}
	if got := LanguageHindi.Locale(); got != "hi-IN" {
		t.Fatalf("expected hi-IN, got %q", got)
	}
}

func TestChatRequestDecodesWireFormat(t *testing.T) {
	body := `{"messages":[{"id":1,"text":"Hello","sender":"user"},{"id":2,"text":"oops","sender":"ai","isError":true}],"language":"hi"}`

	var request ChatRequest
	if err := json.Unmarshal([]byte(body), &request); err != nil {
		t.Fatalf("expected request to decode, got %v", err)
	}

	if request.Language != LanguageHindi {
		t.Fatalf("expected language hi, got %q", request.Language)
	}
	if len(request.Messages) != 2 {
		t.Fatalf("expected two messages, got %d", len(request.Messages))
	}
	if !request.Messages[1].IsError || request.Messages[1].Sender != SenderCompanion {
		t.Fatalf("expected errored companion message, got %+v", request.Messages[1])
	}

	last, ok := request.LastUserMessage()
	if !ok || last.Text != "Hello" {
		t.Fatalf("expected last user message %q, got %+v", "Hello", last)
	}
}

func TestChatRequestRejectsUnknownSender(t *testing.T) {
	body := `{"messages":[{"id":1,"text":"Hello","sender":"system"}],"language":"en"}`

	var request ChatRequest
	if err := json.Unmarshal([]byte(body), &request); err == nil {
		t.Fatalf("expected unknown sender to be rejected")
	}
}

func TestMessageOmitsIsErrorWhenFalse(t *testing.T) {
	encoded, err := json.Marshal(Message{ID: 1, Text: "Hi", Sender: SenderUser})
	if err != nil {
		t.Fatalf("expected message to encode, got %v", err)
	}

	if got := string(encoded); got != `{"id":1,"text":"Hi","sender":"user"}` {
		t.Fatalf("unexpected encoding %s", got)
	}
}
