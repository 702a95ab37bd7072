package gemini

import (
	"errors"
	"testing"

	"github.com/koscakluka/ema-companion/core/llms"
	"google.golang.org/genai"
)

func TestToContentsMapsRoles(t *testing.T) {
	contents := toContents([]llms.Message{
		{Role: llms.RoleUser, Content: "Hello"},
		{Role: llms.RoleAssistant, Content: "Hi there!"},
	})

	if len(contents) != 2 {
		t.Fatalf("expected two contents, got %d", len(contents))
	}
	if contents[0].Role != string(genai.RoleUser) || contents[1].Role != string(genai.RoleModel) {
		t.Fatalf("unexpected roles %q and %q", contents[0].Role, contents[1].Role)
	}
	if contents[1].Parts[0].Text != "Hi there!" {
		t.Fatalf("unexpected text %q", contents[1].Parts[0].Text)
	}
}

func TestResponseTextSkipsThoughts(t *testing.T) {
	response := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking", Thought: true},
				{Text: "Hel"},
				{Text: "lo!"},
			}},
		}},
	}

	if got := responseText(response); got != "Hello!" {
		t.Fatalf("expected %q, got %q", "Hello!", got)
	}
	if got := responseText(nil); got != "" {
		t.Fatalf("expected empty text for nil response, got %q", got)
	}
}

func TestClassifyWrapsUnknownErrorsAsNetworkErrors(t *testing.T) {
	err := classify(errors.New("dial tcp: timeout"))

	var networkErr *llms.NetworkError
	if !errors.As(err, &networkErr) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestClassifyMapsAPIErrors(t *testing.T) {
	err := classify(genai.APIError{Code: 429, Message: "quota exceeded"})

	var serverErr *llms.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected server error, got %v", err)
	}
	if serverErr.StatusCode != 429 || serverErr.Message != "quota exceeded" {
		t.Fatalf("unexpected server error %+v", serverErr)
	}
}

func TestGenerateConfigUsesSystemPromptWithoutThinking(t *testing.T) {
	stream := &Stream{systemPrompt: "You are Aayu."}

	config := stream.generateConfig()
	if config.SystemInstruction == nil || config.SystemInstruction.Parts[0].Text != "You are Aayu." {
		t.Fatalf("expected system prompt to be set, got %+v", config.SystemInstruction)
	}
	if config.ThinkingConfig == nil || config.ThinkingConfig.ThinkingBudget == nil || *config.ThinkingConfig.ThinkingBudget != 0 {
		t.Fatalf("expected thinking to be disabled, got %+v", config.ThinkingConfig)
	}
	if config.Temperature == nil {
		t.Fatal("expected temperature to be set")
	}
}
