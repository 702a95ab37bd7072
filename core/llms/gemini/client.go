package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/koscakluka/ema-companion/core/llms"
	"github.com/koscakluka/ema-companion/core/prompts"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// Client streams companion responses from the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	c := &Client{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) StreamResponse(history []conversations.Message, language conversations.Language) llms.Stream {
	return &Stream{
		client:       c.client,
		model:        c.model,
		language:     language,
		systemPrompt: prompts.SystemPrompt(language),
		contents:     toContents(llms.ToMessages("", history)),
	}
}

type Stream struct {
	client       *genai.Client
	model        string
	language     conversations.Language
	systemPrompt string
	contents     []*genai.Content
}

func (s *Stream) Chunks(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt gemini stream")
		defer span.End()
		span.SetAttributes(
			attribute.String("request.model", s.model),
			attribute.String("request.language", string(s.language)),
			attribute.Int("request.contents", len(s.contents)),
		)

		if len(s.contents) == 0 {
			err := fmt.Errorf("conversation has no content to respond to")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield("", err)
			return
		}

		config := s.generateConfig()
		receivedFirstChunk := false
		for response, err := range s.client.Models.GenerateContentStream(ctx, s.model, s.contents, config) {
			if err != nil {
				if llms.IsCancellation(ctx, err) {
					span.AddEvent("stream cancelled")
					return
				}

				err = classify(err)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				logger.Error("gemini stream failed", "error", err, "model", s.model)
				yield("", err)
				return
			}

			if !receivedFirstChunk {
				receivedFirstChunk = true
				span.AddEvent("received first chunk")
			}

			if text := responseText(response); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

// Thinking is disabled so the first chunk arrives quickly enough for voice
// chat.
func (s *Stream) generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(s.systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.8),
		ThinkingConfig:    &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	}
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llms.ServerError{StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	return &llms.NetworkError{Err: err}
}

func responseText(response *genai.GenerateContentResponse) string {
	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return ""
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			text += part.Text
		}
	}
	return text
}

func toContents(messages []llms.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := genai.Role(genai.RoleUser)
		if msg.Role == llms.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}
