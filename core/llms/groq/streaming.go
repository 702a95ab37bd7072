package groq

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/koscakluka/ema-companion/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	chunkPrefix = "data: "
	endMessage  = "[DONE]"
)

type Stream struct {
	client   *Client
	language conversations.Language
	messages []message
}

func (s *Stream) Chunks(ctx context.Context) iter.Seq2[string, error] {
	requestToFirstTokenTime := time.Time{}
	setRequestToFirstTokenTime := func(span trace.Span) {
		if requestToFirstTokenTime.IsZero() {
			return
		}
		span.SetAttributes(attribute.Float64("response.request_to_first_token_time", time.Since(requestToFirstTokenTime).Seconds()))
		span.AddEvent("received first chunk")
		requestToFirstTokenTime = time.Time{}
	}

	return func(yield func(string, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt groq stream")
		defer span.End()
		span.SetAttributes(
			attribute.String("request.model", s.client.model),
			attribute.String("request.language", string(s.language)),
			attribute.Int("request.messages", len(s.messages)),
		)

		fail := func(err error) {
			if llms.IsCancellation(ctx, err) {
				span.AddEvent("stream cancelled")
				return
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield("", err)
		}

		requestBodyBytes, err := json.Marshal(requestBody{
			Model:         s.client.model,
			Messages:      s.messages,
			Stream:        true,
			StreamOptions: &streamOptions{IncludeUsage: true},
		})
		if err != nil {
			fail(fmt.Errorf("error marshalling JSON: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.url, bytes.NewBuffer(requestBodyBytes))
		if err != nil {
			fail(fmt.Errorf("error creating HTTP request: %w", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.client.apiKey)

		span.SetAttributes(attribute.String("request.url", req.URL.String()))
		requestToFirstTokenTime = time.Now()
		span.AddEvent("request started")
		resp, err := s.client.httpClient.Do(req)
		if err != nil {
			fail(&llms.NetworkError{Err: err})
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode != http.StatusOK {
			serverErr := &llms.ServerError{StatusCode: resp.StatusCode}
			if body, err := io.ReadAll(resp.Body); err != nil {
				span.RecordError(fmt.Errorf("error reading error body: %w", err))
			} else {
				span.SetAttributes(attribute.String("response.error", string(body)))
				var decoded errorBody
				if json.Unmarshal(body, &decoded) == nil {
					serverErr.Message = decoded.Error.Message
				}
			}
			fail(serverErr)
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			chunk := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))
			setRequestToFirstTokenTime(span)

			if len(chunk) == 0 {
				continue
			}

			if chunk == endMessage {
				break
			}

			var responseBody streamingResponseBody
			if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
				fail(fmt.Errorf("error unmarshalling JSON: %w", err))
				return
			}

			if responseBody.Usage != nil {
				span.SetAttributes(
					attribute.Int("usage.input", responseBody.Usage.PromptTokens),
					attribute.Int("usage.output", responseBody.Usage.CompletionTokens),
					attribute.Int("usage.total", responseBody.Usage.TotalTokens),
					attribute.Float64("usage.queue_time", responseBody.Usage.QueueTime),
					attribute.Float64("usage.prompt_time", responseBody.Usage.PromptTime),
					attribute.Float64("usage.completion_time", responseBody.Usage.CompletionTime),
					attribute.Float64("usage.total_time", responseBody.Usage.TotalTime),
				)
			}

			if len(responseBody.Choices) == 0 {
				continue
			}

			delta := responseBody.Choices[0].Delta
			if delta.FinishReason != nil {
				span.SetAttributes(attribute.String("response.finish_reason", *delta.FinishReason))
			}
			if delta.Content != "" {
				if !yield(delta.Content, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			fail(fmt.Errorf("error reading streamed response: %w", err))
			return
		}
	}
}
