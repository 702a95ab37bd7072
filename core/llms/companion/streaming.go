package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"

	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/koscakluka/ema-companion/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Stream struct {
	client  *Client
	request conversations.ChatRequest
}

func (s *Stream) Chunks(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, span := tracer.Start(ctx, "stream companion response")
		defer span.End()
		span.SetAttributes(
			attribute.String("request.language", string(s.request.Language)),
			attribute.Int("request.messages", len(s.request.Messages)),
		)

		fail := func(err error) {
			if llms.IsCancellation(ctx, err) {
				span.AddEvent("stream cancelled")
				return
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error("companion stream failed", "error", err)
			yield("", err)
		}

		if ctx.Err() != nil {
			span.AddEvent("stream cancelled before request")
			return
		}

		body, err := json.Marshal(s.request)
		if err != nil {
			fail(fmt.Errorf("error marshalling chat request: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.baseURL+chatPath, bytes.NewReader(body))
		if err != nil {
			fail(fmt.Errorf("error creating chat request: %w", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		requestStarted := time.Now()
		resp, err := s.client.httpClient.Do(req)
		if err != nil {
			fail(&llms.NetworkError{Err: err})
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			fail(decodeServerError(resp))
			return
		}

		decoder := utf8Decoder{}
		buffer := make([]byte, readBufferSize)
		receivedFirstChunk := false
		for {
			n, readErr := resp.Body.Read(buffer)
			if n > 0 {
				if !receivedFirstChunk {
					receivedFirstChunk = true
					span.SetAttributes(attribute.Float64("response.request_to_first_chunk_time", time.Since(requestStarted).Seconds()))
				}

				if text := decoder.Decode(buffer[:n]); text != "" {
					if !yield(text, nil) {
						return
					}
				}
			}

			if errors.Is(readErr, io.EOF) {
				break
			}
			if readErr != nil {
				fail(&llms.NetworkError{Err: fmt.Errorf("error reading response stream: %w", readErr)})
				return
			}
		}

		if tail := decoder.Flush(); tail != "" {
			yield(tail, nil)
		}
	}
}

func decodeServerError(resp *http.Response) error {
	serverErr := &llms.ServerError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return serverErr
	}

	var decoded conversations.ChatError
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error != "" {
		serverErr.Message = decoded.Error
	} else {
		serverErr.Message = "API request failed"
	}
	return serverErr
}
