package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const upstreamFailedMessage = "Failed to get a response from the companion"

func (s *Server) handleChat(c echo.Context) error {
	request, err := decodeChatRequest(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, span := tracer.Start(c.Request().Context(), "relay chat")
	defer span.End()
	span.SetAttributes(
		attribute.String("relay.provider", s.provider),
		attribute.String("relay.language", string(request.Language)),
		attribute.Int("relay.messages", len(request.Messages)),
	)

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	started := time.Now()
	stream := s.upstream.StreamResponse(request.Messages, request.Language)
	next, stop := iter.Pull2(stream.Chunks(ctx))
	defer stop()

	// The first chunk decides the status, so an upstream that fails right
	// away still gets a proper error response.
	chunk, err, ok := next()
	if ok && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.recordUpstreamError(s.provider, err)
		logger.ErrorContext(ctx, "upstream failed before streaming", "provider", s.provider, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, upstreamFailedMessage)
	}
	if !ok && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		span.SetStatus(codes.Error, "upstream timed out")
		return echo.NewHTTPError(http.StatusGatewayTimeout, upstreamFailedMessage)
	}
	if ok && s.metrics != nil {
		s.metrics.FirstChunkDuration.WithLabelValues(s.provider).Observe(time.Since(started).Seconds())
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("X-Content-Type-Options", "nosniff")
	res.WriteHeader(http.StatusOK)

	if s.metrics != nil {
		s.metrics.ActiveStreams.Inc()
		defer s.metrics.ActiveStreams.Dec()
	}

	chunks := 0
	for ; ok; chunk, err, ok = next() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.metrics.recordUpstreamError(s.provider, err)
			logger.ErrorContext(ctx, "upstream failed mid-stream", "provider", s.provider, "error", err)
			// The status is already sent; dropping the connection is the only
			// way left to tell the client the reply is incomplete.
			panic(http.ErrAbortHandler)
		}
		if chunk == "" {
			continue
		}

		if _, err := io.WriteString(res, chunk); err != nil {
			span.AddEvent("client went away")
			return nil
		}
		res.Flush()
		chunks++
		if s.metrics != nil {
			s.metrics.StreamChunksTotal.WithLabelValues(s.provider).Inc()
		}
	}

	span.SetAttributes(attribute.Int("relay.chunks", chunks))
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logger.WarnContext(ctx, "reply cut off by request timeout", "provider", s.provider, "timeout", s.requestTimeout)
		panic(http.ErrAbortHandler)
	}
	return nil
}

func decodeChatRequest(body io.Reader) (conversations.ChatRequest, error) {
	var request conversations.ChatRequest
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(&request); err != nil {
		return request, fmt.Errorf("invalid request body: %w", err)
	}

	if request.Language == "" {
		request.Language = conversations.DefaultLanguage
	}
	if err := validateChatRequest(request); err != nil {
		return request, err
	}
	return request, nil
}

func validateChatRequest(request conversations.ChatRequest) error {
	if len(request.Messages) == 0 {
		return errors.New("messages must not be empty")
	}

	last, ok := request.LastUserMessage()
	if !ok || strings.TrimSpace(last.Text) == "" {
		return errors.New("conversation must contain a user message")
	}
	return nil
}
