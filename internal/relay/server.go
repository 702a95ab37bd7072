// Package relay serves the chat endpoint the companion client talks to. It
// forwards each conversation to an upstream model and streams the reply back
// as plain text.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/koscakluka/ema-companion/core/llms"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const DefaultRequestTimeout = 60 * time.Second

type Server struct {
	echo     *echo.Echo
	upstream llms.ResponseStreamer
	provider string
	metrics  *Metrics

	requestTimeout time.Duration
	chatSchema     *jsonschema.Schema
}

type ServerOption func(*Server)

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(metrics *Metrics) ServerOption {
	return func(s *Server) { s.metrics = metrics }
}

// WithProvider names the upstream in logs and metrics.
func WithProvider(provider string) ServerOption {
	return func(s *Server) {
		if provider != "" {
			s.provider = provider
		}
	}
}

// WithRequestTimeout limits how long a single reply may stream.
func WithRequestTimeout(timeout time.Duration) ServerOption {
	return func(s *Server) {
		if timeout > 0 {
			s.requestTimeout = timeout
		}
	}
}

func New(upstream llms.ResponseStreamer, opts ...ServerOption) *Server {
	s := &Server{
		echo:           echo.New(),
		upstream:       upstream,
		provider:       "upstream",
		requestTimeout: DefaultRequestTimeout,
		chatSchema:     jsonschema.Reflect(&conversations.ChatRequest{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			)
			return nil
		},
	}))
	e.Use(middleware.CORS())
	if s.metrics != nil {
		e.Use(s.metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	e.GET("/health", s.handleHealth)
	api := e.Group("/api")
	api.POST("/chat", s.handleChat)
	api.GET("/chat/schema", s.handleChatSchema)

	return s
}

// ServeHTTP makes the relay usable as a plain [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":   "ok",
		"provider": s.provider,
	})
}

func (s *Server) handleChatSchema(c echo.Context) error {
	return c.JSON(http.StatusOK, s.chatSchema)
}

// handleError keeps every failure in the {error} shape clients decode.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(status)
		}
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request().Context(), "request failed", "error", err)
	}

	if err := c.JSON(status, conversations.ChatError{Error: message}); err != nil {
		logger.Error("failed to write error response", "error", err)
	}
}
