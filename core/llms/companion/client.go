// Package companion is the client side of the chat endpoint: it posts the
// conversation to /api/chat and decodes the streamed plain text reply.
package companion

import (
	"net/http"
	"strings"

	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/koscakluka/ema-companion/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	chatPath       = "/api/chat"
	readBufferSize = 4096
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// StreamResponse prepares a chat request. Nothing is sent until the returned
// stream is consumed.
func (c *Client) StreamResponse(messages []conversations.Message, language conversations.Language) llms.Stream {
	return &Stream{
		client: c,
		request: conversations.ChatRequest{
			Messages: append([]conversations.Message(nil), messages...),
			Language: language,
		},
	}
}
