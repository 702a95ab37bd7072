package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-companion/core/audio"
	"github.com/koscakluka/ema-companion/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultListenURL = "wss://api.deepgram.com/v1/listen"
	DefaultModel     = "nova-3"
)

// Recognizer listens for one utterance per Start call using Deepgram's live
// transcription websocket. Audio comes from the configured input device and
// is only captured while a session is active.
type Recognizer struct {
	apiKey    string
	model     string
	listenURL string
	input     audio.Input
	dialer    *websocket.Dialer

	mu     sync.Mutex
	active *recognition
}

type RecognizerOption func(*Recognizer)

func WithModel(model string) RecognizerOption {
	return func(r *Recognizer) {
		if model != "" {
			r.model = model
		}
	}
}

// WithListenURL overrides the websocket endpoint.
func WithListenURL(listenURL string) RecognizerOption {
	return func(r *Recognizer) {
		if listenURL != "" {
			r.listenURL = listenURL
		}
	}
}

func NewRecognizer(apiKey string, input audio.Input, opts ...RecognizerOption) (*Recognizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}
	if input == nil {
		return nil, fmt.Errorf("audio input is required")
	}

	recognizer := &Recognizer{
		apiKey:    apiKey,
		model:     DefaultModel,
		listenURL: defaultListenURL,
		input:     input,
		dialer:    websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(recognizer)
	}

	if _, err := convertEncoding(input.EncodingInfo()); err != nil {
		return nil, fmt.Errorf("invalid input encoding: %w", err)
	}

	return recognizer, nil
}

// Start registers a session and returns. The websocket is dialed in the
// background; a failed dial is reported through the error callback and
// followed by the end callback like any other outcome.
func (r *Recognizer) Start(ctx context.Context, opts ...speechtotext.RecognitionOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return speechtotext.ErrAlreadyListening
	}

	options := speechtotext.NewRecognitionOptions(opts...)
	encoding, err := convertEncoding(r.input.EncodingInfo())
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	ctx, span := tracer.Start(ctx, "recognize utterance", trace.WithAttributes(
		attribute.String("recognition.locale", options.Locale),
		attribute.String("recognition.model", r.model),
	))
	ctx, abort := context.WithCancel(ctx)

	rec := &recognition{
		recognizer: r,
		session:    speechtotext.NewSession(options),
		span:       span,
		abort:      abort,
	}
	r.active = rec

	go rec.run(ctx, options.Locale, *encoding, options.NoSpeechTimeout)
	return nil
}

// Stop ends the active session with [speechtotext.ErrAborted]. It is a no-op
// when nothing is listening.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	rec := r.active
	r.mu.Unlock()

	if rec == nil {
		return nil
	}
	rec.finish(func(session *speechtotext.Session) { session.Fail(speechtotext.ErrAborted) })
	return nil
}

func (r *Recognizer) connect(ctx context.Context, locale string, encoding encodingInfo) (*websocket.Conn, error) {
	listenURL, err := url.Parse(r.listenURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}

	queryParams := listenURL.Query()
	queryParams.Set("encoding", encoding.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", r.model)
	queryParams.Set("language", locale)
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("utterance_end_ms", "1000")
	queryParams.Set("endpointing", "300")
	queryParams.Set("vad_events", "true")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := r.dialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + r.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

type recognition struct {
	recognizer *Recognizer
	session    *speechtotext.Session
	span       trace.Span

	abort context.CancelFunc

	connMu   sync.Mutex
	conn     *websocket.Conn
	finished bool

	transcript  strings.Builder
	heardSpeech bool
	finishOnce  sync.Once
}

func (r *recognition) sendAudio(audio []byte) {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	if r.conn == nil {
		return
	}

	if err := r.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		logger.Debug("failed to write audio to deepgram", "error", err)
	}
}

func (r *recognition) run(ctx context.Context, locale string, encoding encodingInfo, noSpeechTimeout time.Duration) {
	conn, err := r.recognizer.connect(ctx, locale, encoding)
	if err != nil {
		r.finish(func(session *speechtotext.Session) {
			err = fmt.Errorf("failed to open websocket: %w", err)
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, err.Error())
			session.Fail(err)
		})
		return
	}

	r.connMu.Lock()
	if r.finished {
		r.connMu.Unlock()
		_ = conn.Close()
		return
	}
	r.conn = conn
	r.connMu.Unlock()

	if err := r.recognizer.input.StartCapture(ctx, r.sendAudio); err != nil {
		r.finish(func(session *speechtotext.Session) {
			err = fmt.Errorf("failed to start audio capture: %w", err)
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, err.Error())
			session.Fail(err)
		})
		return
	}

	r.connMu.Lock()
	stoppedWhileStarting := r.finished
	r.connMu.Unlock()
	if stoppedWhileStarting {
		if err := r.recognizer.input.StopCapture(); err != nil {
			logger.Warn("failed to stop audio capture", "error", err)
		}
		return
	}

	messages := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			select {
			case messages <- msg:
			case <-r.session.Done():
				return
			}
		}
	}()

	noSpeech := time.NewTimer(noSpeechTimeout)
	defer noSpeech.Stop()

	for {
		select {
		case <-r.session.Done():
			return
		case <-ctx.Done():
			r.finish(func(session *speechtotext.Session) { session.Fail(speechtotext.ErrAborted) })
			return
		case <-noSpeech.C:
			r.finish(func(session *speechtotext.Session) { session.NoMatch() })
			return
		case err := <-readErr:
			r.finish(func(session *speechtotext.Session) {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure) && r.transcript.Len() == 0 {
					session.NoMatch()
					return
				}
				if transcript := strings.TrimSpace(r.transcript.String()); transcript != "" {
					session.Result(transcript)
					return
				}
				session.Fail(fmt.Errorf("failed to read deepgram message: %w", err))
			})
			return
		case msg := <-messages:
			transcript, done := r.processMessage(msg)
			if r.heardSpeech {
				noSpeech.Stop()
			}
			if done {
				r.finish(func(session *speechtotext.Session) {
					if transcript == "" {
						session.NoMatch()
						return
					}
					session.Result(transcript)
				})
				return
			}
		}
	}
}

// processMessage folds one Deepgram message into the utterance. It reports
// the transcript and true once the utterance is over.
func (r *recognition) processMessage(msg []byte) (string, bool) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return "", false
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram results", "error", err)
			return "", false
		}
		if !msgResp.IsFinal {
			return "", false
		}

		if len(msgResp.Channel.Alternatives) > 0 {
			if segment := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript); segment != "" {
				r.heardSpeech = true
				if r.transcript.Len() > 0 {
					r.transcript.WriteString(" ")
				}
				r.transcript.WriteString(segment)
			}
		}

		if msgResp.SpeechFinal && r.transcript.Len() > 0 {
			return strings.TrimSpace(r.transcript.String()), true
		}

	case api.TypeUtteranceEndResponse:
		if r.transcript.Len() > 0 {
			return strings.TrimSpace(r.transcript.String()), true
		}

	case api.TypeSpeechStartedResponse:
		r.heardSpeech = true
	}

	return "", false
}

// finish tears the connection down before reporting the outcome, so the
// recognizer accepts a new Start by the time the end callback runs.
func (r *recognition) finish(report func(*speechtotext.Session)) {
	r.finishOnce.Do(func() {
		r.connMu.Lock()
		r.finished = true
		r.connMu.Unlock()

		r.abort()
		if err := r.recognizer.input.StopCapture(); err != nil {
			logger.Warn("failed to stop audio capture", "error", err)
		}

		r.connMu.Lock()
		if r.conn != nil {
			_ = r.conn.WriteJSON(struct {
				Type string `json:"type"`
			}{Type: string(api.TypeCloseStreamResponse)})
			_ = r.conn.Close()
			r.conn = nil
		}
		r.connMu.Unlock()

		r.recognizer.mu.Lock()
		if r.recognizer.active == r {
			r.recognizer.active = nil
		}
		r.recognizer.mu.Unlock()

		report(r.session)

		r.span.End()
	})
}

var _ speechtotext.Recognizer = (*Recognizer)(nil)
