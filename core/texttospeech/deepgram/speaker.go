package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-companion/core/audio"
	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/koscakluka/ema-companion/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultSpeakURL = "wss://api.deepgram.com/v1/speak"

// Speaker streams text to Deepgram's speak websocket and plays the returned
// audio on the configured output.
type Speaker struct {
	apiKey   string
	speakURL string
	output   audio.Output
	voices   map[conversations.Language]Voice
	dialer   *websocket.Dialer

	initOnce sync.Once
	initErr  error
	encoding encodingInfo

	mu      sync.Mutex
	current *utterance
}

type SpeakerOption func(*Speaker)

func WithVoice(language conversations.Language, voice Voice) SpeakerOption {
	return func(s *Speaker) {
		if voice != "" {
			s.voices[language] = voice
		}
	}
}

// WithSpeakURL overrides the websocket endpoint.
func WithSpeakURL(speakURL string) SpeakerOption {
	return func(s *Speaker) {
		if speakURL != "" {
			s.speakURL = speakURL
		}
	}
}

func NewSpeaker(apiKey string, output audio.Output, opts ...SpeakerOption) (*Speaker, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}
	if output == nil {
		return nil, fmt.Errorf("audio output is required")
	}

	speaker := &Speaker{
		apiKey:   apiKey,
		speakURL: defaultSpeakURL,
		output:   output,
		voices:   map[conversations.Language]Voice{conversations.LanguageEnglish: defaultVoice},
		dialer:   websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(speaker)
	}
	return speaker, nil
}

// init resolves the output encoding once. Deepgram only speaks raw linear16,
// mulaw and alaw.
func (s *Speaker) init() error {
	s.initOnce.Do(func() {
		encoding, err := convertEncoding(s.output.EncodingInfo())
		if err != nil {
			s.initErr = fmt.Errorf("unsupported output encoding: %w", err)
			return
		}
		s.encoding = *encoding
	})
	return s.initErr
}

func (s *Speaker) Speak(ctx context.Context, text string, language conversations.Language) error {
	if err := s.init(); err != nil {
		return err
	}

	if err := s.Cancel(); err != nil {
		logger.Warn("failed to cancel previous utterance", "error", err)
	}

	voice := s.voiceFor(language)
	ctx, span := tracer.Start(ctx, "speak utterance")
	defer span.End()
	span.SetAttributes(
		attribute.String("speech.voice", string(voice)),
		attribute.String("speech.language", string(language)),
		attribute.Int("speech.text_length", len(text)),
	)

	// The utterance is registered before dialing so a Cancel during the
	// handshake aborts it.
	dialCtx, abortDial := context.WithCancel(ctx)
	defer abortDial()
	u := newUtterance(s.output, abortDial)
	s.mu.Lock()
	s.current = u
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.current == u {
			s.current = nil
		}
		s.mu.Unlock()
	}()

	conn, err := s.connect(dialCtx, voice)
	if err != nil {
		if u.cancelled() {
			span.AddEvent("speech cancelled while connecting")
			return texttospeech.ErrSpeechCancelled
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to open websocket: %w", err)
	}
	if !u.attach(conn) {
		_ = conn.Close()
		span.AddEvent("speech cancelled while connecting")
		return texttospeech.ErrSpeechCancelled
	}

	go u.processIncomingMessages()

	if err := u.send(speakMsg{Type: "Speak", Text: text}); err != nil {
		u.finish(err)
	} else if err := u.send(websocketMessage{Type: "Flush"}); err != nil {
		u.finish(err)
	}

	select {
	case <-u.done:
	case <-ctx.Done():
		u.cancel()
	}

	if err := u.err; err != nil {
		if errors.Is(err, texttospeech.ErrSpeechCancelled) {
			span.AddEvent("speech cancelled")
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
	return nil
}

// Cancel stops the current utterance and drops any audio not yet played.
func (s *Speaker) Cancel() error {
	s.mu.Lock()
	u := s.current
	s.current = nil
	s.mu.Unlock()

	if u == nil {
		return nil
	}
	u.cancel()
	return nil
}

func (s *Speaker) connect(ctx context.Context, voice Voice) (*websocket.Conn, error) {
	speakURL, err := url.Parse(s.speakURL)
	if err != nil {
		return nil, fmt.Errorf("invalid speak url: %w", err)
	}

	urlValues := speakURL.Query()
	urlValues.Set("encoding", s.encoding.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(s.encoding.SampleRate))
	urlValues.Set("model", string(voice))
	urlValues.Set("container", "none")
	speakURL.RawQuery = urlValues.Encode()

	conn, _, err := s.dialer.DialContext(ctx, speakURL.String(),
		http.Header{"Authorization": {"token " + s.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

type utterance struct {
	id        string
	conn      *websocket.Conn
	output    audio.Output
	abortDial context.CancelFunc

	mu   sync.Mutex
	once sync.Once
	done chan struct{}
	err  error
}

func newUtterance(output audio.Output, abortDial context.CancelFunc) *utterance {
	return &utterance{
		id:        uuid.NewString(),
		output:    output,
		abortDial: abortDial,
		done:      make(chan struct{}),
	}
}

// attach hands the dialed connection to the utterance. It reports false if
// the utterance was cancelled in the meantime.
func (u *utterance) attach(conn *websocket.Conn) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.cancelled() {
		return false
	}
	u.conn = conn
	return true
}

func (u *utterance) cancelled() bool {
	select {
	case <-u.done:
		return true
	default:
		return false
	}
}

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (u *utterance) send(msg any) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return fmt.Errorf("websocket not connected")
	}
	if err := u.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}

func (u *utterance) processIncomingMessages() {
	for {
		msgType, msg, err := u.conn.ReadMessage()
		if err != nil {
			select {
			case <-u.done:
			default:
				u.finish(fmt.Errorf("websocket closed before speech finished: %w", err))
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if len(msg) == 0 {
				continue
			}
			if err := u.output.SendAudio(msg); err != nil {
				u.finish(fmt.Errorf("failed to play audio: %w", err))
				return
			}
		case websocket.TextMessage:
			var parsedMsg websocketMessage
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Warn("failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				// All audio has been generated, the utterance is over once
				// the output has played it.
				if err := u.output.Mark(u.id, func(string) { u.finish(nil) }); err != nil {
					u.finish(fmt.Errorf("failed to mark end of speech: %w", err))
					return
				}
			case "Warning":
				logger.Warn("deepgram speak warning", "message", string(msg))
			}
		}
	}
}

func (u *utterance) cancel() {
	u.once.Do(func() {
		u.err = texttospeech.ErrSpeechCancelled
		u.abortDial()
		_ = u.send(websocketMessage{Type: "Clear"})
		u.output.ClearBuffer()
		u.close()
		close(u.done)
	})
}

func (u *utterance) finish(err error) {
	u.once.Do(func() {
		u.err = err
		u.close()
		close(u.done)
	})
}

func (u *utterance) close() {
	if err := u.send(websocketMessage{Type: "Close"}); err != nil {
		logger.Debug("failed to send close message", "error", err)
	}
	u.mu.Lock()
	conn := u.conn
	u.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}
