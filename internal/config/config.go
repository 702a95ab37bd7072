// Package config loads the client and relay settings from the environment.
//
// A .env file in the working directory is loaded first when present; values
// already set in the environment win.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/koscakluka/ema-companion/core/conversations"
)

const (
	AudioBackendMiniaudio = "miniaudio"
	AudioBackendPortaudio = "portaudio"

	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// ClientConfig holds the configuration of the terminal companion.
type ClientConfig struct {
	// APIURL is the base URL of the chat relay.
	APIURL   string `envconfig:"COMPANION_API_URL" default:"http://localhost:8080"`
	Language string `envconfig:"COMPANION_LANGUAGE" default:"en"`

	// DeepgramAPIKey enables voice chat. Voice chat is unavailable without it.
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY"`
	DeepgramSTTModel string `envconfig:"DEEPGRAM_STT_MODEL" default:"nova-3"`
	DeepgramVoiceEN  string `envconfig:"DEEPGRAM_VOICE_EN"`
	DeepgramVoiceHI  string `envconfig:"DEEPGRAM_VOICE_HI"`

	AudioBackend    string `envconfig:"AUDIO_BACKEND" default:"miniaudio"` // miniaudio, portaudio
	AudioSampleRate int    `envconfig:"AUDIO_SAMPLE_RATE" default:"16000"`
	AudioBufferSize int    `envconfig:"AUDIO_BUFFER_SIZE" default:"1024"` // portaudio only

	RecognitionTimeout time.Duration `envconfig:"RECOGNITION_TIMEOUT" default:"8s"`

	LogFile string `envconfig:"LOG_FILE" default:"companion.log"`
}

// VoiceEnabled reports whether speech services are configured.
func (c ClientConfig) VoiceEnabled() bool { return c.DeepgramAPIKey != "" }

// ConversationLanguage returns the configured starting language.
func (c ClientConfig) ConversationLanguage() conversations.Language {
	language, err := conversations.ParseLanguage(c.Language)
	if err != nil {
		return conversations.DefaultLanguage
	}
	return language
}

func (c ClientConfig) Validate() error {
	var errs []error
	if c.APIURL == "" {
		errs = append(errs, errors.New("COMPANION_API_URL must not be empty"))
	}
	if _, err := conversations.ParseLanguage(c.Language); err != nil {
		errs = append(errs, fmt.Errorf("COMPANION_LANGUAGE: %w", err))
	}
	switch strings.ToLower(c.AudioBackend) {
	case AudioBackendMiniaudio, AudioBackendPortaudio:
	default:
		errs = append(errs, fmt.Errorf("AUDIO_BACKEND must be %q or %q, got %q", AudioBackendMiniaudio, AudioBackendPortaudio, c.AudioBackend))
	}
	if c.AudioSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("AUDIO_SAMPLE_RATE must be positive, got %d", c.AudioSampleRate))
	}
	if c.RecognitionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("RECOGNITION_TIMEOUT must be positive, got %s", c.RecognitionTimeout))
	}
	return errors.Join(errs...)
}

// RelayConfig holds the configuration of the chat relay server.
type RelayConfig struct {
	Port string `envconfig:"PORT" default:"8080"`

	Provider string `envconfig:"RELAY_PROVIDER" default:"gemini"` // gemini, groq

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`

	GroqAPIKey string `envconfig:"GROQ_API_KEY"`
	GroqModel  string `envconfig:"GROQ_MODEL" default:"llama-3.3-70b-versatile"`

	RequestTimeout time.Duration `envconfig:"RELAY_REQUEST_TIMEOUT" default:"60s"`
	MetricsEnabled bool          `envconfig:"METRICS_ENABLED" default:"true"`
}

func (c RelayConfig) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	switch strings.ToLower(c.Provider) {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	case ProviderGroq:
		if c.GroqAPIKey == "" {
			errs = append(errs, errors.New("GROQ_API_KEY is required for the groq provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("RELAY_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderGroq, c.Provider))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("RELAY_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}
	return errors.Join(errs...)
}

// LoadClient reads the client configuration, loading .env first if it exists.
func LoadClient() (*ClientConfig, error) {
	loadDotEnv()
	return LoadClientFromEnv()
}

// LoadClientFromEnv reads the client configuration from the environment only.
func LoadClientFromEnv() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load client config: %w", err)
	}
	cfg.AudioBackend = strings.ToLower(cfg.AudioBackend)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}
	return &cfg, nil
}

// LoadRelay reads the relay configuration, loading .env first if it exists.
func LoadRelay() (*RelayConfig, error) {
	loadDotEnv()
	return LoadRelayFromEnv()
}

// LoadRelayFromEnv reads the relay configuration from the environment only.
func LoadRelayFromEnv() (*RelayConfig, error) {
	var cfg RelayConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load relay config: %w", err)
	}
	cfg.Provider = strings.ToLower(cfg.Provider)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid relay config: %w", err)
	}
	return &cfg, nil
}

// Missing .env files are fine, the environment alone may be enough.
func loadDotEnv() {
	_ = godotenv.Load()
}
