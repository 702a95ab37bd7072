package config

import (
	"strings"
	"testing"
	"time"

	"github.com/koscakluka/ema-companion/core/conversations"
)

func TestLoadClientFromEnvDefaults(t *testing.T) {
	cfg, err := LoadClientFromEnv()
	if err != nil {
		t.Fatalf("expected defaults to load, got %v", err)
	}

	if cfg.APIURL != "http://localhost:8080" {
		t.Fatalf("unexpected api url %q", cfg.APIURL)
	}
	if cfg.ConversationLanguage() != conversations.LanguageEnglish {
		t.Fatalf("expected english by default, got %q", cfg.ConversationLanguage())
	}
	if cfg.AudioBackend != AudioBackendMiniaudio {
		t.Fatalf("expected miniaudio by default, got %q", cfg.AudioBackend)
	}
	if cfg.RecognitionTimeout != 8*time.Second {
		t.Fatalf("expected 8s recognition timeout, got %s", cfg.RecognitionTimeout)
	}
}

func TestLoadClientFromEnvOverrides(t *testing.T) {
	t.Setenv("COMPANION_API_URL", "https://companion.example")
	t.Setenv("COMPANION_LANGUAGE", "hi")
	t.Setenv("DEEPGRAM_API_KEY", "dg-key")
	t.Setenv("AUDIO_BACKEND", "portaudio")
	t.Setenv("RECOGNITION_TIMEOUT", "3s")

	cfg, err := LoadClientFromEnv()
	if err != nil {
		t.Fatalf("expected overrides to load, got %v", err)
	}

	if cfg.APIURL != "https://companion.example" || cfg.ConversationLanguage() != conversations.LanguageHindi {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !cfg.VoiceEnabled() {
		t.Fatalf("expected voice to be enabled with a deepgram key")
	}
	if cfg.AudioBackend != AudioBackendPortaudio || cfg.RecognitionTimeout != 3*time.Second {
		t.Fatalf("unexpected audio settings: %+v", cfg)
	}
}

func TestLoadClientFromEnvRejectsInvalidValues(t *testing.T) {
	t.Setenv("COMPANION_LANGUAGE", "fr")
	t.Setenv("AUDIO_BACKEND", "alsa")

	_, err := LoadClientFromEnv()
	if err == nil {
		t.Fatalf("expected invalid config to fail")
	}
	for _, expected := range []string{"COMPANION_LANGUAGE", "AUDIO_BACKEND"} {
		if !strings.Contains(err.Error(), expected) {
			t.Fatalf("expected error to mention %s, got %v", expected, err)
		}
	}
}

func TestLoadRelayFromEnvRequiresProviderKey(t *testing.T) {
	t.Setenv("RELAY_PROVIDER", "groq")

	if _, err := LoadRelayFromEnv(); err == nil || !strings.Contains(err.Error(), "GROQ_API_KEY") {
		t.Fatalf("expected missing groq key error, got %v", err)
	}

	t.Setenv("GROQ_API_KEY", "groq-key")
	cfg, err := LoadRelayFromEnv()
	if err != nil {
		t.Fatalf("expected relay config to load, got %v", err)
	}
	if cfg.Provider != ProviderGroq || cfg.GroqModel != "llama-3.3-70b-versatile" || !cfg.MetricsEnabled {
		t.Fatalf("unexpected relay config: %+v", cfg)
	}
}

func TestLoadRelayFromEnvRejectsUnknownProvider(t *testing.T) {
	t.Setenv("RELAY_PROVIDER", "Mystery")

	if _, err := LoadRelayFromEnv(); err == nil || !strings.Contains(err.Error(), "RELAY_PROVIDER") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestRelayProviderIsCaseInsensitive(t *testing.T) {
	t.Setenv("RELAY_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := LoadRelayFromEnv()
	if err != nil {
		t.Fatalf("expected relay config to load, got %v", err)
	}
	if cfg.Provider != ProviderGemini {
		t.Fatalf("expected normalized provider, got %q", cfg.Provider)
	}
}
