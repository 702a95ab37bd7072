// Command companion is the terminal client for Aayu. It talks to the chat
// relay and, when a Deepgram key is configured, supports hands-free voice
// chat.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-companion/core"
	"github.com/koscakluka/ema-companion/core/audio"
	"github.com/koscakluka/ema-companion/core/audio/miniaudio"
	"github.com/koscakluka/ema-companion/core/audio/portaudio"
	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/koscakluka/ema-companion/core/events"
	"github.com/koscakluka/ema-companion/core/llms/companion"
	sttdeepgram "github.com/koscakluka/ema-companion/core/speechtotext/deepgram"
	ttsdeepgram "github.com/koscakluka/ema-companion/core/texttospeech/deepgram"
	"github.com/koscakluka/ema-companion/internal/config"
	"github.com/koscakluka/ema-companion/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	logFile, err := tea.LogToFile(cfg.LogFile, "companion")
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	opts := []orchestration.OrchestratorOption{
		orchestration.WithResponseClient(companion.NewClient(cfg.APIURL)),
		orchestration.WithLanguage(cfg.ConversationLanguage()),
		orchestration.WithRecognitionTimeout(cfg.RecognitionTimeout),
	}

	if cfg.VoiceEnabled() {
		device, voiceOpts, err := setUpVoice(cfg)
		if err != nil {
			log.Printf("Warning: voice chat disabled: %v", err)
		} else {
			defer device.Close()
			opts = append(opts, voiceOpts...)
		}
	}

	o := orchestration.NewOrchestrator(opts...)
	defer o.Close()

	program := tea.NewProgram(tui.New(o), tea.WithAltScreen(), tea.WithMouseCellMotion())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Orchestrate(ctx,
		orchestration.WithStateCallback(tui.StateCallback(program.Send)),
		orchestration.WithEventCallback(func(event events.Event) {
			log.Printf("event: %s", event.Kind())
		}),
		orchestration.WithRecognitionErrorCallback(func(err error) {
			log.Printf("recognition error: %v", err)
		}),
	)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("companion exited: %w", err)
	}
	return nil
}

type audioDevice interface {
	audio.Input
	audio.Output
	Close()
}

func setUpVoice(cfg *config.ClientConfig) (audioDevice, []orchestration.OrchestratorOption, error) {
	device, err := newAudioDevice(cfg)
	if err != nil {
		return nil, nil, err
	}

	var speakerOpts []ttsdeepgram.SpeakerOption
	for language, raw := range map[conversations.Language]string{
		conversations.LanguageEnglish: cfg.DeepgramVoiceEN,
		conversations.LanguageHindi:   cfg.DeepgramVoiceHI,
	} {
		if raw == "" {
			continue
		}
		voice, err := ttsdeepgram.ParseVoice(raw)
		if err != nil {
			log.Printf("Warning: ignoring voice for %s: %v", language, err)
			continue
		}
		speakerOpts = append(speakerOpts, ttsdeepgram.WithVoice(language, voice))
	}

	speaker, err := ttsdeepgram.NewSpeaker(cfg.DeepgramAPIKey, device, speakerOpts...)
	if err != nil {
		device.Close()
		return nil, nil, fmt.Errorf("failed to create speaker: %w", err)
	}

	recognizer, err := sttdeepgram.NewRecognizer(cfg.DeepgramAPIKey, device, sttdeepgram.WithModel(cfg.DeepgramSTTModel))
	if err != nil {
		device.Close()
		return nil, nil, fmt.Errorf("failed to create recognizer: %w", err)
	}

	return device, []orchestration.OrchestratorOption{
		orchestration.WithSpeechOutput(speaker),
		orchestration.WithSpeechInput(recognizer),
	}, nil
}

func newAudioDevice(cfg *config.ClientConfig) (audioDevice, error) {
	switch cfg.AudioBackend {
	case config.AudioBackendPortaudio:
		return portaudio.NewClient(cfg.AudioBufferSize)
	default:
		return miniaudio.NewClient(miniaudio.WithSampleRate(cfg.AudioSampleRate))
	}
}
