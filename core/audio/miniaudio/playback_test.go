package miniaudio

import (
	"sync"
	"testing"
	"time"
)

func TestProcessAudioPlaysPendingAudioAndPadsSilence(t *testing.T) {
	client := &playbackClient{pending: []byte{1, 2, 3}}
	process := client.processAudio(2)

	output := []byte{9, 9, 9, 9, 9, 9}
	process(output, nil, 3)

	expected := []byte{1, 2, 3, 0, 0, 0}
	for i := range expected {
		if output[i] != expected[i] {
			t.Fatalf("expected output %v, got %v", expected, output)
		}
	}
	if len(client.pending) != 0 {
		t.Fatalf("expected pending audio to be consumed, got %v", client.pending)
	}
}

func TestMarksFireOnceAudioBeforeThemIsPlayed(t *testing.T) {
	client := &playbackClient{pending: make([]byte, 8)}

	var mu sync.Mutex
	reached := []string{}
	done := make(chan struct{}, 2)
	callback := func(name string) {
		mu.Lock()
		reached = append(reached, name)
		mu.Unlock()
		done <- struct{}{}
	}

	if err := client.Mark("end", callback); err != nil {
		t.Fatalf("failed to mark: %v", err)
	}

	process := client.processAudio(2)
	process(make([]byte, 4), nil, 2)

	mu.Lock()
	if len(reached) != 0 {
		mu.Unlock()
		t.Fatalf("expected mark not to be reached after half the audio")
	}
	mu.Unlock()

	process(make([]byte, 4), nil, 2)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected mark to be reached")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reached) != 1 || reached[0] != "end" {
		t.Fatalf("expected single end mark, got %v", reached)
	}
}

func TestClearBufferDropsAudioAndMarks(t *testing.T) {
	client := &playbackClient{pending: []byte{1, 2}}
	_ = client.Mark("dropped", func(string) { t.Errorf("dropped mark should not fire") })

	client.ClearBuffer()

	if len(client.pending) != 0 || len(client.marks) != 0 {
		t.Fatalf("expected buffer to be cleared")
	}

	process := client.processAudio(2)
	process(make([]byte, 4), nil, 2)
	time.Sleep(10 * time.Millisecond)
}
