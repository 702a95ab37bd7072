package audio

import "context"

// Output plays raw audio in the order it was sent.
type Output interface {
	SendAudio(audio []byte) error
	// Mark registers callback to run once all audio sent before the mark has
	// been played. Marks are dropped by ClearBuffer without being called.
	Mark(name string, callback func(string)) error
	// ClearBuffer drops all audio that has not been played yet.
	ClearBuffer()
	EncodingInfo() EncodingInfo
}

// Input captures raw audio from a microphone.
type Input interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	EncodingInfo() EncodingInfo
}
