package orchestration

import "github.com/koscakluka/ema-companion/core/conversations"

// loopEvent is anything delivered to the event loop.
type loopEvent interface{ isLoopEvent() }

type (
	// Intents from the presentation shell.
	submitTextRequested      struct{ text string }
	voiceChatToggleRequested struct{}
	languageChangeRequested  struct{ language conversations.Language }

	// Recognition callbacks, tagged with the listening session they came from.
	recognitionResulted struct {
		session    uint64
		transcript string
	}
	recognitionNoMatched struct{ session uint64 }
	recognitionFailed    struct {
		session uint64
		err     error
	}
	recognitionEnded struct{ session uint64 }

	// Turn workers, tagged with the epoch of the turn that started them.
	responseChunkReceived struct {
		epoch uint64
		chunk string
	}
	responseStreamEnded struct {
		epoch uint64
		err   error
	}
	speechPlaybackEnded struct {
		epoch uint64
		err   error
	}

	// loopFunc runs arbitrary work on the loop goroutine.
	loopFunc func()
)

func (submitTextRequested) isLoopEvent()      {}
func (voiceChatToggleRequested) isLoopEvent() {}
func (languageChangeRequested) isLoopEvent()  {}
func (recognitionResulted) isLoopEvent()      {}
func (recognitionNoMatched) isLoopEvent()     {}
func (recognitionFailed) isLoopEvent()        {}
func (recognitionEnded) isLoopEvent()         {}
func (responseChunkReceived) isLoopEvent()    {}
func (responseStreamEnded) isLoopEvent()      {}
func (speechPlaybackEnded) isLoopEvent()      {}
func (loopFunc) isLoopEvent()                 {}
