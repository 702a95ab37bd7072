package events

const (
	// KindTurnStarted identifies the start of a turn.
	KindTurnStarted Kind = "turn_state.started"
	// KindTurnCompleted identifies successful turn completion.
	KindTurnCompleted Kind = "turn_state.completed"
	// KindTurnFailed identifies turn failure.
	KindTurnFailed Kind = "turn_state.failed"
	// KindTurnCancelled identifies turn cancellation.
	KindTurnCancelled Kind = "turn_state.cancelled"
)

// TurnStarted marks the start of a turn.
type TurnStarted struct {
	Base
	Turn
	FromSpeech bool
}

// NewTurnStarted creates a turn started event.
func NewTurnStarted(turnID string, fromSpeech bool) TurnStarted {
	return TurnStarted{Base: NewBase(KindTurnStarted), Turn: Turn{TurnID: turnID}, FromSpeech: fromSpeech}
}

// TurnCompleted marks successful completion of a turn.
type TurnCompleted struct {
	Base
	Turn
}

// NewTurnCompleted creates a turn completed event.
func NewTurnCompleted(turnID string) TurnCompleted {
	return TurnCompleted{Base: NewBase(KindTurnCompleted), Turn: Turn{TurnID: turnID}}
}

// TurnFailed marks a failed turn. Err holds the underlying cause and is never
// shown to the user.
type TurnFailed struct {
	Base
	Turn
	Err error
}

// NewTurnFailed creates a turn failed event.
func NewTurnFailed(turnID string, err error) TurnFailed {
	return TurnFailed{Base: NewBase(KindTurnFailed), Turn: Turn{TurnID: turnID}, Err: err}
}

// TurnCancelled marks cancellation of a turn.
type TurnCancelled struct {
	Base
	Turn
}

// NewTurnCancelled creates a turn cancelled event.
func NewTurnCancelled(turnID string) TurnCancelled {
	return TurnCancelled{Base: NewBase(KindTurnCancelled), Turn: Turn{TurnID: turnID}}
}
