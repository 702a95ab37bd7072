package orchestration

import "fmt"

// VoiceMode is the hands-free loop state.
//
// The turn lock is held exactly while the mode is [VoiceModeProcessing], so no
// recognized utterance can start a second turn before the first completes.
type VoiceMode int

const (
	// VoiceModeIdle means voice chat is off.
	VoiceModeIdle VoiceMode = iota
	// VoiceModeListening means voice chat is on and waiting for an utterance.
	VoiceModeListening
	// VoiceModeProcessing means voice chat is on and a turn is in flight.
	VoiceModeProcessing
)

func (m VoiceMode) String() string {
	switch m {
	case VoiceModeIdle:
		return "idle"
	case VoiceModeListening:
		return "listening"
	case VoiceModeProcessing:
		return "processing"
	}
	return fmt.Sprintf("VoiceMode(%d)", int(m))
}

func (m VoiceMode) IsActive() bool { return m != VoiceModeIdle }

// IsLocked reports whether the turn lock is held.
func (m VoiceMode) IsLocked() bool { return m == VoiceModeProcessing }

type voiceTrigger int

const (
	triggerToggleOn voiceTrigger = iota
	triggerToggleOff
	triggerTurnStarted
	triggerTurnFinished
	triggerLanguageChanged
)

func (t voiceTrigger) String() string {
	switch t {
	case triggerToggleOn:
		return "toggle_on"
	case triggerToggleOff:
		return "toggle_off"
	case triggerTurnStarted:
		return "turn_started"
	case triggerTurnFinished:
		return "turn_finished"
	case triggerLanguageChanged:
		return "language_changed"
	}
	return fmt.Sprintf("voiceTrigger(%d)", int(t))
}

// transition is the only place voice modes change.
func transition(mode VoiceMode, trigger voiceTrigger) VoiceMode {
	switch trigger {
	case triggerToggleOff, triggerLanguageChanged:
		return VoiceModeIdle
	case triggerToggleOn:
		if mode == VoiceModeIdle {
			return VoiceModeListening
		}
	case triggerTurnStarted:
		if mode == VoiceModeListening {
			return VoiceModeProcessing
		}
	case triggerTurnFinished:
		if mode == VoiceModeProcessing {
			return VoiceModeListening
		}
	}
	return mode
}
