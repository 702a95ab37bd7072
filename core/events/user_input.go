package events

const (
	// KindUserTextSubmitted identifies text accepted as a new turn.
	KindUserTextSubmitted Kind = "user_input.text_submitted"
	// KindUserTranscriptFinal identifies the final transcript for the utterance.
	KindUserTranscriptFinal Kind = "user_input.transcript_final"
	// KindUserRecognitionNoMatch identifies an utterance that ended without speech.
	KindUserRecognitionNoMatch Kind = "user_input.recognition_no_match"
	// KindUserRecognitionFailed identifies a recognizer error.
	KindUserRecognitionFailed Kind = "user_input.recognition_failed"
	// KindUserRecognitionEnded identifies the end of a recognition session.
	KindUserRecognitionEnded Kind = "user_input.recognition_ended"
)

// UserTextSubmitted carries the text that opened a turn.
type UserTextSubmitted struct {
	Base
	Turn
	Text string
}

// NewUserTextSubmitted creates a text submitted event.
func NewUserTextSubmitted(turnID, text string) UserTextSubmitted {
	return UserTextSubmitted{Base: NewBase(KindUserTextSubmitted), Turn: Turn{TurnID: turnID}, Text: text}
}

// UserTranscriptFinal carries the final transcript for the utterance.
type UserTranscriptFinal struct {
	Base
	Transcript string
}

// NewUserTranscriptFinal creates a final transcript event.
func NewUserTranscriptFinal(transcript string) UserTranscriptFinal {
	return UserTranscriptFinal{Base: NewBase(KindUserTranscriptFinal), Transcript: transcript}
}

// UserRecognitionNoMatch marks an utterance that ended without usable speech.
type UserRecognitionNoMatch struct{ Base }

// NewUserRecognitionNoMatch creates a no-match event.
func NewUserRecognitionNoMatch() UserRecognitionNoMatch {
	return UserRecognitionNoMatch{Base: NewBase(KindUserRecognitionNoMatch)}
}

// UserRecognitionFailed carries a recognizer error.
type UserRecognitionFailed struct {
	Base
	Err error
}

// NewUserRecognitionFailed creates a recognition failed event.
func NewUserRecognitionFailed(err error) UserRecognitionFailed {
	return UserRecognitionFailed{Base: NewBase(KindUserRecognitionFailed), Err: err}
}

// UserRecognitionEnded marks the end of a recognition session.
type UserRecognitionEnded struct{ Base }

// NewUserRecognitionEnded creates a recognition ended event.
func NewUserRecognitionEnded() UserRecognitionEnded {
	return UserRecognitionEnded{Base: NewBase(KindUserRecognitionEnded)}
}
