// Package events defines the typed events the companion orchestrator reports
// to its observers.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - session.*
//   - user_input.*
//   - assistant_response.*
//   - assistant_speech.*
//   - turn_state.*
//
// Events that belong to a turn embed [Turn] and carry the turn id, so
// observers can correlate segments, speech and the terminal turn state.
//
// session events
//
//   - VoiceChatToggled (session.voice_chat_toggled): voice mode flipped.
//   - LanguageChanged (session.language_changed): language switched and the
//     conversation was reset.
//   - ListeningStarted (session.listening_started): a recognition session was
//     armed.
//
// user_input events
//
//   - UserTextSubmitted (user_input.text_submitted): typed or recognized text
//     accepted as a new turn.
//   - UserTranscriptFinal (user_input.transcript_final): terminal transcript
//     for one recognized utterance.
//   - UserRecognitionNoMatch (user_input.recognition_no_match): the utterance
//     ended without speech.
//   - UserRecognitionFailed (user_input.recognition_failed): the recognizer
//     reported an error.
//   - UserRecognitionEnded (user_input.recognition_ended): the recognition
//     session is over, whatever its outcome.
//
// assistant_response events
//
//   - AssistantResponseSegment (assistant_response.segment): streamed text
//     segment, in stream order.
//   - AssistantResponseFinal (assistant_response.final): the stream is
//     exhausted; carries the assembled text.
//
// assistant_speech events
//
//   - AssistantSpeechStarted (assistant_speech.started): narration started.
//   - AssistantSpeechEnded (assistant_speech.ended): narration finished or was
//     cancelled.
//
// turn_state events
//
//   - TurnStarted (turn_state.started): a turn was opened.
//   - TurnCompleted (turn_state.completed): the turn finished successfully.
//   - TurnFailed (turn_state.failed): the turn failed and the fallback message
//     was shown.
//   - TurnCancelled (turn_state.cancelled): the turn was superseded.
package events
