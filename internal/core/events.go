package core

import "patientsim/pkg"

// EventType labels a state change emitted by the session core.  The core
// has no rendering surface of its own: a presentation layer subscribes to
// these events and draws the transcript, status bar and input state from
// them.
type EventType string

const (
	EventUserUtterance     EventType = "user_utterance"
	EventPersonaUtterance  EventType = "persona_utterance"
	EventInputLocked       EventType = "input_locked"
	EventInputUnlocked     EventType = "input_unlocked"
	EventWaitingStarted    EventType = "waiting_started"
	EventWaitingStopped    EventType = "waiting_stopped"
	EventStatusChanged     EventType = "status_changed"
	EventFeedbackAttached  EventType = "feedback_attached"
	EventGoalReached       EventType = "goal_reached"
	EventConversationEnded EventType = "conversation_ended"
	EventSpeechStarted     EventType = "speech_started"
	EventTurnError         EventType = "turn_error"
)

// Event is one observable state change.  Fields are populated depending on
// Type: Utterance for transcript changes, Status for attitude changes, Note
// for error annotations.
type Event struct {
	Type      EventType
	Utterance *pkg.Utterance
	Status    int
	Note      string
}

// EventSink receives session events.  Callbacks are invoked while the
// session serializes its turn handling, so a sink never sees two events
// concurrently.
type EventSink func(Event)
