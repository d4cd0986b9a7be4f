package domain

import "time"

// ChatEvent is a chat-platform update reduced to what the state machine needs.
// The chat transport is the trust boundary for these identities.
type ChatEvent struct {
	UpdateID    int64
	UserID      int64
	ChatID      int64
	DisplayName string
	Event       Event
	// CallbackID is set for button presses and must be acknowledged.
	CallbackID string
	MessageID  int
}

// GenerationTask is a scheduled background description generation.
type GenerationTask struct {
	ID         string
	Identity   int64
	ChatID     int64
	Choices    ProfileChoices
	EnqueuedAt time.Time
}

// EventForCallback maps inline button data to a state machine event.
func EventForCallback(data string) Event {
	switch data {
	case CallbackShowCharter:
		return EventShowCharter
	case CallbackAcceptCharter:
		return EventAcceptCharter
	default:
		return EventUnknown
	}
}
