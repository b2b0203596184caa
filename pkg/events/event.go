package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "chat.created").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the common implementation; the constructors below are the
// only places event shapes are defined.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func NewChatCreated(chatId, userId, title string) Event {
	return BaseEvent{
		Type: "chat.created",
		Data: map[string]interface{}{
			"chat_id": chatId,
			"user_id": userId,
			"title":   title,
		},
		OccurredAt: time.Now(),
	}
}

func NewChatDeleted(chatId, userId string) Event {
	return BaseEvent{
		Type: "chat.deleted",
		Data: map[string]interface{}{
			"chat_id": chatId,
			"user_id": userId,
		},
		OccurredAt: time.Now(),
	}
}

func NewTurnCompleted(chatId, userId, model, outcome string) Event {
	return BaseEvent{
		Type: "chat.turn_completed",
		Data: map[string]interface{}{
			"chat_id": chatId,
			"user_id": userId,
			"model":   model,
			"outcome": outcome,
		},
		OccurredAt: time.Now(),
	}
}
