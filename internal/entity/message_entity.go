package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// ValidRole reports whether r is one of the two transcript roles.
func ValidRole(r string) bool {
	return r == string(MessageRoleUser) || r == string(MessageRoleAssistant)
}

// Message is one turn in a chat. Messages are immutable once created;
// transcript order is creation time ascending.
type Message struct {
	Id        uuid.UUID
	ChatId    uuid.UUID
	Content   string
	Role      MessageRole
	Metadata  map[string]interface{}
	CreatedAt time.Time
}
