package dto

import (
	"time"

	"github.com/google/uuid"
)

type ChatResponse struct {
	Id        uuid.UUID `json:"id"`
	UserId    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageResponse struct {
	Id        uuid.UUID              `json:"id"`
	ChatId    uuid.UUID              `json:"chat_id"`
	Content   string                 `json:"content"`
	Role      string                 `json:"role"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type ListChatsResponse struct {
	Chats []ChatResponse `json:"chats"`
}

type CreateChatRequest struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	Model   string `json:"model,omitempty"`
}

type CreateChatResponse struct {
	Chat ChatResponse `json:"chat"`
}

type DeleteChatResponse struct {
	Success bool `json:"success"`
}

type ListMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

type AppendMessageRequest struct {
	Content string `json:"content" validate:"required"`
	Role    string `json:"role" validate:"required"`
}

type AppendMessageResponse struct {
	Message MessageResponse `json:"message"`
}

// PublishRetitleChatMessage is the background job payload that derives a
// chat title from the first user submission.
type PublishRetitleChatMessage struct {
	ChatId uuid.UUID `json:"chat_id"`
	Seed   string    `json:"seed"`
}
