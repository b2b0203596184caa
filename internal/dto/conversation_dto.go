package dto

import (
	"time"

	"github.com/google/uuid"
)

type TurnEntry struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type SendTurnRequest struct {
	Text  string `json:"text" validate:"required"`
	Model string `json:"model,omitempty"`
}

type SendTurnResponse struct {
	Sent      TurnEntry `json:"sent"`
	Reply     TurnEntry `json:"reply"`
	State     string    `json:"state"`
	Cancelled bool      `json:"cancelled,omitempty"`
}

type CancelTurnResponse struct {
	Cancelled bool   `json:"cancelled"`
	State     string `json:"state"`
}

type TranscriptResponse struct {
	ChatId  uuid.UUID   `json:"chat_id"`
	State   string      `json:"state"`
	Model   string      `json:"model"`
	Entries []TurnEntry `json:"entries"`
}
