package mapper

import (
	"encoding/json"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Chat Mappers

func (m *ChatMapper) ChatToEntity(c *model.Chat) *entity.Chat {
	if c == nil {
		return nil
	}
	return &entity.Chat{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
	}
}

func (m *ChatMapper) ChatToModel(c *entity.Chat) *model.Chat {
	if c == nil {
		return nil
	}
	return &model.Chat{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
	}
}

// Message Mappers

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	var meta map[string]interface{}
	if len(msg.Metadata) > 0 {
		// Invalid JSON in the column is treated as no metadata
		_ = json.Unmarshal(msg.Metadata, &meta)
	}

	return &entity.Message{
		Id:        msg.Id,
		ChatId:    msg.ChatId,
		Content:   msg.Content,
		Role:      entity.MessageRole(msg.Role),
		Metadata:  meta,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	var meta datatypes.JSON
	if len(msg.Metadata) > 0 {
		raw, err := json.Marshal(msg.Metadata)
		if err == nil {
			meta = datatypes.JSON(raw)
		}
	}

	return &model.Message{
		Id:        msg.Id,
		ChatId:    msg.ChatId,
		Content:   msg.Content,
		Role:      string(msg.Role),
		Metadata:  meta,
		CreatedAt: msg.CreatedAt,
	}
}
