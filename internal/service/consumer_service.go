package service

import (
	"context"
	"encoding/json"
	"strings"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the retitle queue: chats still carrying the
// placeholder title get one derived from their first user submission.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	log        logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		log:        log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishRetitleChatMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("ConsumerService", "Failed to unmarshal retitle job", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chat, err := uow.ChatRepository().FindOne(ctx, specification.ByID{ID: payload.ChatId})
	if err != nil {
		cs.log.Error("ConsumerService", "Failed to load chat for retitle", map[string]interface{}{
			"chat_id": payload.ChatId.String(),
			"error":   err.Error(),
		})
		msg.Nack() // Nack for retriable errors
		return
	}
	if chat == nil {
		msg.Ack() // Chat deleted before the job ran
		return
	}

	// A user-chosen title is never overwritten.
	if chat.Title != constant.DefaultChatTitle {
		msg.Ack()
		return
	}

	title := DeriveTitle(payload.Seed)
	if title == "" {
		msg.Ack()
		return
	}

	if err := uow.ChatRepository().UpdateTitle(ctx, chat.Id, title); err != nil {
		cs.log.Error("ConsumerService", "Failed to update chat title", map[string]interface{}{
			"chat_id": payload.ChatId.String(),
			"error":   err.Error(),
		})
		msg.Nack()
		return
	}

	cs.log.Info("ConsumerService", "Chat retitled", map[string]interface{}{
		"chat_id": chat.Id.String(),
		"title":   title,
	})
	msg.Ack()
}

// DeriveTitle truncates the seed text to the title cap, marking the cut
// with an ellipsis.
func DeriveTitle(seed string) string {
	seed = strings.TrimSpace(seed)
	runes := []rune(seed)
	if len(runes) <= constant.SeedTitleMaxLen {
		return seed
	}
	return string(runes[:constant.SeedTitleMaxLen]) + "..."
}
