package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/repository/memory"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/events"
	pkgNats "ai-chat-be/pkg/nats"

	"github.com/google/uuid"
)

type IChatService interface {
	GetAll(ctx context.Context, userId uuid.UUID) (*dto.ListChatsResponse, error)
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateChatRequest) (*dto.CreateChatResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, chatId uuid.UUID) error
	GetMessages(ctx context.Context, userId uuid.UUID, chatId uuid.UUID) (*dto.ListMessagesResponse, error)
	AppendMessage(ctx context.Context, userId uuid.UUID, chatId uuid.UUID, req *dto.AppendMessageRequest) (*dto.AppendMessageResponse, error)
}

type chatService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	sessionRegistry  *memory.SessionRegistry
	eventPublisher   *pkgNats.Publisher
	log              logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	sessionRegistry *memory.SessionRegistry,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		sessionRegistry:  sessionRegistry,
		eventPublisher:   eventPublisher,
		log:              log,
	}
}

func (c *chatService) GetAll(ctx context.Context, userId uuid.UUID) (*dto.ListChatsResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	chats, err := uow.ChatRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, serverutils.StoreUnavailable(err)
	}

	response := &dto.ListChatsResponse{Chats: make([]dto.ChatResponse, 0, len(chats))}
	for _, chat := range chats {
		response.Chats = append(response.Chats, toChatResponse(chat))
	}
	return response, nil
}

func (c *chatService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateChatRequest) (*dto.CreateChatResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = constant.DefaultChatTitle
	}

	chat := entity.Chat{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: time.Now(),
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatRepository().Create(ctx, &chat); err != nil {
		return nil, serverutils.StoreUnavailable(err)
	}

	// A chat created from the landing composer carries its first message;
	// the title is derived from it in the background.
	if seed := strings.TrimSpace(req.Message); seed != "" && title == constant.DefaultChatTitle {
		c.publishRetitle(ctx, chat.Id, seed)
	}

	c.publishEvent(ctx, events.NewChatCreated(chat.Id.String(), userId.String(), chat.Title))

	return &dto.CreateChatResponse{Chat: toChatResponse(&chat)}, nil
}

func (c *chatService) Delete(ctx context.Context, userId uuid.UUID, chatId uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	chat, err := uow.ChatRepository().FindOne(ctx,
		specification.ByID{ID: chatId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return serverutils.StoreUnavailable(err)
	}
	if chat == nil {
		return serverutils.NotFound("chat not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return serverutils.StoreUnavailable(err)
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().DeleteByChatId(ctx, chatId); err != nil {
		return serverutils.StoreUnavailable(err)
	}
	if err := uow.ChatRepository().Delete(ctx, chatId); err != nil {
		return serverutils.StoreUnavailable(err)
	}
	if err := uow.Commit(); err != nil {
		return serverutils.StoreUnavailable(err)
	}

	// The live session (if any) must not outlive its chat.
	c.sessionRegistry.Delete(chatId)

	c.publishEvent(ctx, events.NewChatDeleted(chatId.String(), userId.String()))

	return nil
}

func (c *chatService) GetMessages(ctx context.Context, userId uuid.UUID, chatId uuid.UUID) (*dto.ListMessagesResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	chat, err := uow.ChatRepository().FindOne(ctx,
		specification.ByID{ID: chatId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, serverutils.StoreUnavailable(err)
	}
	if chat == nil {
		return nil, serverutils.NotFound("chat not found")
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByChatID{ChatID: chatId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, serverutils.StoreUnavailable(err)
	}

	response := &dto.ListMessagesResponse{Messages: make([]dto.MessageResponse, 0, len(messages))}
	for _, m := range messages {
		response.Messages = append(response.Messages, toMessageResponse(m))
	}
	return response, nil
}

func (c *chatService) AppendMessage(ctx context.Context, userId uuid.UUID, chatId uuid.UUID, req *dto.AppendMessageRequest) (*dto.AppendMessageResponse, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, serverutils.InvalidArgument("content is required")
	}
	if !entity.ValidRole(req.Role) {
		return nil, serverutils.InvalidArgument("role must be 'user' or 'assistant'")
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)

	chat, err := uow.ChatRepository().FindOne(ctx,
		specification.ByID{ID: chatId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, serverutils.StoreUnavailable(err)
	}
	if chat == nil {
		return nil, serverutils.NotFound("chat not found")
	}

	msg := entity.Message{
		Id:        uuid.New(),
		ChatId:    chatId,
		Content:   req.Content,
		Role:      entity.MessageRole(req.Role),
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, &msg); err != nil {
		return nil, serverutils.StoreUnavailable(err)
	}

	return &dto.AppendMessageResponse{Message: toMessageResponse(&msg)}, nil
}

func (c *chatService) publishRetitle(ctx context.Context, chatId uuid.UUID, seed string) {
	payload, err := json.Marshal(dto.PublishRetitleChatMessage{ChatId: chatId, Seed: seed})
	if err != nil {
		return
	}
	if err := c.publisherService.Publish(ctx, payload); err != nil {
		c.log.Warn("ChatService", "Failed to publish retitle job", map[string]interface{}{
			"chat_id": chatId.String(),
			"error":   err.Error(),
		})
	}
}

// publishEvent emits an audit event. Auxiliary, so failures are logged
// rather than failing the request.
func (c *chatService) publishEvent(ctx context.Context, evt events.Event) {
	if c.eventPublisher == nil {
		return
	}
	if err := c.eventPublisher.Publish(ctx, evt); err != nil {
		c.log.Warn("ChatService", "Failed to publish event", map[string]interface{}{
			"event": evt.EventType(),
			"error": err.Error(),
		})
	}
}

func toChatResponse(chat *entity.Chat) dto.ChatResponse {
	return dto.ChatResponse{
		Id:        chat.Id,
		UserId:    chat.UserId,
		Title:     chat.Title,
		CreatedAt: chat.CreatedAt,
	}
}

func toMessageResponse(m *entity.Message) dto.MessageResponse {
	return dto.MessageResponse{
		Id:        m.Id,
		ChatId:    m.ChatId,
		Content:   m.Content,
		Role:      string(m.Role),
		Metadata:  m.Metadata,
		CreatedAt: m.CreatedAt,
	}
}
