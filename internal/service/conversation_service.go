package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/repository/memory"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/internal/websocket"
	"ai-chat-be/pkg/events"
	"ai-chat-be/pkg/llm"
	pkgNats "ai-chat-be/pkg/nats"
	"ai-chat-be/pkg/session"

	"github.com/google/uuid"
)

type IConversationService interface {
	SendTurn(ctx context.Context, userId uuid.UUID, chatId uuid.UUID, req *dto.SendTurnRequest) (*dto.SendTurnResponse, error)
	CancelTurn(ctx context.Context, userId uuid.UUID, chatId uuid.UUID) (*dto.CancelTurnResponse, error)
	GetTranscript(ctx context.Context, userId uuid.UUID, chatId uuid.UUID) (*dto.TranscriptResponse, error)
}

type conversationService struct {
	uowFactory       unitofwork.RepositoryFactory
	sessionRegistry  *memory.SessionRegistry
	llmProvider      llm.LLMProvider
	publisherService IPublisherService
	eventPublisher   *pkgNats.Publisher
	hub              *websocket.Hub
	defaultModel     string
	log              logger.ILogger

	store     session.Store
	completer session.Completer
}

func NewConversationService(
	uowFactory unitofwork.RepositoryFactory,
	sessionRegistry *memory.SessionRegistry,
	llmProvider llm.LLMProvider,
	publisherService IPublisherService,
	eventPublisher *pkgNats.Publisher,
	hub *websocket.Hub,
	defaultModel string,
	log logger.ILogger,
) IConversationService {
	return &conversationService{
		uowFactory:       uowFactory,
		sessionRegistry:  sessionRegistry,
		llmProvider:      llmProvider,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		hub:              hub,
		defaultModel:     defaultModel,
		log:              log,
		store:            &messageStore{uowFactory: uowFactory},
		completer:        &providerCompleter{provider: llmProvider},
	}
}

func (c *conversationService) SendTurn(ctx context.Context, userId uuid.UUID, chatId uuid.UUID, req *dto.SendTurnRequest) (*dto.SendTurnResponse, error) {
	sess, err := c.getOrCreateSession(ctx, userId, chatId)
	if err != nil {
		return nil, err
	}

	firstTurn := len(sess.Entries()) == 0

	sent, done, err := sess.Submit(ctx, req.Text, req.Model)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrEmptyMessage):
			return nil, serverutils.InvalidArgument("text is required")
		case errors.Is(err, session.ErrBusy):
			return nil, serverutils.InvalidArgument("a turn is already in flight for this chat")
		default:
			return nil, serverutils.StoreUnavailable(err)
		}
	}

	// First submission into a placeholder-titled chat seeds the title.
	if firstTurn {
		c.publishRetitle(ctx, chatId, sent.Content)
	}

	result := <-done

	outcome := "success"
	switch {
	case result.Cancelled:
		outcome = "cancelled"
	case result.Err != nil:
		outcome = "failure"
	}

	c.publishEvent(ctx, events.NewTurnCompleted(chatId.String(), userId.String(), sess.Model(), outcome))
	c.notifyTurn(userId, chatId, sess.State().String(), result.Reply, outcome)

	return &dto.SendTurnResponse{
		Sent:      toTurnEntry(sent),
		Reply:     toTurnEntry(result.Reply),
		State:     sess.State().String(),
		Cancelled: result.Cancelled,
	}, nil
}

func (c *conversationService) CancelTurn(ctx context.Context, userId uuid.UUID, chatId uuid.UUID) (*dto.CancelTurnResponse, error) {
	sess, found := c.sessionRegistry.Get(chatId)
	if !found || sess.UserId() != userId {
		return nil, serverutils.NotFound("chat not found")
	}

	cancelled := sess.Cancel()
	return &dto.CancelTurnResponse{
		Cancelled: cancelled,
		State:     sess.State().String(),
	}, nil
}

func (c *conversationService) GetTranscript(ctx context.Context, userId uuid.UUID, chatId uuid.UUID) (*dto.TranscriptResponse, error) {
	sess, err := c.getOrCreateSession(ctx, userId, chatId)
	if err != nil {
		return nil, err
	}

	entries := sess.Entries()
	response := &dto.TranscriptResponse{
		ChatId:  chatId,
		State:   sess.State().String(),
		Model:   sess.Model(),
		Entries: make([]dto.TurnEntry, 0, len(entries)),
	}
	for _, e := range entries {
		response.Entries = append(response.Entries, toTurnEntry(e))
	}
	return response, nil
}

// getOrCreateSession returns the live session for the chat, building one
// from persisted truth on first access. Ownership is verified before any
// session state is exposed; a foreign chat reads as not found.
func (c *conversationService) getOrCreateSession(ctx context.Context, userId uuid.UUID, chatId uuid.UUID) (*session.Session, error) {
	if sess, found := c.sessionRegistry.Get(chatId); found {
		if sess.UserId() != userId {
			return nil, serverutils.NotFound("chat not found")
		}
		return sess, nil
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

	sess := session.New(chatId, userId, c.defaultModel, c.store, c.completer, c.log)
	if err := sess.Reload(ctx); err != nil {
		return nil, serverutils.StoreUnavailable(err)
	}

	c.sessionRegistry.Save(chatId, sess)
	return sess, nil
}

func (c *conversationService) publishRetitle(ctx context.Context, chatId uuid.UUID, seed string) {
	payload, err := json.Marshal(dto.PublishRetitleChatMessage{ChatId: chatId, Seed: seed})
	if err != nil {
		return
	}
	if err := c.publisherService.Publish(ctx, payload); err != nil {
		c.log.Warn("ConversationService", "Failed to publish retitle job", map[string]interface{}{
			"chat_id": chatId.String(),
			"error":   err.Error(),
		})
	}
}

func (c *conversationService) publishEvent(ctx context.Context, evt events.Event) {
	if c.eventPublisher == nil {
		return
	}
	if err := c.eventPublisher.Publish(ctx, evt); err != nil {
		c.log.Warn("ConversationService", "Failed to publish event", map[string]interface{}{
			"event": evt.EventType(),
			"error": err.Error(),
		})
	}
}

func (c *conversationService) notifyTurn(userId uuid.UUID, chatId uuid.UUID, state string, reply session.Entry, outcome string) {
	if c.hub == nil {
		return
	}
	c.hub.NotifyTurn(userId, websocket.TurnEvent{
		ChatId:  chatId,
		State:   state,
		Outcome: outcome,
		Reply: websocket.TurnReply{
			Id:        reply.Id,
			Role:      string(reply.Role),
			Content:   reply.Content,
			CreatedAt: reply.CreatedAt,
		},
	})
}

func toTurnEntry(e session.Entry) dto.TurnEntry {
	return dto.TurnEntry{
		Id:        e.Id,
		Role:      string(e.Role),
		Content:   e.Content,
		CreatedAt: e.CreatedAt,
	}
}

// messageStore adapts the repository layer to the session's Store contract.
type messageStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func (s *messageStore) AppendMessage(ctx context.Context, chatId uuid.UUID, content string, role entity.MessageRole, metadata map[string]interface{}) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.MessageRepository().Create(ctx, &entity.Message{
		Id:        uuid.New(),
		ChatId:    chatId,
		Content:   content,
		Role:      role,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	})
}

func (s *messageStore) ListMessages(ctx context.Context, chatId uuid.UUID) ([]*entity.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.MessageRepository().FindAll(ctx,
		specification.ByChatID{ChatID: chatId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
}

// providerCompleter adapts an LLMProvider to the session's Completer contract.
type providerCompleter struct {
	provider llm.LLMProvider
}

func (p *providerCompleter) Complete(ctx context.Context, history []llm.Message, model string) (string, error) {
	return p.provider.Chat(ctx, history, llm.WithModel(model))
}
