package bootstrap

import (
	"context"
	"log"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/controller"
	"ai-chat-be/internal/handler"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/repository/memory"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/internal/service"
	"ai-chat-be/internal/websocket"
	"ai-chat-be/pkg/identity"
	"ai-chat-be/pkg/llm/factory"

	pkgNats "ai-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController         controller.IChatController
	ConversationController controller.IConversationController
	CompletionController   controller.ICompletionController

	// Middleware
	AuthMiddleware fiber.Handler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	TurnStreamHandler *handler.TurnStreamHandler
	WebSocketHub      *websocket.Hub

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Identity Verifier
	var verifier identity.Verifier
	if cfg.Identity.Mode == "local" {
		verifier = identity.NewLocalVerifier(cfg.Identity.JWTSecret)
		log.Println("[INFO] Using Identity Verifier: LOCAL (HS256)")
	} else {
		verifier = identity.NewRemoteVerifier(cfg.Identity.BaseURL, cfg.Identity.AnonKey)
		log.Printf("[INFO] Using Identity Verifier: REMOTE (%s)", cfg.Identity.BaseURL)
	}

	// 3. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 4. LLM Provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.Provider,
		cfg.Ai.DefaultModel,
		cfg.Ai.BaseURL,
		cfg.Ai.APIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.Provider, cfg.Ai.DefaultModel)

	// 5. In-Memory Session Registry
	sessionRegistry := memory.NewSessionRegistry()

	// 6. Infrastructure
	// NATS
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		rdb = nil
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/turn_stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 7. Services
	publisherService := service.NewPublisherService(pubSub, cfg.App.RetitleTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.RetitleTopic,
		uowFactory,
		sysLogger,
	)

	chatService := service.NewChatService(uowFactory, publisherService, sessionRegistry, natsPub, sysLogger)
	conversationService := service.NewConversationService(
		uowFactory,
		sessionRegistry,
		llmProvider,
		publisherService,
		natsPub,
		wsHub,
		cfg.Ai.DefaultModel,
		sysLogger,
	)
	completionService := service.NewCompletionService(llmProvider, cfg.Ai.DefaultModel)

	turnStreamHandler := handler.NewTurnStreamHandler(verifier, wsHub, wsLogger)

	// 8. Controllers
	return &Container{
		ChatController:         controller.NewChatController(chatService),
		ConversationController: controller.NewConversationController(conversationService),
		CompletionController:   controller.NewCompletionController(completionService),
		AuthMiddleware:         serverutils.AuthMiddleware(verifier),
		ConsumerService:        consumerService,
		TurnStreamHandler:      turnStreamHandler,
		WebSocketHub:           wsHub,
		Logger:                 sysLogger,
	}
}
