package handler

import (
	"ai-chat-be/internal/pkg/logger"
	internalWS "ai-chat-be/internal/websocket"
	"ai-chat-be/pkg/identity"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// TurnStreamHandler upgrades authenticated clients to a websocket that
// receives turn-resolved events for their chats.
type TurnStreamHandler struct {
	verifier identity.Verifier
	hub      *internalWS.Hub
	logger   logger.ILogger
}

func NewTurnStreamHandler(verifier identity.Verifier, hub *internalWS.Hub, log logger.ILogger) *TurnStreamHandler {
	return &TurnStreamHandler{
		verifier: verifier,
		hub:      hub,
		logger:   log,
	}
}

func (h *TurnStreamHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", h.ServeWs)
}

// ServeWs handles websocket requests from the peer.
func (h *TurnStreamHandler) ServeWs(c *fiber.Ctx) error {
	// Browsers cannot set headers on websocket handshakes, so the token may
	// ride in a query param instead.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	userID, err := h.verifier.Verify(c.Context(), tokenStr)
	if err != nil {
		h.logger.Warn("TurnStreamHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("TurnStreamHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
			internalWS.ServeWs(h.hub, conn, userID)
			h.logger.Info("TurnStreamHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}
