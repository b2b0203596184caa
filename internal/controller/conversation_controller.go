package controller

import (
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IConversationController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	SendTurn(ctx *fiber.Ctx) error
	CancelTurn(ctx *fiber.Ctx) error
	GetTranscript(ctx *fiber.Ctx) error
}

type conversationController struct {
	conversationService service.IConversationService
}

func NewConversationController(conversationService service.IConversationService) IConversationController {
	return &conversationController{
		conversationService: conversationService,
	}
}

func (c *conversationController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/chats")
	h.Use(auth)
	h.Post(":id/turns", c.SendTurn)
	h.Post(":id/turns/cancel", c.CancelTurn)
	h.Get(":id/transcript", c.GetTranscript)
}

func (c *conversationController) SendTurn(ctx *fiber.Ctx) error {
	userId, err := principalId(ctx)
	if err != nil {
		return err
	}

	chatId, err := chatIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.SendTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.InvalidArgument("malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.conversationService.SendTurn(ctx.Context(), userId, chatId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *conversationController) CancelTurn(ctx *fiber.Ctx) error {
	userId, err := principalId(ctx)
	if err != nil {
		return err
	}

	chatId, err := chatIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.conversationService.CancelTurn(ctx.Context(), userId, chatId)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *conversationController) GetTranscript(ctx *fiber.Ctx) error {
	userId, err := principalId(ctx)
	if err != nil {
		return err
	}

	chatId, err := chatIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.conversationService.GetTranscript(ctx.Context(), userId, chatId)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}
