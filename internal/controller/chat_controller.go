package controller

import (
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	ListMessages(ctx *fiber.Ctx) error
	AppendMessage(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/chats")
	h.Use(auth)
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Delete(":id", c.Delete)
	h.Get(":id/messages", c.ListMessages)
	h.Post(":id/messages", c.AppendMessage)
}

func (c *chatController) List(ctx *fiber.Ctx) error {
	userId, err := principalId(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.GetAll(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *chatController) Create(ctx *fiber.Ctx) error {
	userId, err := principalId(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.InvalidArgument("malformed request body")
	}

	res, err := c.chatService.Create(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *chatController) Delete(ctx *fiber.Ctx) error {
	userId, err := principalId(ctx)
	if err != nil {
		return err
	}

	chatId, err := chatIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.chatService.Delete(ctx.Context(), userId, chatId); err != nil {
		return err
	}

	return ctx.JSON(dto.DeleteChatResponse{Success: true})
}

func (c *chatController) ListMessages(ctx *fiber.Ctx) error {
	userId, err := principalId(ctx)
	if err != nil {
		return err
	}

	chatId, err := chatIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.GetMessages(ctx.Context(), userId, chatId)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *chatController) AppendMessage(ctx *fiber.Ctx) error {
	userId, err := principalId(ctx)
	if err != nil {
		return err
	}

	chatId, err := chatIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.AppendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.InvalidArgument("malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.AppendMessage(ctx.Context(), userId, chatId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

// principalId reads the principal set by the auth middleware.
func principalId(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, serverutils.Unauthorized("Invalid token")
	}
	return userId, nil
}

func chatIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	chatId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, serverutils.InvalidArgument("invalid chat id")
	}
	return chatId, nil
}
