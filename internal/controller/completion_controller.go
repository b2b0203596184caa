package controller

import (
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICompletionController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Complete(ctx *fiber.Ctx) error
}

type completionController struct {
	completionService service.ICompletionService
}

func NewCompletionController(completionService service.ICompletionService) ICompletionController {
	return &completionController{
		completionService: completionService,
	}
}

func (c *completionController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/chat")
	h.Use(auth)
	h.Post("", c.Complete)
}

func (c *completionController) Complete(ctx *fiber.Ctx) error {
	if _, err := principalId(ctx); err != nil {
		return err
	}

	var req dto.CompletionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.InvalidArgument("malformed request body")
	}

	res, err := c.completionService.Complete(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}
