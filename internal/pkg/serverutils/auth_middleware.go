package serverutils

import (
	"strings"

	"ai-chat-be/pkg/identity"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates the bearer credential on every request and
// stores the resolved principal id in ctx.Locals("user_id"). The token is
// verified against the identity provider per request; nothing is cached
// locally.
func AuthMiddleware(verifier identity.Verifier) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return Unauthorized("Missing token")
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		userId, err := verifier.Verify(ctx.Context(), token)
		if err != nil {
			return Unauthorized("Invalid token")
		}

		ctx.Locals("user_id", userId.String())
		return ctx.Next()
	}
}
