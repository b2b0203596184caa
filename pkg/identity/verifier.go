package identity

import (
	"context"

	"github.com/google/uuid"
)

// Verifier resolves a bearer credential to the authenticated principal.
// Implementations must not cache results; the credential is validated on
// every request.
type Verifier interface {
	Verify(ctx context.Context, token string) (uuid.UUID, error)
}
