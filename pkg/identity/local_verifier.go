package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// LocalVerifier validates HS256 tokens issued by a self-hosted identity
// service sharing a secret with this backend. The subject claim carries the
// principal id.
type LocalVerifier struct {
	secret []byte
}

var _ Verifier = &LocalVerifier{}

func NewLocalVerifier(secret string) *LocalVerifier {
	return &LocalVerifier{secret: []byte(secret)}
}

func (v *LocalVerifier) Verify(ctx context.Context, tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		// Fall back to the user_id claim used by older token issuers
		if raw, found := claims["user_id"].(string); found {
			sub = raw
		} else {
			return uuid.Nil, fmt.Errorf("token missing subject")
		}
	}

	userId, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("subject is not a valid user id: %w", err)
	}
	return userId, nil
}
