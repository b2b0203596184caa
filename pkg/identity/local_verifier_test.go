package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyResolvesSubject(t *testing.T) {
	userId := uuid.New()
	tokenStr := signToken(t, testSecret, jwt.MapClaims{
		"sub": userId.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	v := NewLocalVerifier(testSecret)
	got, err := v.Verify(context.Background(), tokenStr)
	require.NoError(t, err)
	assert.Equal(t, userId, got)
}

func TestVerifyFallsBackToUserIdClaim(t *testing.T) {
	userId := uuid.New()
	tokenStr := signToken(t, testSecret, jwt.MapClaims{
		"user_id": userId.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	v := NewLocalVerifier(testSecret)
	got, err := v.Verify(context.Background(), tokenStr)
	require.NoError(t, err)
	assert.Equal(t, userId, got)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tokenStr := signToken(t, "other-secret", jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	v := NewLocalVerifier(testSecret)
	_, err := v.Verify(context.Background(), tokenStr)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	tokenStr := signToken(t, testSecret, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	v := NewLocalVerifier(testSecret)
	_, err := v.Verify(context.Background(), tokenStr)
	assert.Error(t, err)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	tokenStr := signToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	v := NewLocalVerifier(testSecret)
	_, err := v.Verify(context.Background(), tokenStr)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	v := NewLocalVerifier(testSecret)
	_, err := v.Verify(context.Background(), "not-a-token")
	assert.Error(t, err)
}
