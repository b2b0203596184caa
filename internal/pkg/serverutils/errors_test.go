package serverutils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		kind ErrorKind
		want int
	}{
		{KindUnauthorized, 401},
		{KindInvalidArgument, 400},
		{KindNotFound, 404},
		{KindStoreUnavailable, 500},
		{KindProviderError, 500},
		{KindUnconfigured, 500},
		{KindCancelled, 499},
	}
	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.kind.StatusCode())
		})
	}
}

func TestAsAppErrorUnwrapsChain(t *testing.T) {
	inner := NotFound("chat not found")
	wrapped := fmt.Errorf("handling request: %w", inner)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, appErr.Kind)
	assert.Equal(t, "chat not found", appErr.Message)
}

func TestAsAppErrorRejectsPlainError(t *testing.T) {
	_, ok := AsAppError(errors.New("boom"))
	assert.False(t, ok)
}

func TestStoreUnavailableKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := StoreUnavailable(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "connection refused", err.Detail)
	assert.Contains(t, err.Error(), "store_unavailable")
}
