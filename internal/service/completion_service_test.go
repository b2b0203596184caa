package service

import (
	"context"
	"testing"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteSingleMessage(t *testing.T) {
	svc := NewCompletionService(&fakeLLMProvider{reply: "Hi!"}, "gpt-5.1")

	res, err := svc.Complete(context.Background(), &dto.CompletionRequest{Message: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hi!", res.Message)
}

func TestCompleteRejectsEmptyRequest(t *testing.T) {
	svc := NewCompletionService(&fakeLLMProvider{reply: "Hi!"}, "gpt-5.1")

	_, err := svc.Complete(context.Background(), &dto.CompletionRequest{Message: "   "})
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.KindInvalidArgument, appErr.Kind)
}

func TestCompleteHistoryWinsOverSingleMessage(t *testing.T) {
	svc := NewCompletionService(&fakeLLMProvider{reply: "ok"}, "gpt-5.1")

	res, err := svc.Complete(context.Background(), &dto.CompletionRequest{
		Message: "ignored",
		Messages: []dto.CompletionMessage{
			{Role: "user", Content: "first"},
			{Role: "assistant", Content: "second"},
			{Role: "user", Content: "third"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Message)
}

func TestCompleteMapsUnconfiguredProvider(t *testing.T) {
	svc := NewCompletionService(&fakeLLMProvider{err: llm.ErrUnconfigured}, "gpt-5.1")

	_, err := svc.Complete(context.Background(), &dto.CompletionRequest{Message: "Hello"})
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.KindUnconfigured, appErr.Kind)
}

func TestCompleteMapsProviderFailure(t *testing.T) {
	svc := NewCompletionService(&fakeLLMProvider{err: &llm.ProviderError{Status: 500, Detail: "boom"}}, "gpt-5.1")

	_, err := svc.Complete(context.Background(), &dto.CompletionRequest{Message: "Hello"})
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.KindProviderError, appErr.Kind)
}

func TestCompleteMapsCancellation(t *testing.T) {
	svc := NewCompletionService(&fakeLLMProvider{err: context.Canceled}, "gpt-5.1")

	_, err := svc.Complete(context.Background(), &dto.CompletionRequest{Message: "Hello"})
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.KindCancelled, appErr.Kind)
}
