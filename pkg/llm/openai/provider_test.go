package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-chat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatReturnsReply(t *testing.T) {
	var gotPayload chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "Hello there"}},
			},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "test-key", "gpt-5.1")
	reply, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "Hi"}})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", reply)

	assert.Equal(t, "gpt-5.1", gotPayload.Model)
	assert.InDelta(t, 0.7, gotPayload.Temperature, 1e-9)
	require.Len(t, gotPayload.Messages, 1)
	assert.Equal(t, "user", gotPayload.Messages[0].Role)
}

func TestChatModelOverrideAndRoleMapping(t *testing.T) {
	var gotPayload chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "test-key", "gpt-5.1")
	_, err := p.Chat(context.Background(),
		[]llm.Message{
			{Role: "user", Content: "Hi"},
			{Role: "model", Content: "Older reply"},
		},
		llm.WithModel("gpt-4o-mini"),
	)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", gotPayload.Model)
	require.Len(t, gotPayload.Messages, 2)
	assert.Equal(t, "assistant", gotPayload.Messages[1].Role)
}

func TestChatMissingKeyIsUnconfigured(t *testing.T) {
	p := NewOpenAIProvider("", "", "gpt-5.1")
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "Hi"}})
	assert.ErrorIs(t, err, llm.ErrUnconfigured)
}

func TestChatProviderErrorCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "rate limit exceeded"},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "test-key", "gpt-5.1")
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "Hi"}})

	var provErr *llm.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, http.StatusTooManyRequests, provErr.Status)
	assert.Equal(t, "rate limit exceeded", provErr.Detail)
}

func TestChatEmptyChoicesIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "test-key", "gpt-5.1")
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "Hi"}})

	var provErr *llm.ProviderError
	assert.True(t, errors.As(err, &provErr))
}

func TestChatCancellationIsDetectable(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The body must be drained or the server never notices the client
		// going away and Close hangs.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	p := NewOpenAIProvider(srv.URL, "test-key", "gpt-5.1")
	_, err := p.Chat(ctx, []llm.Message{{Role: "user", Content: "Hi"}})
	require.Error(t, err)
	assert.True(t, llm.IsCancelled(err))
}
