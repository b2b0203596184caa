package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any completion backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// ErrUnconfigured is returned when the provider has no credential. Fatal,
// never retried.
var ErrUnconfigured = errors.New("llm: provider credential not configured")

// ProviderError carries a non-success provider response. Surfaced with the
// provider-supplied detail, never retried.
type ProviderError struct {
	Status int
	Detail string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm: provider error (status %d): %s", e.Status, e.Detail)
}

// IsCancelled reports whether the completion failed because the caller
// withdrew the request. Distinguished from ProviderError so callers can
// suppress user-facing error noise.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
