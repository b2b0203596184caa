package service

import (
	"context"
	"errors"
	"strings"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/pkg/llm"
)

// ICompletionService is the stateless one-shot completion path. It never
// touches persisted chats; history comes entirely from the request.
type ICompletionService interface {
	Complete(ctx context.Context, req *dto.CompletionRequest) (*dto.CompletionResponse, error)
}

type completionService struct {
	llmProvider  llm.LLMProvider
	defaultModel string
}

func NewCompletionService(llmProvider llm.LLMProvider, defaultModel string) ICompletionService {
	return &completionService{
		llmProvider:  llmProvider,
		defaultModel: defaultModel,
	}
}

func (c *completionService) Complete(ctx context.Context, req *dto.CompletionRequest) (*dto.CompletionResponse, error) {
	history := make([]llm.Message, 0, len(req.Messages)+1)
	if len(req.Messages) > 0 {
		for _, m := range req.Messages {
			history = append(history, llm.Message{Role: m.Role, Content: m.Content})
		}
	} else if strings.TrimSpace(req.Message) != "" {
		history = append(history, llm.Message{Role: "user", Content: req.Message})
	}
	if len(history) == 0 {
		return nil, serverutils.InvalidArgument("message or messages is required")
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	reply, err := c.llmProvider.Chat(ctx, history, llm.WithModel(model))
	if err != nil {
		switch {
		case errors.Is(err, llm.ErrUnconfigured):
			return nil, serverutils.Unconfigured("completion provider is not configured")
		case llm.IsCancelled(err):
			return nil, serverutils.Cancelled("completion request withdrawn")
		default:
			return nil, serverutils.ProviderError("completion request failed", err)
		}
	}

	return &dto.CompletionResponse{Message: reply}, nil
}
