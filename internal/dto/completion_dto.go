package dto

type CompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest accepts either a single message or a full history.
// When both are present the history wins.
type CompletionRequest struct {
	Message  string              `json:"message,omitempty"`
	Messages []CompletionMessage `json:"messages,omitempty"`
	Model    string              `json:"model,omitempty"`
}

type CompletionResponse struct {
	Message string `json:"message"`
}
