package model

import "context"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Provider is a text-generation backend. The planning pipeline only needs
// plain text completions; structured output is negotiated via the prompt and
// ForceJSON, not provider-native tool calling.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
	ForceJSON    bool
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type CompletionResponse struct {
	Content    string
	Model      string
	StopReason string
	Usage      Usage
}

type Usage struct {
	InputTokens  int64
	OutputTokens int64
}
