package llm

import "github.com/govorun-ai/govorun/pkg/chat"

// ChatResponse represents a chat completion response (OpenAI-compatible).
type ChatResponse struct {
	ID      string   `json:"id"`      // Request identifier assigned by the service
	Model   string   `json:"model"`   // Model that generated the response
	Created int64    `json:"created"` // Unix timestamp
	Choices []Choice `json:"choices"` // Candidate completions, at least one on success
	Usage   Usage    `json:"usage"`   // Token accounting
}

// Choice is one candidate completion.
type Choice struct {
	Index        int       `json:"index"`
	Message      chat.Turn `json:"message"`
	FinishReason string    `json:"finish_reason"`
}

// Usage reports token counts for the request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
