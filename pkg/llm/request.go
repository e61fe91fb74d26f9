package llm

import "github.com/govorun-ai/govorun/pkg/chat"

// ChatRequest represents a chat completion request (OpenAI-compatible).
type ChatRequest struct {
	Model     string      `json:"model"`                // Model name (e.g., "gpt-4o-mini")
	Messages  []chat.Turn `json:"messages"`             // System prompt, then history, then the new user turn
	MaxTokens int         `json:"max_tokens,omitempty"` // Reply length bound
}
