// Package chat defines conversation turns and the bounded shared history
// that supplies the completion service with prior context.
package chat

// Conversation roles understood by the completion service.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn represents a single message in a conversation.
type Turn struct {
	Role    string `json:"role"`    // "system", "user", "assistant"
	Content string `json:"content"` // The message content
}
