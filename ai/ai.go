// Package ai produces grounded plain-language answers about a report's
// extracted text via an external chat-completion service.
package ai

import "context"

// Message roles, matching the completion service's chat contract.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer generates a single answer from an ordered message sequence.
type Completer interface {
	Complete(ctx context.Context, messages []Message, maxTokens int) (string, error)
}
