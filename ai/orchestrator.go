package ai

import (
	"context"
	"fmt"
	"time"
)

const (
	// Report text is truncated positionally so a long report cannot blow
	// up request size. Chat gets a smaller share because history takes
	// part of the budget.
	explainTextLimit = 8000
	chatTextLimit    = 6000

	explainMaxTokens = 1500
	chatMaxTokens    = 800

	// Only the most recent turns are forwarded; the client resends full
	// history every turn and nothing bounds its growth otherwise.
	maxHistoryTurns = 20

	completionTimeout = 60 * time.Second
)

// Orchestrator builds bounded-context prompts and maps completion results
// back to user-facing answers.
type Orchestrator struct {
	completer Completer
}

// NewOrchestrator wraps a Completer.
func NewOrchestrator(completer Completer) *Orchestrator {
	return &Orchestrator{completer: completer}
}

// Explain asks for a plain-language summary of the report text.
func (o *Orchestrator) Explain(ctx context.Context, reportText string) (string, error) {
	messages := []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{
			Role: RoleUser,
			Content: fmt.Sprintf(
				"Please provide a comprehensive summary and explanation of this medical report in simple, patient-friendly language:\n\n%s",
				truncate(reportText, explainTextLimit)),
		},
	}
	return o.complete(ctx, messages, explainMaxTokens)
}

// Chat answers a follow-up question about the report, grounding every turn
// with the report text and replaying the caller-supplied history in order.
func (o *Orchestrator) Chat(ctx context.Context, reportText, question string, history []Message) (string, error) {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{
		Role:    RoleSystem,
		Content: fmt.Sprintf("%s\n\nReport content:\n%s", systemPrompt, truncate(reportText, chatTextLimit)),
	})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: RoleUser, Content: question})

	return o.complete(ctx, messages, chatMaxTokens)
}

func (o *Orchestrator) complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()
	return o.completer.Complete(ctx, messages, maxTokens)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
