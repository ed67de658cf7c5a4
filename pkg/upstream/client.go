// Package upstream is the thin, stateful adapter to the external LLM
// gateway. It exposes exactly three primitives — create assistant, create
// thread, send message — and isolates the rest of the system from the
// gateway's mixed JSON/form-encoded wire dialect.
package upstream

import "context"

// Client is the interface the rest of the core depends on. HTTPClient is
// the only implementation that talks to the gateway; RetryingClient wraps
// another Client; tests use an in-memory fake.
type Client interface {
	CreateAssistant(ctx context.Context, name, systemPrompt string) (assistantID string, err error)
	CreateThread(ctx context.Context, assistantID string) (threadID string, err error)
	SendMessage(ctx context.Context, threadID, content, model, provider string) (reply string, err error)
}
