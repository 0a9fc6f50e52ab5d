package protocol

import "context"

// Message is a single chat turn sent to the language model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMClient is the opaque language-model collaborator used inside domain
// handlers. The engine never interprets the returned text.
type LLMClient interface {
	GenerateResponse(ctx context.Context, messages []Message) (string, error)
}
