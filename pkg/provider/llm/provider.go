// Package llm defines the Provider interface for the LLM escalation tier.
//
// A provider wraps a remote or local model API (OpenAI, OpenRouter, Ollama,
// Anthropic, ...) and exposes a uniform completion call so the escalation
// client never couples to a specific SDK. The escalation client always asks
// for a single structured completion; streaming happens, if at all, at the
// transport layer on the already-assembled spoken text, because a model
// constrained to emit one JSON object cannot be usefully streamed token by
// token.
//
// Implementations must be safe for concurrent use and must propagate context
// cancellation promptly — the router's latency budget depends on it.
package llm

import "context"

// Message is a single entry in the conversation history sent to the model.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting information returned by the backend. Counts
// are in the model's native token unit and differ between providers for the
// same text.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the model needs to produce a response.
// Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation history. The last message is the
	// user utterance being resolved.
	Messages []Message

	// SystemPrompt is a high-priority instruction injected before the
	// history. Providers without a dedicated system slot must prepend it as a
	// "system"-role message.
	SystemPrompt string

	// Temperature controls output randomness in [0.0, 2.0]. The escalation
	// client runs near zero to keep the JSON output deterministic.
	Temperature float64

	// MaxTokens caps completion length. Zero means the provider default.
	MaxTokens int
}

// CompletionResponse is the full (non-streamed) model reply.
type CompletionResponse struct {
	// Content is the raw text of the reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	// Returns an error if the request fails or ctx is cancelled first.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Model returns the configured model identifier, for logs and health
	// reporting only.
	Model() string
}
