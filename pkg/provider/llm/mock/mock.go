// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to verify that the escalation client sends
// correct CompletionRequests and to feed controlled model output without a
// live backend.
//
// Example:
//
//	p := &mock.Provider{
//	    Response: &llm.CompletionResponse{Content: `{"intent":"llm_response","text_response":"Hi!"}`},
//	}
//	resp, err := p.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/BharatDhande/Vaani/pkg/provider/llm"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the CompletionRequest passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider. Zero values for response
// fields cause Complete to return (nil, nil); set Err to inject errors.
type Provider struct {
	mu sync.Mutex

	// Response is returned by Complete. May be nil.
	Response *llm.CompletionResponse

	// Err, if non-nil, is returned as the error from Complete.
	Err error

	// Delay, if set, is a function invoked before Complete returns. It can
	// block on ctx.Done() to simulate a slow or hung backend.
	Delay func(ctx context.Context) error

	// ModelName is returned by Model. Defaults to "mock".
	ModelName string

	// Calls records every invocation of Complete, in order.
	Calls []CompleteCall
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, CompleteCall{Ctx: ctx, Req: req})
	delay := p.Delay
	resp, err := p.Response, p.Err
	p.mu.Unlock()

	if delay != nil {
		if derr := delay(ctx); derr != nil {
			return nil, derr
		}
	}
	return resp, err
}

// Model implements llm.Provider.
func (p *Provider) Model() string {
	if p.ModelName == "" {
		return "mock"
	}
	return p.ModelName
}

// CallCount returns the number of Complete invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}

// Compile-time check that Provider satisfies llm.Provider.
var _ llm.Provider = (*Provider)(nil)
