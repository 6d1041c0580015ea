package llm

import (
	"context"
	"sync"
)

// ScriptedProvider returns a predefined sequence of completions for
// deterministic testing. It records each request so tests can assert on
// the prompts the agent actually sent.
type ScriptedProvider struct {
	mu        sync.Mutex
	responses []string
	index     int
	requests  []CompletionRequest
}

// NewScriptedProvider creates a provider replaying the given raw
// completions in order.
func NewScriptedProvider(responses ...string) *ScriptedProvider {
	return &ScriptedProvider{responses: responses}
}

// Name returns the provider name.
func (p *ScriptedProvider) Name() string {
	return "scripted"
}

// Complete returns the next scripted completion. Past the end of the
// script it keeps returning the last response, which lets tests script a
// terminal answer once.
func (p *ScriptedProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)

	if len(p.responses) == 0 {
		return CompletionResponse{}, &APIError{Type: "scripted", Message: "no responses scripted"}
	}

	i := p.index
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	} else {
		p.index++
	}

	return CompletionResponse{
		Model:   req.Model,
		Message: Message{Role: "assistant", Content: p.responses[i]},
	}, nil
}

// Requests returns a copy of the requests seen so far.
func (p *ScriptedProvider) Requests() []CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]CompletionRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// Calls returns how many completions have been served.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}
