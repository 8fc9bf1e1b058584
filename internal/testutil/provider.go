package testutil

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/hupe1980/chatcore/model"
)

// ErrScriptExhausted is emitted when a ScriptedProvider is called more often
// than it has turns.
var ErrScriptExhausted = errors.New("scripted provider: no turns left")

// ScriptedProvider replays one scripted turn per Completion call and records
// the messages it was called with.
type ScriptedProvider struct {
	mu       sync.Mutex
	turns    [][]model.Response
	calls    [][]model.Message
	streams  []bool
	toolRole model.Role
	info     model.Info
}

// NewScriptedProvider creates a provider replaying turns in order.
func NewScriptedProvider(turns ...[]model.Response) *ScriptedProvider {
	return &ScriptedProvider{
		turns:    turns,
		toolRole: model.RoleTool,
		info:     model.Info{Name: "scripted-model", Provider: "scripted", SupportsTools: true},
	}
}

// WithToolRole overrides the reported tool role (chainable).
func (p *ScriptedProvider) WithToolRole(role model.Role) *ScriptedProvider {
	p.toolRole = role
	return p
}

// Completion implements model.Provider.
func (p *ScriptedProvider) Completion(_ context.Context, messages []model.Message, stream bool) iter.Seq[model.Response] {
	p.mu.Lock()
	n := len(p.calls)
	p.calls = append(p.calls, messages)
	p.streams = append(p.streams, stream)
	var responses []model.Response
	if n < len(p.turns) {
		responses = p.turns[n]
	}
	exhausted := n >= len(p.turns)
	p.mu.Unlock()

	return func(yield func(model.Response) bool) {
		if exhausted {
			yield(model.Response{Err: ErrScriptExhausted})
			return
		}
		for _, r := range responses {
			if !yield(r) {
				return
			}
		}
	}
}

// ToolRole implements model.Provider.
func (p *ScriptedProvider) ToolRole() model.Role { return p.toolRole }

// Info implements model.Provider.
func (p *ScriptedProvider) Info() model.Info { return p.info }

// Calls returns how often Completion was called.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// Messages returns the messages passed to the i-th Completion call.
func (p *ScriptedProvider) Messages(i int) []model.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[i]
}

// Streamed reports the stream flag of the i-th Completion call.
func (p *ScriptedProvider) Streamed(i int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streams[i]
}
