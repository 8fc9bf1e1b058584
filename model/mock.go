package model

import (
	"context"
	"fmt"
	"iter"
)

// MockProvider is a lightweight in‑memory Provider useful for tests & examples.
type MockProvider struct {
	info      Info
	toolRole  Role
	responses map[string]string
}

// NewMockProvider constructs a MockProvider with basic tool support enabled.
func NewMockProvider(name, provider string) *MockProvider {
	return &MockProvider{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		toolRole:  RoleTool,
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockProvider) AddResponse(prompt, response string) { m.responses[prompt] = response }

// SetToolRole overrides the role reported by ToolRole.
func (m *MockProvider) SetToolRole(role Role) { m.toolRole = role }

// Completion implements Provider; emits optional streaming rune chunks then a
// final response carrying the finish reason.
func (m *MockProvider) Completion(ctx context.Context, messages []Message, stream bool) iter.Seq[Response] {
	return func(yield func(Response) bool) {
		if len(messages) == 0 {
			yield(Response{Err: fmt.Errorf("no messages provided")})
			return
		}
		input := messages[len(messages)-1].Content
		full, ok := m.responses[input]
		if !ok {
			full = fmt.Sprintf("Mock response to: %s", input)
		}
		if !stream {
			yield(Response{Content: full, FinishReason: FinishStop})
			return
		}
		for _, r := range full {
			if err := ctx.Err(); err != nil {
				yield(Response{Err: err})
				return
			}
			if !yield(Response{Content: string(r)}) {
				return
			}
		}
		yield(Response{FinishReason: FinishStop})
	}
}

// ToolRole implements Provider.
func (m *MockProvider) ToolRole() Role { return m.toolRole }

// Info implements Provider.
func (m *MockProvider) Info() Info { return m.info }
