package testutil

import (
	"context"
	"fmt"
	"sync"
)

// ExecCall records one Execute invocation.
type ExecCall struct {
	Name string
	Args map[string]any
}

// ExecResult is a canned Execute outcome.
type ExecResult struct {
	Content string
	Success bool
}

// RecordingExecutor returns canned results per tool name and records every
// call. Unknown tools fail the way a registry would.
type RecordingExecutor struct {
	mu      sync.Mutex
	results map[string]ExecResult
	calls   []ExecCall
}

// NewRecordingExecutor creates an executor without canned results.
func NewRecordingExecutor() *RecordingExecutor {
	return &RecordingExecutor{results: make(map[string]ExecResult)}
}

// On registers the result for a tool name (chainable).
func (e *RecordingExecutor) On(name, content string, success bool) *RecordingExecutor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results[name] = ExecResult{Content: content, Success: success}
	return e
}

// Execute implements the tool executor contract.
func (e *RecordingExecutor) Execute(_ context.Context, name string, args map[string]any) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, ExecCall{Name: name, Args: args})
	if r, ok := e.results[name]; ok {
		return r.Content, r.Success
	}
	return fmt.Sprintf("Error [NOT_FOUND]: tool %q not found", name), false
}

// Calls returns a copy of the recorded calls.
func (e *RecordingExecutor) Calls() []ExecCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ExecCall, len(e.calls))
	copy(out, e.calls)
	return out
}
