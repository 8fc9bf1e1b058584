package model

import (
	"context"
	"encoding/json"
	"iter"
	"strings"
)

// FinishReason is the normalized reason a model stopped generating.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishToolCalls     FinishReason = "tool_calls"
	FinishContentFilter FinishReason = "content_filter"
)

// NormalizeFinishReason maps vendor specific stop reasons onto the shared
// vocabulary. Unknown values are passed through unchanged.
func NormalizeFinishReason(reason string) FinishReason {
	switch strings.ToLower(reason) {
	case "":
		return ""
	case "stop", "end_turn", "stop_sequence":
		return FinishStop
	case "length", "max_tokens":
		return FinishLength
	case "tool_calls", "tool_use", "function_call":
		return FinishToolCalls
	case "content_filter", "refusal":
		return FinishContentFilter
	default:
		return FinishReason(reason)
	}
}

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider branching.
//
// While streaming, ID and Name may be empty until a later fragment fills them
// and Arguments may be an incomplete JSON prefix.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ParsedArguments decodes the JSON arguments into a map. Empty arguments
// decode to an empty map.
func (tc ToolCall) ParsedArguments() (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(tc.Arguments) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
		return nil, &ToolArgumentDecodeError{Tool: tc.Name, Arguments: tc.Arguments, Err: err}
	}
	return args, nil
}

// Response is the canonical, wire-agnostic increment of model output. Fields
// are not mutually exclusive: one Response may carry content and a finish
// reason together. A non-nil Err marks an error event; it is always the last
// element of a sequence.
type Response struct {
	Content      string       `json:"content,omitempty"`
	Reasoning    string       `json:"reasoning,omitempty"`
	ToolCall     *ToolCall    `json:"tool_call,omitempty"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
	Err          error        `json:"-"`

	// ReasoningSignature is an opaque vendor token authenticating the
	// reasoning of this turn. It must be echoed back with that reasoning.
	ReasoningSignature string `json:"reasoning_signature,omitempty"`
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// ToolSource supplies the tool descriptors attached to a request. Adapters
// render them in their own wire style.
type ToolSource interface {
	ToolDefinitions() []ToolDefinition
}

// Capabilities are per-adapter switches for behavior that differs between
// vendors speaking the same wire protocol.
type Capabilities struct {
	// ReasoningField enables reading a dedicated reasoning field on deltas.
	ReasoningField bool
	// InlineThinkMarkers runs content through the reasoning splitter.
	InlineThinkMarkers bool
	// ToolCallPlaceholder substitutes the tool call id for empty content
	// on turns that complete a tool call.
	ToolCallPlaceholder bool
}

// Info contains metadata about a provider implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "deepseek", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Provider turns a conversation into a lazy sequence of canonical responses.
//
// Completion never panics for ordinary vendor failures; the sequence ends
// early, possibly after a Response carrying Err. Stopping iteration early
// releases the underlying connection.
type Provider interface {
	Completion(ctx context.Context, messages []Message, stream bool) iter.Seq[Response]

	// ToolRole returns the role tool results must be tagged with.
	ToolRole() Role

	// Info returns information about the provider implementation.
	Info() Info
}

// Collect drains a response sequence into a slice.
func Collect(seq iter.Seq[Response]) []Response {
	var out []Response
	for r := range seq {
		out = append(out, r)
	}
	return out
}
