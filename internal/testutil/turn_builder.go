package testutil

import "github.com/hupe1980/chatcore/model"

// TurnBuilder provides a fluent helper for scripting one provider call.
// Example:
//
//	turn := NewTurnBuilder().Reasoning("thinking").Content("4").Finish(model.FinishStop).Build()
//
// Responses are emitted in the order the methods were chained.
type TurnBuilder struct {
	responses []model.Response
}

// NewTurnBuilder creates an empty builder.
func NewTurnBuilder() *TurnBuilder { return &TurnBuilder{} }

// Content appends a content response (chainable).
func (b *TurnBuilder) Content(s string) *TurnBuilder {
	b.responses = append(b.responses, model.Response{Content: s})
	return b
}

// Reasoning appends a reasoning response (chainable).
func (b *TurnBuilder) Reasoning(s string) *TurnBuilder {
	b.responses = append(b.responses, model.Response{Reasoning: s})
	return b
}

// Signature appends a reasoning signature response (chainable).
func (b *TurnBuilder) Signature(sig string) *TurnBuilder {
	b.responses = append(b.responses, model.Response{ReasoningSignature: sig})
	return b
}

// ToolCall appends a completed tool call closed with the tool-call finish
// reason (chainable).
func (b *TurnBuilder) ToolCall(id, name, arguments string) *TurnBuilder {
	b.responses = append(b.responses, model.Response{
		ToolCall:     &model.ToolCall{ID: id, Name: name, Arguments: arguments},
		FinishReason: model.FinishToolCalls,
	})
	return b
}

// Finish appends a bare finish response (chainable).
func (b *TurnBuilder) Finish(reason model.FinishReason) *TurnBuilder {
	b.responses = append(b.responses, model.Response{FinishReason: reason})
	return b
}

// Error appends an error response (chainable).
func (b *TurnBuilder) Error(err error) *TurnBuilder {
	b.responses = append(b.responses, model.Response{Err: err})
	return b
}

// Build returns the scripted responses.
func (b *TurnBuilder) Build() []model.Response {
	out := make([]model.Response, len(b.responses))
	copy(out, b.responses)
	return out
}
