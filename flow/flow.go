// Package flow drives a tool-calling conversation turn on top of a
// model.Provider.
//
// One call to CompletionWithTools runs model calls and tool executions in a
// loop until the model answers without requesting a tool, the recursion bound
// is reached, or an error ends the turn. Every provider response is forwarded
// to the caller as it arrives, and the conversation is extended in place with
// the assistant messages and tool results so the caller can continue the
// dialogue afterwards.
package flow

import (
	"context"
	"iter"
	"time"

	"github.com/hupe1980/chatcore/logging"
	"github.com/hupe1980/chatcore/model"
)

// DefaultMaxRecursionDepth bounds tool round trips per turn.
const DefaultMaxRecursionDepth = 5

// Executor runs a named tool. It must not panic; failures are reported as
// (description, false) and fed back to the model like any other result.
type Executor interface {
	Execute(ctx context.Context, name string, args map[string]any) (string, bool)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, name string, args map[string]any) (string, bool)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, name string, args map[string]any) (string, bool) {
	return f(ctx, name, args)
}

// Options configure an Orchestrator.
type Options struct {
	// FunctionCalling enables tool execution. When disabled, tool calls are
	// forwarded to the caller but never executed.
	FunctionCalling bool
	// MaxRecursionDepth is the number of tool round trips allowed per turn.
	// Values <= 0 select DefaultMaxRecursionDepth.
	MaxRecursionDepth int
	Stream            bool
	// EmitRefresh emits EventRefresh before every follow-up model call.
	EmitRefresh bool
	Logger      logging.Logger
}

// Option mutates Options.
type Option func(o *Options)

// WithFunctionCalling toggles tool execution.
func WithFunctionCalling(enabled bool) Option {
	return func(o *Options) { o.FunctionCalling = enabled }
}

// WithMaxRecursionDepth sets the tool round-trip bound.
func WithMaxRecursionDepth(depth int) Option {
	return func(o *Options) { o.MaxRecursionDepth = depth }
}

// WithStream selects streaming or non-streaming provider calls.
func WithStream(stream bool) Option {
	return func(o *Options) { o.Stream = stream }
}

// WithRefresh toggles EventRefresh emission.
func WithRefresh(enabled bool) Option {
	return func(o *Options) { o.EmitRefresh = enabled }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Orchestrator runs the tool loop. It holds no per-turn state and may be
// reused across turns, but a single conversation must not be driven by two
// turns at once.
type Orchestrator struct {
	provider model.Provider
	executor Executor
	opts     Options
	logger   logging.Logger
}

// New creates an Orchestrator. A nil executor disables tool execution.
func New(provider model.Provider, executor Executor, optFns ...Option) *Orchestrator {
	opts := Options{
		FunctionCalling:   true,
		MaxRecursionDepth: DefaultMaxRecursionDepth,
		Stream:            true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxRecursionDepth <= 0 {
		opts.MaxRecursionDepth = DefaultMaxRecursionDepth
	}
	if executor == nil {
		opts.FunctionCalling = false
	}
	return &Orchestrator{
		provider: provider,
		executor: executor,
		opts:     opts,
		logger:   logging.OrNoOp(opts.Logger),
	}
}

// Options returns the effective options.
func (o *Orchestrator) Options() Options { return o.opts }

// turn collects what one provider call produced.
type turn struct {
	content   string
	reasoning string
	signature string
	calls     []model.ToolCall
}

// CompletionWithTools runs one user turn against conv and yields events as
// they arrive. conv is extended in place. Stopping the iteration early
// abandons the turn without executing further tools.
func (o *Orchestrator) CompletionWithTools(ctx context.Context, conv *model.Conversation) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		depth := 0
		for {
			t, ok := o.callModel(ctx, conv, yield)
			if !ok {
				return
			}

			if !o.opts.FunctionCalling || len(t.calls) == 0 {
				conv.Append(model.Message{
					Role:               model.RoleAssistant,
					Content:            t.content,
					Reasoning:          t.reasoning,
					ReasoningSignature: t.signature,
				})
				return
			}

			args, err := decodeArguments(t.calls)
			if err != nil {
				o.logger.Warn("tool call arguments rejected", "error", err)
				yield(Event{Type: EventError, Err: err})
				return
			}
			if err := ctx.Err(); err != nil {
				yield(Event{Type: EventError, Err: err})
				return
			}

			conv.Append(model.Message{
				Role:               model.RoleAssistant,
				Content:            t.content,
				Reasoning:          t.reasoning,
				ReasoningSignature: t.signature,
				ToolCalls:          t.calls,
			})
			if !o.executeCalls(ctx, conv, t.calls, args, yield) {
				return
			}

			depth++
			if depth >= o.opts.MaxRecursionDepth {
				o.logger.Debug("maximum recursion depth reached", "depth", depth, "max_depth", o.opts.MaxRecursionDepth)
				return
			}
			if o.opts.EmitRefresh && !yield(Event{Type: EventRefresh}) {
				return
			}
		}
	}
}

// callModel forwards one provider call. It returns false when the turn must
// end: the consumer stopped, or an error event was emitted.
func (o *Orchestrator) callModel(ctx context.Context, conv *model.Conversation, yield func(Event) bool) (turn, bool) {
	var (
		t           turn
		content     []byte
		reasoning   []byte
		inReasoning bool
	)
	endReasoning := func() bool {
		if !inReasoning {
			return true
		}
		inReasoning = false
		return yield(Event{Type: EventReasoningEnd})
	}

	for resp := range o.provider.Completion(ctx, conv.Messages(), o.opts.Stream) {
		if resp.Err != nil {
			o.logger.Warn("provider error", "provider", o.provider.Info().Provider, "error", resp.Err)
			if endReasoning() {
				yield(Event{Type: EventError, Err: resp.Err})
			}
			return t, false
		}
		t.signature += resp.ReasoningSignature
		if resp.Reasoning != "" {
			inReasoning = true
			reasoning = append(reasoning, resp.Reasoning...)
			if !yield(Event{Type: EventReasoning, Reasoning: resp.Reasoning}) {
				return t, false
			}
		}
		if resp.Content != "" {
			if !endReasoning() {
				return t, false
			}
			content = append(content, resp.Content...)
			if !yield(Event{Type: EventContent, Content: resp.Content}) {
				return t, false
			}
		}
		if resp.ToolCall != nil {
			if !endReasoning() {
				return t, false
			}
			call := *resp.ToolCall
			if resp.FinishReason == model.FinishToolCalls {
				t.calls = append(t.calls, call)
			}
			o.logger.Debug("tool call detected", "tool", call.Name, "id", call.ID, "arguments", call.Arguments)
			if !yield(Event{Type: EventToolCall, ToolCall: &call, FinishReason: resp.FinishReason}) {
				return t, false
			}
			continue
		}
		if resp.FinishReason != "" {
			if !endReasoning() {
				return t, false
			}
			if !yield(Event{Type: EventFinish, FinishReason: resp.FinishReason}) {
				return t, false
			}
		}
	}
	if !endReasoning() {
		return t, false
	}

	t.content = string(content)
	t.reasoning = string(reasoning)
	return t, true
}

func (o *Orchestrator) executeCalls(
	ctx context.Context,
	conv *model.Conversation,
	calls []model.ToolCall,
	args []map[string]any,
	yield func(Event) bool,
) bool {
	role := o.provider.ToolRole()
	for i, call := range calls {
		if err := ctx.Err(); err != nil {
			yield(Event{Type: EventError, Err: err})
			return false
		}

		start := time.Now()
		result, success := o.executor.Execute(ctx, call.Name, args[i])
		o.logger.Debug("tool executed",
			"tool", call.Name,
			"id", call.ID,
			"success", success,
			"duration_ms", time.Since(start).Milliseconds(),
			"result", result,
		)

		conv.Append(model.Message{
			Role:       role,
			Name:       call.Name,
			ToolCallID: call.ID,
			Content:    result,
			ToolError:  !success,
		})
		ev := Event{Type: EventToolResult, Result: &ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: result,
			Success: success,
		}}
		if !yield(ev) {
			return false
		}
	}
	return true
}

// decodeArguments parses every call up front so a bad call never leaves a
// dangling tool-call message in the conversation.
func decodeArguments(calls []model.ToolCall) ([]map[string]any, error) {
	out := make([]map[string]any, len(calls))
	for i, call := range calls {
		args, err := call.ParsedArguments()
		if err != nil {
			return nil, err
		}
		out[i] = args
	}
	return out, nil
}
