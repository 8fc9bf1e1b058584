// Package assemble turns vendor stream deltas into canonical responses. It is
// shared by every adapter: content goes through the reasoning splitter,
// tool-call fragments through the accumulator, and the finish reason closes
// both.
package assemble

import (
	"errors"
	"strings"

	"github.com/hupe1980/chatcore/model"
	"github.com/hupe1980/chatcore/reasoning"
	"github.com/hupe1980/chatcore/toolcall"
)

// Assembler is local to one completion call. Every method returns false once
// the consumer stopped pulling or an error event was emitted; adapters must
// stop reading the transport at that point.
type Assembler struct {
	caps     model.Capabilities
	splitter *reasoning.Splitter
	acc      *toolcall.Accumulator
	yield    func(model.Response) bool
	content  strings.Builder
	finished bool
}

// New creates an Assembler emitting to yield. Empty markers select the
// reasoning package defaults.
func New(caps model.Capabilities, startMarker, endMarker string, yield func(model.Response) bool) *Assembler {
	return &Assembler{
		caps:     caps,
		splitter: reasoning.NewSplitter(startMarker, endMarker),
		acc:      toolcall.NewAccumulator(),
		yield:    yield,
	}
}

// ErrIncompleteToolCall reports a stream that ended while a tool call was
// still being streamed, without a finish reason closing it.
var ErrIncompleteToolCall = errors.New("stream ended before the tool call was closed")

// Text handles a content delta. A non-empty dedicated reasoning value takes
// precedence and disables the inline marker scan for this delta. Each
// classified run is emitted as its own response, in arrival order.
func (a *Assembler) Text(content, dedicatedReasoning string) bool {
	var segs []reasoning.Segment
	switch {
	case dedicatedReasoning != "":
		segs = a.splitter.Direct(content, dedicatedReasoning)
	case a.caps.InlineThinkMarkers:
		segs = a.splitter.Feed(content)
	default:
		segs = a.splitter.Direct(content, "")
	}
	for _, seg := range segs {
		if !a.emit(seg) {
			return false
		}
	}
	return true
}

// Signature forwards the vendor signature of the current reasoning block.
func (a *Assembler) Signature(sig string) bool {
	if sig == "" {
		return true
	}
	return a.yield(model.Response{ReasoningSignature: sig})
}

// Fragment merges a tool-call fragment.
func (a *Assembler) Fragment(f toolcall.Fragment) { a.acc.Add(f) }

// Finish handles a streamed finish reason. Pending fragments become calls
// only on a tool-call finish; calls cut off by any other reason (e.g. length)
// are dropped.
func (a *Assembler) Finish(vendorReason string) bool {
	return a.finish(vendorReason, false)
}

// Complete handles the finish of a non-streaming response. Its tool calls
// arrived whole and are completed unless the response was truncated.
func (a *Assembler) Complete(vendorReason string) bool {
	return a.finish(vendorReason, true)
}

// End is called when the stream is exhausted. It flushes held-back text and
// returns ErrIncompleteToolCall when fragments are pending without a finish
// reason; the caller reports it as a transport failure.
func (a *Assembler) End() error {
	if a.finished {
		return nil
	}
	a.finished = true
	if !a.emit(a.splitter.Flush()) {
		return nil
	}
	if a.acc.Len() > 0 {
		return ErrIncompleteToolCall
	}
	return nil
}

func (a *Assembler) finish(vendorReason string, whole bool) bool {
	if a.finished {
		return true
	}
	a.finished = true
	if !a.emit(a.splitter.Flush()) {
		return false
	}

	reason := model.NormalizeFinishReason(vendorReason)
	if a.acc.Len() > 0 && (reason == model.FinishToolCalls || (whole && reason != model.FinishLength)) {
		calls, err := a.acc.Finish()
		if err != nil {
			a.yield(model.Response{Err: err})
			return false
		}
		for i := range calls {
			call := calls[i]
			r := model.Response{ToolCall: &call, FinishReason: model.FinishToolCalls}
			if i == 0 && a.caps.ToolCallPlaceholder && strings.TrimSpace(a.content.String()) == "" {
				r.Content = toolcall.PlaceholderContent("", call)
			}
			if !a.yield(r) {
				return false
			}
		}
		return true
	}
	if reason == "" {
		return true
	}
	return a.yield(model.Response{FinishReason: reason})
}

// Finished reports whether a finish, End or Fail already ran.
func (a *Assembler) Finished() bool { return a.finished }

// Fail emits a terminal error event.
func (a *Assembler) Fail(err error) bool {
	a.finished = true
	a.yield(model.Response{Err: err})
	return false
}

func (a *Assembler) emit(seg reasoning.Segment) bool {
	if seg.Empty() {
		return true
	}
	a.content.WriteString(seg.Content)
	return a.yield(model.Response{Content: seg.Content, Reasoning: seg.Reasoning})
}
