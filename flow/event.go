package flow

import (
	"iter"

	"github.com/hupe1980/chatcore/model"
)

// EventType discriminates orchestrator events.
type EventType int

const (
	EventContent EventType = iota
	EventReasoning
	// EventReasoningEnd marks the end of a reasoning run. It is synthesized,
	// vendors never send it.
	EventReasoningEnd
	EventToolCall
	EventToolResult
	EventFinish
	EventError
	// EventRefresh signals that the conversation grew and a follow-up
	// model call is about to start.
	EventRefresh
)

func (t EventType) String() string {
	switch t {
	case EventContent:
		return "CONTENT"
	case EventReasoning:
		return "REASONING"
	case EventReasoningEnd:
		return "REASONING_END"
	case EventToolCall:
		return "TOOL_CALL"
	case EventToolResult:
		return "TOOL_RESULT"
	case EventFinish:
		return "FINISH"
	case EventError:
		return "ERROR"
	case EventRefresh:
		return "REFRESH"
	default:
		return "UNKNOWN"
	}
}

// ToolResult is the outcome of one executed tool call.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
	Success bool
}

// Event is one item of a CompletionWithTools sequence. Only the fields
// relevant to Type are set.
type Event struct {
	Type         EventType
	Content      string
	Reasoning    string
	ToolCall     *model.ToolCall
	Result       *ToolResult
	FinishReason model.FinishReason
	Err          error
}

// Collect drains an event sequence into a slice.
func Collect(seq iter.Seq[Event]) []Event {
	var out []Event
	for ev := range seq {
		out = append(out, ev)
	}
	return out
}
