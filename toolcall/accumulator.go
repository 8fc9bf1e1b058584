// Package toolcall reconstructs complete tool invocations from the partial
// deltas vendors stream, and normalizes their JSON arguments.
package toolcall

import (
	"strings"

	"github.com/google/uuid"

	"github.com/hupe1980/chatcore/model"
)

// Fragment is a partial piece of a tool call delivered in one streaming chunk.
// Index addresses the slot; ID usually only appears on a slot's first fragment.
type Fragment struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// Accumulator aggregates fragments per slot, preserving first-seen slot order
// for parallel tool calls. It is local to one streaming call and not safe for
// concurrent use.
type Accumulator struct {
	order []int
	slots map[int]*model.ToolCall
	// route maps a vendor index to the slot currently receiving its fragments.
	route map[int]int
	next  int
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{slots: map[int]*model.ToolCall{}, route: map[int]int{}}
}

// Add merges a fragment into its slot and returns a snapshot of the slot.
//
// A fragment carrying a different non-empty ID than its slot starts a new
// slot; some vendors reuse index 0 for every parallel call.
func (a *Accumulator) Add(f Fragment) model.ToolCall {
	key, ok := a.route[f.Index]
	if ok {
		cur := a.slots[key]
		if f.ID != "" && cur.ID != "" && f.ID != cur.ID {
			ok = false
		}
	}
	if !ok {
		key = a.next
		a.next++
		a.route[f.Index] = key
		a.slots[key] = &model.ToolCall{}
		a.order = append(a.order, key)
	}

	tc := a.slots[key]
	if f.ID != "" && tc.ID == "" {
		tc.ID = f.ID
	}
	if f.Name != "" {
		tc.Name = f.Name
	}
	tc.Arguments += f.Arguments
	return *tc
}

// Len returns the number of slots seen so far.
func (a *Accumulator) Len() int { return len(a.order) }

// Finish completes every pending call in slot order and resets the
// accumulator. Arguments are normalized; a call whose arguments stay invalid
// after repair yields a *model.ToolArgumentDecodeError.
func (a *Accumulator) Finish() ([]model.ToolCall, error) {
	calls := make([]model.ToolCall, 0, len(a.order))
	for _, key := range a.order {
		tc, err := Complete(*a.slots[key])
		if err != nil {
			a.reset()
			return nil, err
		}
		calls = append(calls, tc)
	}
	a.reset()
	return calls, nil
}

func (a *Accumulator) reset() {
	a.order = nil
	a.slots = map[int]*model.ToolCall{}
	a.route = map[int]int{}
	a.next = 0
}

// Complete finalizes a single call whose arguments arrived whole (or were
// accumulated): it assigns an id when the vendor supplied none and
// normalizes the arguments.
func Complete(tc model.ToolCall) (model.ToolCall, error) {
	if tc.ID == "" {
		tc.ID = NewCallID()
	}
	args, err := NormalizeArguments(tc.Arguments)
	if err != nil {
		return tc, &model.ToolArgumentDecodeError{Tool: tc.Name, Arguments: tc.Arguments, Err: err}
	}
	tc.Arguments = args
	return tc, nil
}

// NewCallID generates an id for tool calls whose vendor omitted one.
func NewCallID() string {
	return "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// PlaceholderContent implements the opt-in rule for vendors that require
// non-empty content alongside a tool call: empty content becomes the call id.
func PlaceholderContent(content string, tc model.ToolCall) string {
	if strings.TrimSpace(content) != "" {
		return content
	}
	return tc.ID
}
