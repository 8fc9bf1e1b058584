package model

import "fmt"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a conversation.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Reasoning  string     `json:"reasoning,omitempty"`

	// ReasoningSignature accompanies Reasoning for vendors that verify
	// echoed reasoning.
	ReasoningSignature string `json:"reasoning_signature,omitempty"`
	// ToolError marks a tool result that reports a failed execution.
	ToolError bool `json:"tool_error,omitempty"`
}

// SystemMessage returns a system message with the given content.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }

// UserMessage returns a user message with the given content.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// AssistantMessage returns an assistant message with the given content.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// IsToolResult reports whether the message answers a prior tool call.
func (m Message) IsToolResult() bool { return m.ToolCallID != "" }

// Conversation is an ordered, append-only sequence of messages. It is owned
// by exactly one orchestration call at a time and is not safe for concurrent use.
type Conversation struct {
	messages []Message
}

// NewConversation creates a conversation seeded with the given messages.
func NewConversation(msgs ...Message) *Conversation {
	c := &Conversation{messages: make([]Message, 0, len(msgs))}
	c.messages = append(c.messages, msgs...)
	return c
}

// Append adds messages to the end of the conversation.
func (c *Conversation) Append(msgs ...Message) { c.messages = append(c.messages, msgs...) }

// Messages returns a copy of the conversation's messages.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int { return len(c.messages) }

// Last returns the most recent message, if any.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Validate checks that every tool result references a tool call id issued
// by an earlier assistant message.
func (c *Conversation) Validate() error {
	seen := map[string]struct{}{}
	for i, m := range c.messages {
		if m.Role == RoleAssistant {
			for _, tc := range m.ToolCalls {
				seen[tc.ID] = struct{}{}
			}
			continue
		}
		if m.ToolCallID == "" {
			continue
		}
		if _, ok := seen[m.ToolCallID]; !ok {
			return fmt.Errorf("message %d: tool_call_id %q does not reference a prior tool call", i, m.ToolCallID)
		}
	}
	return nil
}
