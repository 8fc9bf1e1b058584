package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/hupe1980/chatcore/internal/util"
	"github.com/hupe1980/chatcore/model"
)

// buildParams assembles the Messages API request including tool definitions.
func (m *Model) buildParams(msgs []model.Message) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.opts.Model),
		Messages:  buildMessages(msgs),
		MaxTokens: m.opts.MaxTokens,
	}
	if system := extractSystem(msgs); len(system) > 0 {
		params.System = system
	}
	if m.opts.Temperature != nil {
		params.Temperature = anthropic.Float(*m.opts.Temperature)
	}
	if m.opts.TopP != nil {
		params.TopP = anthropic.Float(*m.opts.TopP)
	}
	if m.opts.ThinkingBudget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(m.opts.ThinkingBudget)
	}
	if m.opts.Tools != nil {
		if defs := m.opts.Tools.ToolDefinitions(); len(defs) > 0 {
			params.Tools = buildTools(defs)
		}
	}
	return params
}

func extractSystem(msgs []model.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, msg := range msgs {
		if msg.Role == model.RoleSystem && msg.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: msg.Content})
		}
	}
	return blocks
}

// buildMessages converts conversation messages into Anthropic message params.
// The API requires alternating roles, so consecutive messages that map to the
// same role (typically several tool results) are merged into one message.
func buildMessages(msgs []model.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	push := func(role anthropic.MessageParamRole, blocks []anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			return
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, msg := range msgs {
		switch {
		case msg.Role == model.RoleSystem:
			continue
		case msg.IsToolResult():
			push(anthropic.MessageParamRoleUser, []anthropic.ContentBlockParamUnion{
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, msg.ToolError),
			})
		case msg.Role == model.RoleAssistant:
			push(anthropic.MessageParamRoleAssistant, assistantContent(msg))
		default:
			if msg.Content != "" {
				push(anthropic.MessageParamRoleUser, []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Content)})
			}
		}
	}
	return out
}

func assistantContent(msg model.Message) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion
	// Unsigned reasoning (e.g. from another vendor) cannot be replayed.
	if msg.Reasoning != "" && msg.ReasoningSignature != "" {
		content = append(content, anthropic.NewThinkingBlock(msg.ReasoningSignature, msg.Reasoning))
	}
	if msg.Content != "" {
		content = append(content, anthropic.NewTextBlock(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		var input any = map[string]any{}
		if tc.Arguments != "" {
			var parsed any
			if err := json.Unmarshal([]byte(tc.Arguments), &parsed); err == nil {
				input = parsed
			}
		}
		content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
	}
	return content
}

func buildTools(defs []model.ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(defs))
	for i, d := range defs {
		schema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if d.Parameters != nil {
			if props, ok := d.Parameters["properties"]; ok {
				schema.Properties = props
			}
			schema.Required = util.RequiredFields(d.Parameters)
		}
		tools[i] = anthropic.ToolUnionParamOfTool(schema, d.Name)
		if d.Description != "" {
			tools[i].OfTool.Description = anthropic.String(d.Description)
		}
	}
	return tools
}
