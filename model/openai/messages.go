package openai

import (
	"github.com/openai/openai-go"

	"github.com/hupe1980/chatcore/model"
)

// buildMessages converts conversation messages into Chat Completions messages.
// Tool results are accepted from either the tool role or a user message that
// carries a tool call id, so conversations can move between vendor families.
func buildMessages(msgs []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch {
		case msg.IsToolResult():
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		case msg.Role == model.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case msg.Role == model.RoleAssistant:
			out = append(out, assistantMessage(msg))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func assistantMessage(msg model.Message) openai.ChatCompletionMessageParamUnion {
	if len(msg.ToolCalls) == 0 {
		return openai.AssistantMessage(msg.Content)
	}
	toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID:   tc.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	if msg.Content == "" {
		return openai.ChatCompletionMessageParamUnion{OfAssistant: &openai.ChatCompletionAssistantMessageParam{
			Role:      "assistant",
			ToolCalls: toolCalls,
		}}
	}
	param := openai.AssistantMessage(msg.Content)
	param.OfAssistant.ToolCalls = toolCalls
	return param
}

// buildParams assembles the request parameters including tool definitions.
func (m *Model) buildParams(msgs []model.Message) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages: buildMessages(msgs),
		Model:    m.opts.Model,
	}
	if m.opts.Temperature != nil {
		params.Temperature = openai.Float(*m.opts.Temperature)
	}
	if m.opts.TopP != nil {
		params.TopP = openai.Float(*m.opts.TopP)
	}
	if m.opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(m.opts.MaxTokens)
	}
	if m.opts.Tools == nil {
		return params
	}
	defs := m.opts.Tools.ToolDefinitions()
	if len(defs) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(defs))
	for i, d := range defs {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  d.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}
