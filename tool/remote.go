package tool

import (
	"context"

	"github.com/hupe1980/chatcore/model"
)

// RemoteSource is an external tool server (MCP style). Discovery and the wire
// protocol live outside this module; the registry only needs the schema list
// and a way to call a tool.
type RemoteSource interface {
	ListTools(ctx context.Context) ([]model.ToolDefinition, error)
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// remoteTool adapts one definition of a RemoteSource to the Tool interface.
type remoteTool struct {
	def model.ToolDefinition
	src RemoteSource
}

func (t *remoteTool) Name() string { return t.def.Name }

func (t *remoteTool) Description() string { return t.def.Description }

func (t *remoteTool) Parameters() map[string]any { return t.def.Parameters }

func (t *remoteTool) Call(ctx context.Context, args map[string]any) (any, error) {
	out, err := t.src.CallTool(ctx, t.def.Name, args)
	if err != nil {
		return nil, &ToolError{Tool: t.def.Name, Message: err.Error(), Code: CodeExecution}
	}
	return out, nil
}
