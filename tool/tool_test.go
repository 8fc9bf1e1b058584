package tool

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatcore/internal/util"
	"github.com/hupe1980/chatcore/model"
)

// -------------------- Schema & Validation Tests --------------------

type sampleSchema struct {
	A string `json:"a" jsonschema:"description=Field A"`
	B *int   `json:"b,omitempty" jsonschema:"description=Optional pointer field"`
	C int    `json:"c,omitempty"`
}

func TestCreateSchema(t *testing.T) {
	schema := util.CreateSchema(sampleSchema{})
	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")

	a, _ := props["a"].(map[string]any)
	assert.Equal(t, "Field A", a["description"])
	assert.ElementsMatch(t, []string{"a"}, util.RequiredFields(schema))
	assert.NotContains(t, schema, "$schema")
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		"required": []any{"x"},
	}

	assert.NoError(t, util.ValidateParameters(map[string]any{"x": float64(5)}, schema))

	err := util.ValidateParameters(map[string]any{}, schema)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)

	err = util.ValidateParameters(map[string]any{"x": 1.5}, schema)
	assert.Error(t, err)
}

// -------------------- FunctionTool Tests --------------------

type echoArgs struct {
	Text string `json:"text" jsonschema:"description=Text to echo"`
}

func newEchoTool() *FunctionTool {
	return NewFunctionToolFromStruct("echo", "Echo text back", echoArgs{},
		func(_ context.Context, args map[string]any) (any, error) {
			return args["text"], nil
		})
}

func TestFunctionTool_Call(t *testing.T) {
	echo := newEchoTool()

	out, err := echo.Call(context.Background(), map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	_, err = echo.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func TestFunctionTool_ErrorWrapping(t *testing.T) {
	plain := NewFunctionTool("fail", "always fails", nil, func(context.Context, map[string]any) (any, error) {
		return nil, errors.New("boom")
	})
	custom := NewFunctionTool("custom", "custom code", nil, func(context.Context, map[string]any) (any, error) {
		return nil, NewToolError("custom", "quota", "RATE_LIMIT")
	})

	_, err := plain.Call(context.Background(), nil)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Equal(t, "boom", toolErr.Message)

	_, err = custom.Call(context.Background(), nil)
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "RATE_LIMIT", toolErr.Code)
}

// -------------------- Registry Tests --------------------

func TestRegistry_Execute(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newEchoTool()))

	out, ok := reg.Execute(context.Background(), "echo", map[string]any{"text": "pong"})
	assert.True(t, ok)
	assert.Equal(t, "pong", out)

	out, ok = reg.Execute(context.Background(), "missing", nil)
	assert.False(t, ok)
	assert.Contains(t, out, CodeNotFound)
}

func TestRegistry_ExecuteRecoversPanics(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(NewFunctionTool("panicky", "panics", nil,
		func(context.Context, map[string]any) (any, error) { panic("kaboom") })))

	out, ok := reg.Execute(context.Background(), "panicky", map[string]any{})
	assert.False(t, ok)
	assert.Contains(t, out, "kaboom")
	assert.Contains(t, out, CodePanic)
}

func TestRegistry_ExecuteEncodesStructuredResults(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(NewFunctionTool("sum", "adds", nil,
		func(context.Context, map[string]any) (any, error) {
			return map[string]any{"sum": 3}, nil
		})))

	out, ok := reg.Execute(context.Background(), "sum", map[string]any{})
	assert.True(t, ok)
	assert.JSONEq(t, `{"sum":3}`, out)
}

func TestRegistry_DuplicateName(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newEchoTool()))
	assert.Error(t, reg.Register(newEchoTool()))
}

type countingTool struct {
	*FunctionTool
	mu    sync.Mutex
	calls int
}

func (c *countingTool) Description() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.FunctionTool.Description()
}

func TestRegistry_DefinitionCache(t *testing.T) {
	reg := NewRegistry()
	ct := &countingTool{FunctionTool: newEchoTool()}
	require.NoError(t, reg.Register(ct))

	first := reg.ToolDefinitions()
	second := reg.ToolDefinitions()
	require.Len(t, first, 1)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, ct.calls, "definitions are built once until invalidated")

	reg.Invalidate()
	reg.ToolDefinitions()
	assert.Equal(t, 2, ct.calls)
}

type fakeRemote struct {
	calls []string
}

func (f *fakeRemote) ListTools(context.Context) ([]model.ToolDefinition, error) {
	return []model.ToolDefinition{{
		Name:        "remote_upper",
		Description: "Uppercase text on the remote server",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
	}}, nil
}

func (f *fakeRemote) CallTool(_ context.Context, name string, args map[string]any) (string, error) {
	f.calls = append(f.calls, name)
	s, _ := args["text"].(string)
	return strings.ToUpper(s), nil
}

func TestRegistry_OriginFilters(t *testing.T) {
	remote := &fakeRemote{}

	reg := NewRegistry(func(o *RegistryOptions) { o.EnableMCP = false })
	require.NoError(t, reg.Register(newEchoTool()))
	require.NoError(t, reg.RegisterRemote(context.Background(), remote))

	defs := reg.ToolDefinitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "echo", defs[0].Name)

	_, ok := reg.Execute(context.Background(), "remote_upper", map[string]any{"text": "x"})
	assert.False(t, ok, "disabled origins cannot be executed")
	assert.Empty(t, remote.calls)

	enabled := NewRegistry()
	require.NoError(t, enabled.RegisterRemote(context.Background(), remote))
	out, ok := enabled.Execute(context.Background(), "remote_upper", map[string]any{"text": "x"})
	assert.True(t, ok)
	assert.Equal(t, "X", out)
	assert.Equal(t, []string{"remote_upper"}, remote.calls)
}
