package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hupe1980/chatcore/logging"
	"github.com/hupe1980/chatcore/model"
)

// Origin tells where a tool comes from. Function calling and external (MCP
// style) tools are enabled independently.
type Origin int

const (
	// OriginFunction marks locally registered Go functions.
	OriginFunction Origin = iota
	// OriginMCP marks tools discovered from a RemoteSource.
	OriginMCP
)

// String returns the origin name.
func (o Origin) String() string {
	if o == OriginMCP {
		return "mcp"
	}
	return "function"
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// EnableFunctions exposes OriginFunction tools.
	EnableFunctions bool
	// EnableMCP exposes OriginMCP tools.
	EnableMCP bool
	// Logger receives execution traces. Defaults to NoOp.
	Logger logging.Logger
}

type entry struct {
	tool   Tool
	origin Origin
}

// Registry executes tools by name and supplies their definitions to
// providers. It satisfies model.ToolSource and the tool loop's executor
// contract. Safe for concurrent use.
type Registry struct {
	opts RegistryOptions

	mu    sync.RWMutex
	tools map[string]entry
	order []string
	cache *schemaCache
}

// NewRegistry creates an empty registry. Both origins are enabled by default.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{EnableFunctions: true, EnableMCP: true, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Registry{
		opts:  opts,
		tools: map[string]entry{},
		cache: &schemaCache{},
	}
}

// Register adds local function tools.
func (r *Registry) Register(tools ...Tool) error {
	for _, t := range tools {
		if err := r.add(t, OriginFunction); err != nil {
			return err
		}
	}
	return nil
}

// RegisterRemote lists the tools of an external source and registers them
// under OriginMCP. Calls are routed back to the source.
func (r *Registry) RegisterRemote(ctx context.Context, src RemoteSource) error {
	defs, err := src.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("list remote tools: %w", err)
	}
	for _, d := range defs {
		if err := r.add(&remoteTool{def: d, src: src}, OriginMCP); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) add(t Tool, origin Origin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = entry{tool: t, origin: origin}
	r.order = append(r.order, t.Name())
	r.cache.invalidate()
	return nil
}

// Invalidate drops the cached definition list so the next request rebuilds it.
func (r *Registry) Invalidate() { r.cache.invalidate() }

// ToolDefinitions implements model.ToolSource. The list follows registration
// order and only contains enabled origins.
func (r *Registry) ToolDefinitions() []model.ToolDefinition {
	return r.cache.get(func() []model.ToolDefinition {
		r.mu.RLock()
		defer r.mu.RUnlock()
		defs := make([]model.ToolDefinition, 0, len(r.order))
		for _, name := range r.order {
			e := r.tools[name]
			if !r.enabled(e.origin) {
				continue
			}
			defs = append(defs, model.ToolDefinition{
				Name:        e.tool.Name(),
				Description: e.tool.Description(),
				Parameters:  e.tool.Parameters(),
			})
		}
		return defs
	})
}

func (r *Registry) enabled(o Origin) bool {
	if o == OriginMCP {
		return r.opts.EnableMCP
	}
	return r.opts.EnableFunctions
}

// Execute runs the named tool and returns its textual result. Failures never
// escape as errors or panics: they come back as a description with
// success=false so the model can react.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, bool) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok || !r.enabled(e.origin) {
		err := NewToolError(name, fmt.Sprintf("tool %s not found", name), CodeNotFound)
		return formatError(err), false
	}

	start := time.Now()
	var (
		result any
		err    error
	)
	func() { // panic safety
		defer func() {
			if rec := recover(); rec != nil {
				err = &ToolError{Tool: name, Message: fmt.Sprintf("panic: %v", rec), Code: CodePanic, Details: string(debug.Stack())}
				r.opts.Logger.Error("tool panic recovered", "tool_name", name, "recover", rec)
			}
		}()
		result, err = e.tool.Call(ctx, args)
	}()
	logging.LogToolCall(r.opts.Logger, name, time.Since(start), err == nil)

	if err != nil {
		return formatError(err), false
	}
	text, ferr := formatResult(result)
	if ferr != nil {
		return formatError(ferr), false
	}
	return text, true
}

func formatResult(result any) (string, error) {
	switch v := result.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode result: %w", err)
		}
		return string(b), nil
	}
}

func formatError(err error) string {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return fmt.Sprintf("Error [%s]: %s", toolErr.Code, toolErr.Message)
	}
	return "Error: " + err.Error()
}

// schemaCache holds the rendered definition list until explicitly invalidated.
type schemaCache struct {
	mu    sync.Mutex
	defs  []model.ToolDefinition
	valid bool
}

func (c *schemaCache) get(build func() []model.ToolDefinition) []model.ToolDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		c.defs = build()
		c.valid = true
	}
	out := make([]model.ToolDefinition, len(c.defs))
	copy(out, c.defs)
	return out
}

func (c *schemaCache) invalidate() {
	c.mu.Lock()
	c.valid = false
	c.defs = nil
	c.mu.Unlock()
}
