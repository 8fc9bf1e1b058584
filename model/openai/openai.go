// Package openai provides an implementation of model.Provider using the
// OpenAI Chat Completions wire protocol (including streaming + function/tool
// calling). Every OpenAI-compatible vendor (DeepSeek, OpenRouter, Ollama, …)
// shares this adapter; per-vendor differences are plain Options data.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/tidwall/gjson"

	"github.com/hupe1980/chatcore/internal/assemble"
	"github.com/hupe1980/chatcore/logging"
	"github.com/hupe1980/chatcore/model"
	"github.com/hupe1980/chatcore/toolcall"
)

// DefaultReasoningFields are the delta keys vendors use for dedicated reasoning text.
var DefaultReasoningFields = []string{"reasoning_content", "reasoning"}

// Options configure the OpenAI-compatible adapter.
type Options struct {
	// Vendor is reported by Info().Provider and used in errors.
	Vendor  string
	APIKey  string
	BaseURL string
	Model   string

	Temperature *float64
	TopP        *float64
	MaxTokens   int64
	Timeout     time.Duration

	ExtraHeaders map[string]string
	// ExtraBody fields are merged into the JSON request body.
	ExtraBody map[string]any

	Capabilities    model.Capabilities
	ReasoningFields []string
	ThinkStart      string
	ThinkEnd        string

	// RequireAPIKey rejects construction without a key (local servers don't need one).
	RequireAPIKey bool

	Tools   model.ToolSource
	Verbose bool
	Logger  logging.Logger

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Model wraps the Chat Completions API behind the model.Provider interface.
type Model struct {
	client  *openai.Client
	opts    Options
	verbose logging.Logger
}

// NewModel creates a new adapter. It fails eagerly with a
// *model.ConfigurationError when a required parameter is missing.
func NewModel(optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Vendor:          "openai",
		Model:           openai.ChatModelGPT4oMini,
		ReasoningFields: DefaultReasoningFields,
		RequireAPIKey:   true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.RequireAPIKey && opts.APIKey == "" {
		return nil, &model.ConfigurationError{Field: "api_key", Value: opts.Vendor, Message: "an API key is required"}
	}
	if opts.Model == "" {
		return nil, &model.ConfigurationError{Field: "model", Value: opts.Vendor, Message: "a model name is required"}
	}

	clientOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(opts.Timeout))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	for k, v := range opts.ExtraHeaders {
		clientOpts = append(clientOpts, option.WithHeader(k, v))
	}
	for k, v := range opts.ExtraBody {
		clientOpts = append(clientOpts, option.WithJSONSet(k, v))
	}

	client := openai.NewClient(clientOpts...)
	return NewModelFromClient(&client, opts), nil
}

// NewModelFromClient creates a new adapter from an existing client. No
// validation is performed.
func NewModelFromClient(client *openai.Client, opts Options) *Model {
	if len(opts.ReasoningFields) == 0 {
		opts.ReasoningFields = DefaultReasoningFields
	}
	m := &Model{
		client:  client,
		opts:    opts,
		verbose: logging.Verbose(opts.Logger, opts.Verbose),
	}
	m.verbose.Info("provider configured",
		"provider", opts.Vendor,
		"model", opts.Model,
		"base_url", opts.BaseURL,
		"max_tokens", opts.MaxTokens,
		"timeout", opts.Timeout,
		"reasoning_field", opts.Capabilities.ReasoningField,
		"inline_think_markers", opts.Capabilities.InlineThinkMarkers,
		"tool_call_placeholder", opts.Capabilities.ToolCallPlaceholder,
	)
	return m
}

// Completion implements model.Provider.
func (m *Model) Completion(ctx context.Context, messages []model.Message, stream bool) iter.Seq[model.Response] {
	return func(yield func(model.Response) bool) {
		params := m.buildParams(messages)
		asm := assemble.New(m.opts.Capabilities, m.opts.ThinkStart, m.opts.ThinkEnd, yield)
		if stream {
			m.handleStreaming(ctx, params, asm)
			return
		}
		m.handleNonStreaming(ctx, params, asm)
	}
}

// handleStreaming reads the SSE body line by line. Malformed fragments are
// skipped; the body is closed on every exit path.
func (m *Model) handleStreaming(ctx context.Context, params openai.ChatCompletionNewParams, asm *assemble.Assembler) {
	var resp *http.Response
	err := m.client.Post(ctx, "chat/completions", params, &resp, option.WithJSONSet("stream", true))
	if err != nil {
		asm.Fail(m.wrapError(err))
		return
	}
	dec := ssestream.NewDecoder(resp)
	if dec == nil {
		asm.Fail(&model.TransportError{Provider: m.opts.Vendor, Err: errors.New("empty response body")})
		return
	}
	defer dec.Close()

	for dec.Next() {
		data := bytes.TrimSpace(dec.Event().Data)
		if len(data) == 0 {
			continue
		}
		if bytes.HasPrefix(data, []byte("[DONE]")) {
			break
		}
		if e := gjson.GetBytes(data, "error"); e.Exists() && e.IsObject() {
			asm.Fail(m.streamError(e))
			return
		}
		var chunk openai.ChatCompletionChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			m.verbose.Warn("skipping malformed stream fragment",
				"error", &model.MalformedFragmentError{Provider: m.opts.Vendor, Data: string(data), Err: err})
			continue
		}
		for _, ch := range chunk.Choices {
			if ch.Index != 0 {
				continue
			}
			if !m.handleChoice(ch, asm) {
				return
			}
		}
	}
	if err := dec.Err(); err != nil {
		asm.Fail(&model.TransportError{Provider: m.opts.Vendor, Err: err})
		return
	}
	if err := asm.End(); err != nil {
		asm.Fail(&model.TransportError{Provider: m.opts.Vendor, Err: err})
	}
}

func (m *Model) handleChoice(ch openai.ChatCompletionChunkChoice, asm *assemble.Assembler) bool {
	if asm.Finished() {
		return true
	}
	if ch.Delta.Content != "" || m.opts.Capabilities.ReasoningField {
		if !asm.Text(ch.Delta.Content, m.reasoningField(ch.Delta.RawJSON())) {
			return false
		}
	}
	for _, tc := range ch.Delta.ToolCalls {
		asm.Fragment(toolcall.Fragment{
			Index:     int(tc.Index),
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	if ch.FinishReason != "" {
		return asm.Finish(ch.FinishReason)
	}
	return true
}

// handleNonStreaming processes a normal (non-streaming) completion through the
// same assembler so callers never special-case it.
func (m *Model) handleNonStreaming(ctx context.Context, params openai.ChatCompletionNewParams, asm *assemble.Assembler) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		asm.Fail(m.wrapError(err))
		return
	}
	if len(resp.Choices) == 0 {
		asm.Fail(&model.TransportError{Provider: m.opts.Vendor, Err: errors.New("no choices returned")})
		return
	}
	ch0 := resp.Choices[0]
	if !asm.Text(ch0.Message.Content, m.reasoningField(ch0.Message.RawJSON())) {
		return
	}
	for i, tc := range ch0.Message.ToolCalls {
		args := tc.Function.Arguments
		// Some vendors send a structured object instead of serialized text.
		if raw := gjson.Get(tc.RawJSON(), "function.arguments"); raw.IsObject() {
			args = toolcall.FromRaw(json.RawMessage(raw.Raw))
		}
		asm.Fragment(toolcall.Fragment{Index: i, ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	asm.Complete(ch0.FinishReason)
}

// reasoningField extracts the first non-empty dedicated reasoning value.
func (m *Model) reasoningField(raw string) string {
	if !m.opts.Capabilities.ReasoningField || raw == "" {
		return ""
	}
	for _, key := range m.opts.ReasoningFields {
		if v := gjson.Get(raw, key); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

func (m *Model) wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		body := ""
		if m.opts.Verbose {
			body = apiErr.RawJSON()
		}
		return &model.VendorStatusError{Provider: m.opts.Vendor, StatusCode: apiErr.StatusCode, Body: body}
	}
	return &model.TransportError{Provider: m.opts.Vendor, Err: err}
}

func (m *Model) streamError(e gjson.Result) error {
	msg := e.Get("message").String()
	if msg == "" {
		msg = e.Raw
	}
	code := int(e.Get("code").Int())
	if code == 0 {
		return &model.TransportError{Provider: m.opts.Vendor, Err: fmt.Errorf("stream error: %s", msg)}
	}
	body := ""
	if m.opts.Verbose {
		body = e.Raw
	}
	return &model.VendorStatusError{Provider: m.opts.Vendor, StatusCode: code, Body: body}
}

// ToolRole implements model.Provider; OpenAI-compatible vendors have a
// dedicated tool role.
func (m *Model) ToolRole() model.Role { return model.RoleTool }

// Info returns metadata describing this adapter.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      m.opts.Vendor,
		SupportsTools: true,
	}
}
