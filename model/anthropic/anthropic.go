// Package anthropic provides a model.Provider for the Anthropic Messages API.
// Anthropic has no dedicated tool role: tool results travel as tool_result
// blocks inside user messages.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/tidwall/gjson"

	"github.com/hupe1980/chatcore/internal/assemble"
	"github.com/hupe1980/chatcore/logging"
	"github.com/hupe1980/chatcore/model"
	"github.com/hupe1980/chatcore/toolcall"
)

// Options configures the Anthropic model adapter. Extend via functional
// options to preserve stability.
type Options struct {
	Vendor      string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64
	TopP        *float64
	MaxTokens   int64
	Timeout     time.Duration

	// ThinkingBudget enables extended thinking when > 0. Signed thinking is
	// echoed back on assistant turns so tool loops keep working.
	ThinkingBudget int64

	ExtraHeaders map[string]string
	ExtraBody    map[string]any

	Capabilities model.Capabilities
	ThinkStart   string
	ThinkEnd     string

	Tools   model.ToolSource
	Verbose bool
	Logger  logging.Logger

	HTTPClient *http.Client
}

// Model wraps the Anthropic Messages API behind the model.Provider interface.
type Model struct {
	client  *anthropic.Client
	opts    Options
	verbose logging.Logger
}

func defaultOptions() Options {
	return Options{
		Vendor:    "anthropic",
		Model:     string(anthropic.ModelClaude3_5Sonnet20241022),
		MaxTokens: 4096,
	}
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.APIKey == "" {
		return nil, &model.ConfigurationError{Field: "api_key", Value: opts.Vendor, Message: "an API key is required"}
	}
	if opts.Model == "" {
		return nil, &model.ConfigurationError{Field: "model", Value: opts.Vendor, Message: "a model name is required"}
	}
	if opts.MaxTokens <= 0 {
		return nil, &model.ConfigurationError{Field: "max_tokens", Value: opts.Vendor, Message: "must be positive"}
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
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

	client := anthropic.NewClient(clientOpts...)
	return NewModelFromClient(&client, opts), nil
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, opts Options) *Model {
	verbose := logging.Verbose(opts.Logger, opts.Verbose)
	verbose.Info("provider configured",
		"provider", opts.Vendor,
		"model", opts.Model,
		"base_url", opts.BaseURL,
		"max_tokens", opts.MaxTokens,
		"timeout", opts.Timeout,
		"thinking_budget", opts.ThinkingBudget,
	)
	return &Model{
		client:  client,
		opts:    opts,
		verbose: verbose,
	}
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

func (m *Model) handleStreaming(ctx context.Context, params anthropic.MessageNewParams, asm *assemble.Assembler) {
	var resp *http.Response
	err := m.client.Post(ctx, "v1/messages", params, &resp, option.WithJSONSet("stream", true))
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
		ev := dec.Event()
		data := bytes.TrimSpace(ev.Data)
		if len(data) == 0 {
			continue
		}
		if ev.Type == "error" {
			asm.Fail(m.streamError(data))
			return
		}
		var event anthropic.MessageStreamEventUnion
		if err := json.Unmarshal(data, &event); err != nil {
			m.verbose.Warn("skipping malformed stream fragment",
				"error", &model.MalformedFragmentError{Provider: m.opts.Vendor, Data: string(data), Err: err})
			continue
		}
		if !m.handleEvent(event, asm) {
			return
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

func (m *Model) handleEvent(event anthropic.MessageStreamEventUnion, asm *assemble.Assembler) bool {
	switch ev := event.AsAny().(type) {
	case anthropic.ContentBlockStartEvent:
		if ev.ContentBlock.Type == "tool_use" {
			asm.Fragment(toolcall.Fragment{Index: int(ev.Index), ID: ev.ContentBlock.ID, Name: ev.ContentBlock.Name})
		}
	case anthropic.ContentBlockDeltaEvent:
		switch ev.Delta.Type {
		case "text_delta":
			return asm.Text(ev.Delta.Text, "")
		case "thinking_delta":
			return asm.Text("", ev.Delta.Thinking)
		case "signature_delta":
			return asm.Signature(ev.Delta.Signature)
		case "input_json_delta":
			asm.Fragment(toolcall.Fragment{Index: int(ev.Index), Arguments: ev.Delta.PartialJSON})
		}
	case anthropic.MessageDeltaEvent:
		if ev.Delta.StopReason != "" {
			return asm.Finish(string(ev.Delta.StopReason))
		}
	}
	return true
}

func (m *Model) handleNonStreaming(ctx context.Context, params anthropic.MessageNewParams, asm *assemble.Assembler) {
	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		asm.Fail(m.wrapError(err))
		return
	}

	for i, block := range resp.Content {
		switch block.Type {
		case "text":
			if !asm.Text(block.AsText().Text, "") {
				return
			}
		case "thinking":
			thinking := block.AsThinking()
			if !asm.Text("", thinking.Thinking) || !asm.Signature(thinking.Signature) {
				return
			}
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := ""
			if toolBlock.Input != nil {
				if raw, err := json.Marshal(toolBlock.Input); err == nil {
					args = toolcall.FromRaw(raw)
				}
			}
			asm.Fragment(toolcall.Fragment{Index: i, ID: toolBlock.ID, Name: toolBlock.Name, Arguments: args})
		}
	}

	finishReason := "stop"
	if resp.StopReason != "" {
		finishReason = string(resp.StopReason)
	}
	asm.Complete(finishReason)
}

func (m *Model) wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		body := ""
		if m.opts.Verbose {
			body = apiErr.RawJSON()
		}
		return &model.VendorStatusError{Provider: m.opts.Vendor, StatusCode: apiErr.StatusCode, Body: body}
	}
	return &model.TransportError{Provider: m.opts.Vendor, Err: err}
}

func (m *Model) streamError(data []byte) error {
	kind := gjson.GetBytes(data, "error.type").String()
	msg := gjson.GetBytes(data, "error.message").String()
	if m.opts.Verbose {
		m.verbose.Warn("stream error event", "body", string(data))
	}
	return &model.TransportError{Provider: m.opts.Vendor, Err: fmt.Errorf("stream error: %s: %s", kind, msg)}
}

// ToolRole implements model.Provider. Tool results are user messages.
func (m *Model) ToolRole() model.Role { return model.RoleUser }

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      m.opts.Vendor,
		SupportsTools: true,
	}
}
