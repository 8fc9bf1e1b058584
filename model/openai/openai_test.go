package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatcore/model"
)

type staticTools []model.ToolDefinition

func (s staticTools) ToolDefinitions() []model.ToolDefinition { return s }

// sseServer replies to every request with the given data lines as an event stream
// and records the last request body.
func sseServer(t *testing.T, lines ...string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, l := range lines {
			fmt.Fprintf(w, "data: %s\n\n", l)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &body
}

func jsonServer(t *testing.T, status int, payload string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestModel(t *testing.T, baseURL string, optFns ...func(o *Options)) *Model {
	t.Helper()
	m, err := NewModel(append([]func(o *Options){func(o *Options) {
		o.APIKey = "test-key"
		o.BaseURL = baseURL + "/"
		o.Model = "test-model"
	}}, optFns...)...)
	require.NoError(t, err)
	return m
}

func TestNewModel_RequiresAPIKey(t *testing.T) {
	_, err := NewModel(func(o *Options) { o.Vendor = "deepseek" })
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
	assert.Contains(t, err.Error(), "deepseek")

	_, err = NewModel(func(o *Options) { o.RequireAPIKey = false; o.Vendor = "ollama" })
	assert.NoError(t, err)
}

func TestCompletion_StreamingContent(t *testing.T) {
	srv, body := sseServer(t,
		`{"id":"1","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}]}`,
		`{not json`,
		`{"id":"1","choices":[{"index":0,"delta":{"content":"lo"}}]}`,
		`{"id":"1","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		`[DONE]`,
	)
	m := newTestModel(t, srv.URL, func(o *Options) { o.ExtraBody = map[string]any{"seed": 7} })

	out := model.Collect(m.Completion(t.Context(), []model.Message{model.UserMessage("hi")}, true))

	require.Len(t, out, 3)
	assert.Equal(t, "Hel", out[0].Content)
	assert.Equal(t, "lo", out[1].Content)
	assert.Equal(t, model.FinishStop, out[2].FinishReason)
	for _, r := range out {
		assert.NoError(t, r.Err)
	}

	assert.Equal(t, true, (*body)["stream"])
	assert.Equal(t, float64(7), (*body)["seed"])
	assert.Equal(t, "test-model", (*body)["model"])
}

func TestCompletion_StreamingReasoningField(t *testing.T) {
	srv, _ := sseServer(t,
		`{"choices":[{"index":0,"delta":{"content":"","reasoning_content":"thinking"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":"<think>answer","reasoning_content":"more"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":"!"},"finish_reason":"stop"}]}`,
	)
	m := newTestModel(t, srv.URL, func(o *Options) {
		o.Capabilities = model.Capabilities{ReasoningField: true, InlineThinkMarkers: true}
	})

	out := model.Collect(m.Completion(t.Context(), []model.Message{model.UserMessage("q")}, true))

	require.Len(t, out, 4)
	assert.Equal(t, model.Response{Reasoning: "thinking"}, out[0])
	assert.Equal(t, model.Response{Content: "<think>answer", Reasoning: "more"}, out[1])
	assert.Equal(t, "!", out[2].Content)
	assert.Equal(t, model.FinishStop, out[3].FinishReason)
}

func TestCompletion_StreamingInlineMarkers(t *testing.T) {
	srv, _ := sseServer(t,
		`{"choices":[{"index":0,"delta":{"content":"<thi"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":"nk>plan</think>\n\nDone"}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
	)
	m := newTestModel(t, srv.URL, func(o *Options) {
		o.Capabilities = model.Capabilities{InlineThinkMarkers: true}
	})

	out := model.Collect(m.Completion(t.Context(), []model.Message{model.UserMessage("q")}, true))

	require.Len(t, out, 3)
	assert.Equal(t, model.Response{Reasoning: "plan"}, out[0])
	assert.Equal(t, model.Response{Content: "Done"}, out[1])
	assert.Equal(t, model.FinishStop, out[2].FinishReason)
}

func TestCompletion_StreamTruncatedInsideToolCall(t *testing.T) {
	srv, _ := sseServer(t,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"delete_file","arguments":"{\"path\":\"/tmp/important_rep"}}]}}]}`,
	)
	m := newTestModel(t, srv.URL)

	out := model.Collect(m.Completion(t.Context(), []model.Message{model.UserMessage("clean up")}, true))

	require.Len(t, out, 1)
	assert.Nil(t, out[0].ToolCall)
	var transportErr *model.TransportError
	require.ErrorAs(t, out[0].Err, &transportErr)
	assert.Equal(t, "openai", transportErr.Provider)
}

func TestCompletion_StreamEndsWithoutFinishReason(t *testing.T) {
	srv, _ := sseServer(t,
		`{"choices":[{"index":0,"delta":{"content":"partial answer"}}]}`,
		`[DONE]`,
	)
	m := newTestModel(t, srv.URL)

	out := model.Collect(m.Completion(t.Context(), []model.Message{model.UserMessage("q")}, true))

	require.Len(t, out, 1)
	assert.Equal(t, model.Response{Content: "partial answer"}, out[0])
}

func TestCompletion_StreamingToolCall(t *testing.T) {
	srv, body := sseServer(t,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_weather","arguments":""}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"city\":"}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"Paris\"}"}}]}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
		`[DONE]`,
	)
	tools := staticTools{{Name: "get_weather", Description: "Weather", Parameters: map[string]any{"type": "object"}}}
	m := newTestModel(t, srv.URL, func(o *Options) { o.Tools = tools })

	msgs := []model.Message{
		model.UserMessage("weather?"),
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{{ID: "old", Name: "get_weather", Arguments: `{}`}}},
		{Role: model.RoleTool, ToolCallID: "old", Content: "sunny"},
	}
	out := model.Collect(m.Completion(t.Context(), msgs, true))

	require.Len(t, out, 1)
	require.NotNil(t, out[0].ToolCall)
	assert.Equal(t, "call_1", out[0].ToolCall.ID)
	assert.Equal(t, "get_weather", out[0].ToolCall.Name)
	assert.Equal(t, `{"city":"Paris"}`, out[0].ToolCall.Arguments)
	assert.Equal(t, model.FinishToolCalls, out[0].FinishReason)

	reqTools, _ := (*body)["tools"].([]any)
	require.Len(t, reqTools, 1)
	reqMsgs, _ := (*body)["messages"].([]any)
	require.Len(t, reqMsgs, 3)
	toolMsg, _ := reqMsgs[2].(map[string]any)
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "old", toolMsg["tool_call_id"])
}

func TestCompletion_StreamErrorPayload(t *testing.T) {
	srv, _ := sseServer(t,
		`{"choices":[{"index":0,"delta":{"content":"partial"}}]}`,
		`{"error":{"message":"overloaded","code":529}}`,
	)
	m := newTestModel(t, srv.URL)

	out := model.Collect(m.Completion(t.Context(), []model.Message{model.UserMessage("q")}, true))

	require.Len(t, out, 2)
	assert.Equal(t, "partial", out[0].Content)
	var statusErr *model.VendorStatusError
	require.ErrorAs(t, out[1].Err, &statusErr)
	assert.Equal(t, 529, statusErr.StatusCode)
}

func TestCompletion_NonStreaming(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{
		"id": "x",
		"object": "chat.completion",
		"choices": [{
			"index": 0,
			"finish_reason": "tool_calls",
			"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{"id": "c1", "type": "function", "function": {"name": "sum", "arguments": "{\"a\":1,\"b\":2}"}}]
			}
		}]
	}`)
	m := newTestModel(t, srv.URL, func(o *Options) {
		o.Capabilities = model.Capabilities{ToolCallPlaceholder: true}
	})

	out := model.Collect(m.Completion(t.Context(), []model.Message{model.UserMessage("1+2")}, false))

	require.Len(t, out, 1)
	assert.Equal(t, "c1", out[0].Content, "placeholder content for empty tool-call turn")
	require.NotNil(t, out[0].ToolCall)
	assert.Equal(t, `{"a":1,"b":2}`, out[0].ToolCall.Arguments)
}

func TestCompletion_NonStreamingText(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"4"}}]}`)
	m := newTestModel(t, srv.URL)

	out := model.Collect(m.Completion(t.Context(), []model.Message{model.UserMessage("2+2?")}, false))

	require.Len(t, out, 2)
	assert.Equal(t, "4", out[0].Content)
	assert.Equal(t, model.FinishStop, out[1].FinishReason)
}

func TestCompletion_VendorStatusError(t *testing.T) {
	payload := `{"error":{"message":"bad key","type":"invalid_request_error"}}`
	srv := jsonServer(t, http.StatusUnauthorized, payload)

	quiet := newTestModel(t, srv.URL)
	out := model.Collect(quiet.Completion(t.Context(), []model.Message{model.UserMessage("q")}, true))
	require.Len(t, out, 1)
	var statusErr *model.VendorStatusError
	require.ErrorAs(t, out[0].Err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Empty(t, statusErr.Body)

	loud := newTestModel(t, srv.URL, func(o *Options) { o.Verbose = true })
	out = model.Collect(loud.Completion(t.Context(), []model.Message{model.UserMessage("q")}, false))
	require.Len(t, out, 1)
	require.ErrorAs(t, out[0].Err, &statusErr)
	assert.True(t, strings.Contains(statusErr.Body, "bad key"))
}

func TestCompletion_EarlyBreakStopsReading(t *testing.T) {
	srv, _ := sseServer(t,
		`{"choices":[{"index":0,"delta":{"content":"a"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":"b"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":"c"}}]}`,
	)
	m := newTestModel(t, srv.URL)

	var got []string
	for r := range m.Completion(t.Context(), []model.Message{model.UserMessage("q")}, true) {
		got = append(got, r.Content)
		break
	}
	assert.Equal(t, []string{"a"}, got)
}

func TestToolRoleAndInfo(t *testing.T) {
	m := newTestModel(t, "http://localhost", func(o *Options) { o.Vendor = "deepseek" })
	assert.Equal(t, model.RoleTool, m.ToolRole())
	assert.Equal(t, model.Info{Name: "test-model", Provider: "deepseek", SupportsTools: true}, m.Info())
}
