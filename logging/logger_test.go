package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf, Component: "flow"})

	l.Debug("tool call detected", "tool_name", "echo")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tool call detected", entry["msg"])
	assert.Equal(t, "echo", entry["tool_name"])
	assert.Equal(t, "flow", entry["component"])
}

func TestNewLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Output: &buf})

	l.Info("hidden")
	assert.Zero(t, buf.Len())
	assert.False(t, Enabled(l, LogLevelInfo))

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Output: &buf})

	Verbose(l, false).Info("dropped")
	assert.Zero(t, buf.Len())

	Verbose(l, true).Info("kept")
	assert.Contains(t, buf.String(), "kept")

	assert.IsType(t, NoOpLogger{}, Verbose(nil, true))
}

func TestWithAndLogToolCall(t *testing.T) {
	var buf bytes.Buffer
	l := With(NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf}), "depth", 1)

	LogToolCall(l, "echo", time.Millisecond, false)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, float64(1), entry["depth"])
	assert.Equal(t, "echo", entry["tool_name"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("nonsense"))
	assert.Equal(t, "WARN", LogLevelWarn.String())
}
