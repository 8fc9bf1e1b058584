// Package config holds the administrative configuration of a chat session:
// which provider to talk to, how tools are exposed and how deep a turn may
// recurse through tool calls. Files are YAML or TOML; environment variables
// with the CHATCORE_ prefix take precedence over file values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/chatcore/flow"
	"github.com/hupe1980/chatcore/logging"
	"github.com/hupe1980/chatcore/model"
)

// MinThinkingBudget is the smallest extended-thinking budget vendors accept.
const MinThinkingBudget = 1024

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CHATCORE_"

// Config is the top-level configuration.
type Config struct {
	Provider Provider `json:"provider" yaml:"provider" toml:"provider"`

	// FunctionCalling exposes locally registered tools to the model.
	FunctionCalling bool `json:"function_calling" yaml:"function_calling" toml:"function_calling"`
	// MCP exposes tools from remote tool servers.
	MCP bool `json:"mcp" yaml:"mcp" toml:"mcp"`

	MaxRecursionDepth int  `json:"max_recursion_depth" yaml:"max_recursion_depth" toml:"max_recursion_depth"`
	Stream            bool `json:"stream" yaml:"stream" toml:"stream"`
	Verbose           bool `json:"verbose" yaml:"verbose" toml:"verbose"`

	Log LogConfig `json:"log" yaml:"log" toml:"log"`
}

// Provider selects and parameterizes a vendor. Zero values fall back to the
// vendor preset.
type Provider struct {
	Name        string        `json:"name" yaml:"name" toml:"name"`
	APIKey      string        `json:"api_key" yaml:"api_key" toml:"api_key"`
	BaseURL     string        `json:"base_url" yaml:"base_url" toml:"base_url"`
	Model       string        `json:"model" yaml:"model" toml:"model"`
	Temperature *float64      `json:"temperature,omitempty" yaml:"temperature,omitempty" toml:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty" yaml:"top_p,omitempty" toml:"top_p,omitempty"`
	MaxTokens   int64         `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`

	ExtraHeaders map[string]string `json:"extra_headers,omitempty" yaml:"extra_headers,omitempty" toml:"extra_headers,omitempty"`
	ExtraBody    map[string]any    `json:"extra_body,omitempty" yaml:"extra_body,omitempty" toml:"extra_body,omitempty"`

	// ThinkingBudget enables extended thinking for the Anthropic family.
	ThinkingBudget int64 `json:"thinking_budget,omitempty" yaml:"thinking_budget,omitempty" toml:"thinking_budget,omitempty"`

	// Capability overrides; nil keeps the preset value.
	ReasoningField      *bool `json:"reasoning_field,omitempty" yaml:"reasoning_field,omitempty" toml:"reasoning_field,omitempty"`
	InlineThinkMarkers  *bool `json:"inline_think_markers,omitempty" yaml:"inline_think_markers,omitempty" toml:"inline_think_markers,omitempty"`
	ToolCallPlaceholder *bool `json:"tool_call_placeholder,omitempty" yaml:"tool_call_placeholder,omitempty" toml:"tool_call_placeholder,omitempty"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Provider:          Provider{Name: "openai"},
		FunctionCalling:   true,
		MaxRecursionDepth: flow.DefaultMaxRecursionDepth,
		Stream:            true,
		Log:               LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file on top of Default().
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return Parse(data, FormatYAML)
	case ".toml":
		return Parse(data, FormatTOML)
	default:
		return Config{}, &model.ConfigurationError{Field: "config", Value: path, Message: "unsupported file extension " + ext}
	}
}

// Format names a configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Parse decodes data in the given format on top of Default().
func Parse(data []byte, format Format) (Config, error) {
	cfg := Default()
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decode yaml config: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("decode toml config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("decode toml config: unknown key %q", undecoded[0].String())
		}
	default:
		return Config{}, &model.ConfigurationError{Field: "format", Value: string(format), Message: "unsupported format"}
	}
	return cfg, nil
}

// ApplyEnv overrides fields from CHATCORE_* variables. lookup is usually
// os.LookupEnv. Unparsable values are reported, not ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			return "", false
		}
		return v, true
	}

	if v, ok := get("PROVIDER"); ok {
		c.Provider.Name = v
	}
	if v, ok := get("API_KEY"); ok {
		c.Provider.APIKey = v
	}
	if v, ok := get("BASE_URL"); ok {
		c.Provider.BaseURL = v
	}
	if v, ok := get("MODEL"); ok {
		c.Provider.Model = v
	}
	if v, ok := get("TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &model.ConfigurationError{Field: "timeout", Value: v, Message: err.Error()}
		}
		c.Provider.Timeout = d
	}
	if v, ok := get("THINKING_BUDGET"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return &model.ConfigurationError{Field: "thinking_budget", Value: v, Message: "not an integer"}
		}
		c.Provider.ThinkingBudget = n
	}
	if v, ok := get("MAX_RECURSION_DEPTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &model.ConfigurationError{Field: "max_recursion_depth", Value: v, Message: "not an integer"}
		}
		c.MaxRecursionDepth = n
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"FUNCTION_CALLING", &c.FunctionCalling},
		{"MCP", &c.MCP},
		{"STREAM", &c.Stream},
		{"VERBOSE", &c.Verbose},
	}
	for _, b := range bools {
		v, ok := get(b.key)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return &model.ConfigurationError{Field: strings.ToLower(b.key), Value: v, Message: "not a boolean"}
		}
		*b.dst = parsed
	}

	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	return nil
}

// Validate checks the configuration for values no provider could accept.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Provider.Name) == "" {
		return &model.ConfigurationError{Field: "provider", Message: "a provider name is required"}
	}
	if c.MaxRecursionDepth < 0 {
		return &model.ConfigurationError{Field: "max_recursion_depth", Value: strconv.Itoa(c.MaxRecursionDepth), Message: "must not be negative"}
	}
	if c.Provider.MaxTokens < 0 {
		return &model.ConfigurationError{Field: "max_tokens", Value: strconv.FormatInt(c.Provider.MaxTokens, 10), Message: "must not be negative"}
	}
	if t := c.Provider.Temperature; t != nil && (*t < 0 || *t > 2) {
		return &model.ConfigurationError{Field: "temperature", Value: strconv.FormatFloat(*t, 'f', -1, 64), Message: "must be within [0, 2]"}
	}
	if p := c.Provider.TopP; p != nil && (*p < 0 || *p > 1) {
		return &model.ConfigurationError{Field: "top_p", Value: strconv.FormatFloat(*p, 'f', -1, 64), Message: "must be within [0, 1]"}
	}
	if b := c.Provider.ThinkingBudget; b != 0 {
		value := strconv.FormatInt(b, 10)
		if b < MinThinkingBudget {
			return &model.ConfigurationError{Field: "thinking_budget", Value: value, Message: "must be 0 or at least " + strconv.Itoa(MinThinkingBudget)}
		}
		if c.Provider.MaxTokens > 0 && b >= c.Provider.MaxTokens {
			return &model.ConfigurationError{Field: "thinking_budget", Value: value, Message: "must be below max_tokens"}
		}
	}
	if c.Provider.Timeout < 0 {
		return &model.ConfigurationError{Field: "timeout", Value: c.Provider.Timeout.String(), Message: "must not be negative"}
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return &model.ConfigurationError{Field: "log.format", Value: c.Log.Format, Message: "must be text or json"}
	}
	return nil
}

// LoggerConfig maps the log section onto a logging.LoggerConfig.
func (c Config) LoggerConfig() *logging.LoggerConfig {
	lc := logging.DefaultLoggerConfig()
	if c.Log.Level != "" {
		lc.Level = logging.ParseLevel(c.Log.Level)
	}
	if c.Log.Format != "" {
		lc.Format = c.Log.Format
	}
	return lc
}
