// Package provider resolves a vendor name to a model.Provider. Resolution is
// case-insensitive and lazy: only the selected adapter is constructed, and
// every call returns an independent instance.
package provider

import (
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/chatcore/config"
	"github.com/hupe1980/chatcore/logging"
	"github.com/hupe1980/chatcore/model"
	"github.com/hupe1980/chatcore/model/anthropic"
	"github.com/hupe1980/chatcore/model/openai"
)

// Options carries runtime collaborators that are not part of the
// administrative configuration.
type Options struct {
	Verbose bool
	Logger  logging.Logger
	Tools   model.ToolSource

	// LookupEnv resolves preset API key variables. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Constructor builds a provider once its name resolved.
type Constructor func(cfg config.Provider, opts Options) (model.Provider, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

func init() {
	for _, p := range presets {
		registry[p.Name] = presetConstructor(p)
	}
}

// Register adds or replaces a constructor under a case-insensitive name.
func Register(name string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[normalize(name)] = c
}

// Names lists every resolvable name, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// New resolves name and constructs its provider. An unknown name yields a
// *model.ConfigurationError naming the offending value.
func New(name string, cfg config.Provider, optFns ...func(o *Options)) (model.Provider, error) {
	opts := Options{LookupEnv: os.LookupEnv}
	for _, fn := range optFns {
		fn(&opts)
	}

	mu.RLock()
	ctor, ok := registry[normalize(name)]
	mu.RUnlock()
	if !ok {
		return nil, &model.ConfigurationError{
			Field:   "provider",
			Value:   name,
			Message: "unknown provider (known: " + strings.Join(Names(), ", ") + ")",
		}
	}

	p, err := ctor(cfg, opts)
	if err != nil {
		return nil, err
	}
	logging.OrNoOp(opts.Logger).Debug("provider resolved", "name", normalize(name), "provider", p.Info().Provider, "model", p.Info().Name)
	return p, nil
}

// FromConfig is New(cfg.Provider.Name, cfg.Provider) with verbosity taken
// from the configuration.
func FromConfig(cfg config.Config, optFns ...func(o *Options)) (model.Provider, error) {
	return New(cfg.Provider.Name, cfg.Provider, append([]func(o *Options){func(o *Options) {
		o.Verbose = cfg.Verbose
	}}, optFns...)...)
}

func normalize(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

func presetConstructor(p Preset) Constructor {
	return func(cfg config.Provider, opts Options) (model.Provider, error) {
		apiKey := cfg.APIKey
		if apiKey == "" && p.APIKeyEnv != "" && opts.LookupEnv != nil {
			apiKey, _ = opts.LookupEnv(p.APIKeyEnv)
		}
		caps := capabilities(p.Capabilities, cfg)
		logger := logging.With(logging.OrNoOp(opts.Logger), "provider", p.Name)

		switch p.Family {
		case familyAnthropic:
			m, err := anthropic.NewModel(func(o *anthropic.Options) {
				o.Vendor = p.Name
				o.APIKey = apiKey
				o.BaseURL = cfg.BaseURL
				o.Model = firstNonEmpty(cfg.Model, p.DefaultModel)
				o.Temperature = cfg.Temperature
				o.TopP = cfg.TopP
				if cfg.MaxTokens > 0 {
					o.MaxTokens = cfg.MaxTokens
				}
				o.Timeout = cfg.Timeout
				o.ThinkingBudget = cfg.ThinkingBudget
				o.ExtraHeaders = cfg.ExtraHeaders
				o.ExtraBody = cfg.ExtraBody
				o.Capabilities = caps
				o.Tools = opts.Tools
				o.Verbose = opts.Verbose
				o.Logger = logger
			})
			if err != nil {
				return nil, err
			}
			return m, nil
		default:
			m, err := openai.NewModel(func(o *openai.Options) {
				o.Vendor = p.Name
				o.APIKey = apiKey
				o.BaseURL = firstNonEmpty(cfg.BaseURL, p.BaseURL)
				o.Model = firstNonEmpty(cfg.Model, p.DefaultModel)
				o.Temperature = cfg.Temperature
				o.TopP = cfg.TopP
				o.MaxTokens = cfg.MaxTokens
				o.Timeout = cfg.Timeout
				o.ExtraHeaders = cfg.ExtraHeaders
				o.ExtraBody = cfg.ExtraBody
				o.Capabilities = caps
				o.RequireAPIKey = p.RequireKey
				o.Tools = opts.Tools
				o.Verbose = opts.Verbose
				o.Logger = logger
			})
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
}

func capabilities(base model.Capabilities, cfg config.Provider) model.Capabilities {
	if cfg.ReasoningField != nil {
		base.ReasoningField = *cfg.ReasoningField
	}
	if cfg.InlineThinkMarkers != nil {
		base.InlineThinkMarkers = *cfg.InlineThinkMarkers
	}
	if cfg.ToolCallPlaceholder != nil {
		base.ToolCallPlaceholder = *cfg.ToolCallPlaceholder
	}
	return base
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
