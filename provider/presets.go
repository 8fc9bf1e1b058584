package provider

import "github.com/hupe1980/chatcore/model"

// Preset is the built-in default for one vendor. Every field can be
// overridden by config.Provider.
type Preset struct {
	Name         string
	Family       string
	BaseURL      string
	APIKeyEnv    string
	DefaultModel string
	RequireKey   bool
	Capabilities model.Capabilities
}

const (
	familyOpenAI    = "openai"
	familyAnthropic = "anthropic"
)

var presets = []Preset{
	{
		Name: "openai", Family: familyOpenAI,
		BaseURL: "https://api.openai.com/v1/", APIKeyEnv: "OPENAI_API_KEY",
		DefaultModel: "gpt-4o-mini", RequireKey: true,
	},
	{
		Name: "deepseek", Family: familyOpenAI,
		BaseURL: "https://api.deepseek.com/v1/", APIKeyEnv: "DEEPSEEK_API_KEY",
		DefaultModel: "deepseek-chat", RequireKey: true,
		Capabilities: model.Capabilities{ReasoningField: true},
	},
	{
		Name: "openrouter", Family: familyOpenAI,
		BaseURL: "https://openrouter.ai/api/v1/", APIKeyEnv: "OPENROUTER_API_KEY",
		DefaultModel: "openai/gpt-4o-mini", RequireKey: true,
		Capabilities: model.Capabilities{ReasoningField: true},
	},
	{
		Name: "groq", Family: familyOpenAI,
		BaseURL: "https://api.groq.com/openai/v1/", APIKeyEnv: "GROQ_API_KEY",
		DefaultModel: "llama-3.3-70b-versatile", RequireKey: true,
		Capabilities: model.Capabilities{ReasoningField: true, InlineThinkMarkers: true},
	},
	{
		Name: "mistral", Family: familyOpenAI,
		BaseURL: "https://api.mistral.ai/v1/", APIKeyEnv: "MISTRAL_API_KEY",
		DefaultModel: "mistral-small-latest", RequireKey: true,
	},
	{
		Name: "together", Family: familyOpenAI,
		BaseURL: "https://api.together.xyz/v1/", APIKeyEnv: "TOGETHER_API_KEY",
		DefaultModel: "meta-llama/Llama-3.3-70B-Instruct-Turbo", RequireKey: true,
		Capabilities: model.Capabilities{InlineThinkMarkers: true},
	},
	{
		Name: "xai", Family: familyOpenAI,
		BaseURL: "https://api.x.ai/v1/", APIKeyEnv: "XAI_API_KEY",
		DefaultModel: "grok-3-mini", RequireKey: true,
		Capabilities: model.Capabilities{ReasoningField: true},
	},
	{
		Name: "ollama", Family: familyOpenAI,
		BaseURL: "http://localhost:11434/v1/", APIKeyEnv: "OLLAMA_API_KEY",
		DefaultModel: "llama3.2",
		Capabilities: model.Capabilities{ReasoningField: true, InlineThinkMarkers: true},
	},
	{
		Name: "lmstudio", Family: familyOpenAI,
		BaseURL: "http://localhost:1234/v1/", APIKeyEnv: "LMSTUDIO_API_KEY",
		DefaultModel: "local-model",
		Capabilities: model.Capabilities{ReasoningField: true, InlineThinkMarkers: true},
	},
	{
		Name: "siliconflow", Family: familyOpenAI,
		BaseURL: "https://api.siliconflow.cn/v1/", APIKeyEnv: "SILICONFLOW_API_KEY",
		DefaultModel: "deepseek-ai/DeepSeek-V3", RequireKey: true,
		Capabilities: model.Capabilities{ReasoningField: true},
	},
	{
		Name: "moonshot", Family: familyOpenAI,
		BaseURL: "https://api.moonshot.cn/v1/", APIKeyEnv: "MOONSHOT_API_KEY",
		DefaultModel: "moonshot-v1-8k", RequireKey: true,
	},
	{
		Name: "chatglm", Family: familyOpenAI,
		BaseURL: "https://open.bigmodel.cn/api/paas/v4/", APIKeyEnv: "CHATGLM_API_KEY",
		DefaultModel: "glm-4-flash", RequireKey: true,
		Capabilities: model.Capabilities{ReasoningField: true, ToolCallPlaceholder: true},
	},
	{
		Name: "doubao", Family: familyOpenAI,
		BaseURL: "https://ark.cn-beijing.volces.com/api/v3/", APIKeyEnv: "DOUBAO_API_KEY",
		DefaultModel: "doubao-1-5-pro-32k-250115", RequireKey: true,
		Capabilities: model.Capabilities{ReasoningField: true},
	},
	{
		Name: "minimax", Family: familyOpenAI,
		BaseURL: "https://api.minimax.chat/v1/", APIKeyEnv: "MINIMAX_API_KEY",
		DefaultModel: "MiniMax-Text-01", RequireKey: true,
		Capabilities: model.Capabilities{InlineThinkMarkers: true, ToolCallPlaceholder: true},
	},
	{
		Name: "qwen", Family: familyOpenAI,
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1/", APIKeyEnv: "DASHSCOPE_API_KEY",
		DefaultModel: "qwen-plus", RequireKey: true,
		Capabilities: model.Capabilities{ReasoningField: true},
	},
	{
		Name: "anthropic", Family: familyAnthropic,
		APIKeyEnv: "ANTHROPIC_API_KEY", DefaultModel: "claude-3-5-sonnet-latest", RequireKey: true,
	},
	{
		Name: "claude", Family: familyAnthropic,
		APIKeyEnv: "ANTHROPIC_API_KEY", DefaultModel: "claude-3-5-sonnet-latest", RequireKey: true,
	},
}

// Presets returns a copy of the built-in vendor presets.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}
