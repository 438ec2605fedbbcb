package llm

// 模型目录拉取失败时使用的内置列表
var (
	geminiFallback = []ModelInfo{
		{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", ContextLength: 1048576, Provider: ProviderGoogle, Description: "Fast and versatile multimodal model"},
		{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", ContextLength: 2097152, Provider: ProviderGoogle, Description: "Mid-size multimodal model for complex reasoning"},
		{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", ContextLength: 1048576, Provider: ProviderGoogle, Description: "Next generation Flash model"},
		{ID: "gemini-1.0-pro", Name: "Gemini 1.0 Pro", ContextLength: 30720, Provider: ProviderGoogle, Description: "Text-only model"},
	}

	openRouterFallback = []ModelInfo{
		{ID: "openai/gpt-3.5-turbo", Name: "OpenAI: GPT-3.5 Turbo", ContextLength: 16385, Provider: ProviderOpenRouter, Description: "OpenAI GPT-3.5 Turbo"},
		{ID: "openai/gpt-4o-mini", Name: "OpenAI: GPT-4o-mini", ContextLength: 128000, Provider: ProviderOpenRouter, Description: "OpenAI GPT-4o mini"},
		{ID: "anthropic/claude-3-haiku", Name: "Anthropic: Claude 3 Haiku", ContextLength: 200000, Provider: ProviderOpenRouter, Description: "Anthropic Claude 3 Haiku"},
		{ID: "google/gemini-flash-1.5", Name: "Google: Gemini Flash 1.5", ContextLength: 1000000, Provider: ProviderOpenRouter, Description: "Google Gemini 1.5 Flash"},
		{ID: "meta-llama/llama-3-8b-instruct", Name: "Meta: Llama 3 8B Instruct", ContextLength: 8192, Provider: ProviderOpenRouter, Description: "Meta Llama 3 8B instruct"},
		{ID: "mistralai/mistral-7b-instruct", Name: "Mistral: Mistral 7B Instruct", ContextLength: 32768, Provider: ProviderOpenRouter, Description: "Mistral 7B instruct"},
	}
)

// GeminiFallbackModels 返回副本，调用方可以修改
func GeminiFallbackModels() []ModelInfo {
	return append([]ModelInfo(nil), geminiFallback...)
}

// OpenRouterFallbackModels 返回副本，调用方可以修改
func OpenRouterFallbackModels() []ModelInfo {
	return append([]ModelInfo(nil), openRouterFallback...)
}
