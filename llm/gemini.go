package llm

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const (
	DefaultGeminiModel   = "gemini-1.5-flash"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
)

// GeminiConfig Google Gemini 配置。APIKey 为系统默认密钥（环境变量）
type GeminiConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	HTTPClient   *http.Client
}

// GeminiClient Gemini generateContent 适配器
type GeminiClient struct {
	cfg GeminiConfig
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultGeminiModel
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.HTTPClient = defaultHTTPClient(cfg.HTTPClient)
	return &GeminiClient{cfg: cfg}
}

var (
	_ ChatProvider = (*GeminiClient)(nil)
	_ ModelLister  = (*GeminiClient)(nil)
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

func (c *GeminiClient) key(apiKey string) string {
	if apiKey != "" {
		return apiKey
	}
	return c.cfg.APIKey
}

// Chat 密钥通过 x-goog-api-key 头传递，不拼进 URL，避免出现在错误信息里
func (c *GeminiClient) Chat(ctx context.Context, messages []Message, opts Options) (*Reply, error) {
	key := c.key(opts.APIKey)
	if key == "" {
		return nil, &ProviderError{Provider: ProviderGoogle, Err: ErrNoAPIKey}
	}
	model := opts.Model
	if model == "" {
		model = c.cfg.DefaultModel
	}

	payload := geminiRequest{
		Contents: make([]geminiContent, 0, len(messages)),
		GenerationConfig: geminiGenerationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxOutputTokens,
		},
	}
	for _, m := range messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		payload.Contents = append(payload.Contents, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}

	endpoint := c.cfg.BaseURL + "/v1beta/models/" + url.PathEscape(strings.TrimPrefix(model, "models/")) + ":generateContent"
	status, body, err := doJSON(ctx, c.cfg.HTTPClient, http.MethodPost, endpoint, payload, map[string]string{
		"x-goog-api-key": key,
	})
	if err != nil {
		return nil, NewProviderError(ProviderGoogle, err, key)
	}
	if !isSuccess(status) {
		return nil, statusError(ProviderGoogle, status, body, key)
	}
	return parseGeminiResponse(body)
}

func parseGeminiResponse(body []byte) (*Reply, error) {
	if !gjson.ValidBytes(body) {
		return nil, &ProviderError{Provider: ProviderGoogle, Message: "invalid JSON response", Err: ErrMalformedResponse}
	}
	parts := gjson.GetBytes(body, "candidates.0.content.parts")
	if !parts.IsArray() {
		reason := gjson.GetBytes(body, "promptFeedback.blockReason").String()
		if reason != "" {
			return nil, &ProviderError{Provider: ProviderGoogle, Message: "prompt blocked: " + reason, Err: ErrMalformedResponse}
		}
		return nil, &ProviderError{Provider: ProviderGoogle, Message: "missing candidates in response", Err: ErrMalformedResponse}
	}

	var text strings.Builder
	for _, part := range parts.Array() {
		text.WriteString(part.Get("text").String())
	}

	var tokens *int
	if total := gjson.GetBytes(body, "usageMetadata.totalTokenCount"); total.Exists() {
		tokens = intPtr(int(total.Int()))
	}
	return newReply(text.String(), tokens), nil
}

// ListModels 拉取支持 generateContent 的模型，失败或无密钥时返回内置列表
func (c *GeminiClient) ListModels(ctx context.Context, apiKey string) []ModelInfo {
	key := c.key(apiKey)
	if key == "" {
		return GeminiFallbackModels()
	}

	status, body, err := doJSON(ctx, c.cfg.HTTPClient, http.MethodGet, c.cfg.BaseURL+"/v1beta/models?pageSize=200", nil, map[string]string{
		"x-goog-api-key": key,
	})
	if err != nil || !isSuccess(status) || !gjson.ValidBytes(body) {
		event := log.Warn().Str("component", "llm").Str("provider", string(ProviderGoogle)).Int("status", status)
		if err != nil {
			event = event.Str("error", Redact(err.Error(), key))
		}
		event.Msg("拉取模型列表失败，使用内置列表")
		return GeminiFallbackModels()
	}

	var out []ModelInfo
	gjson.GetBytes(body, "models").ForEach(func(_, m gjson.Result) bool {
		supported := false
		for _, method := range m.Get("supportedGenerationMethods").Array() {
			if method.String() == "generateContent" {
				supported = true
				break
			}
		}
		if !supported {
			return true
		}
		id := strings.TrimPrefix(m.Get("name").String(), "models/")
		if !strings.Contains(id, "gemini") {
			return true
		}
		name := m.Get("displayName").String()
		if name == "" {
			name = id
		}
		out = append(out, ModelInfo{
			ID:            id,
			Name:          name,
			ContextLength: int(m.Get("inputTokenLimit").Int()),
			Provider:      ProviderGoogle,
			Description:   m.Get("description").String(),
		})
		return true
	})
	if len(out) == 0 {
		return GeminiFallbackModels()
	}
	return out
}
