package llm

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
)

const (
	DefaultOpenRouterModel   = "openai/gpt-3.5-turbo"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenRouterConfig OpenRouter 配置（OpenAI 兼容接口）
type OpenRouterConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Referer      string
	Title        string
	HTTPClient   *http.Client
}

// OpenRouterClient 基于 go-openai 的 OpenRouter 适配器
type OpenRouterClient struct {
	cfg OpenRouterConfig
}

func NewOpenRouterClient(cfg OpenRouterConfig) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenRouterBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultOpenRouterModel
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.HTTPClient = defaultHTTPClient(cfg.HTTPClient)
	return &OpenRouterClient{cfg: cfg}
}

var (
	_ ChatProvider = (*OpenRouterClient)(nil)
	_ ModelLister  = (*OpenRouterClient)(nil)
)

func (c *OpenRouterClient) key(apiKey string) string {
	if apiKey != "" {
		return apiKey
	}
	return c.cfg.APIKey
}

// headerTransport 给每个请求追加 OpenRouter 的归属头
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(req)
}

func (c *OpenRouterClient) client(key string) *openai.Client {
	base := c.cfg.HTTPClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient := *c.cfg.HTTPClient
	httpClient.Transport = &headerTransport{
		base: base,
		headers: map[string]string{
			"HTTP-Referer": c.cfg.Referer,
			"X-Title":      c.cfg.Title,
		},
	}

	clientConfig := openai.DefaultConfig(key)
	clientConfig.BaseURL = c.cfg.BaseURL
	clientConfig.HTTPClient = &httpClient
	return openai.NewClientWithConfig(clientConfig)
}

func (c *OpenRouterClient) Chat(ctx context.Context, messages []Message, opts Options) (*Reply, error) {
	key := c.key(opts.APIKey)
	if key == "" {
		return nil, &ProviderError{Provider: ProviderOpenRouter, Err: ErrNoAPIKey}
	}
	model := opts.Model
	if model == "" {
		model = c.cfg.DefaultModel
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		MaxTokens:   opts.MaxOutputTokens,
		Temperature: openRouterTemperature(opts.Temperature),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client(key).CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, openRouterError(err, key)
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: ProviderOpenRouter, Message: "empty choices in response", Err: ErrMalformedResponse}
	}

	var tokens *int
	if resp.Usage.TotalTokens > 0 {
		tokens = intPtr(resp.Usage.TotalTokens)
	}
	return newReply(resp.Choices[0].Message.Content, tokens), nil
}

func openRouterError(err error, key string) *ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider:   ProviderOpenRouter,
			StatusCode: apiErr.HTTPStatusCode,
			Message:    Redact(apiErr.Message, key),
			Err:        err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{
			Provider:   ProviderOpenRouter,
			StatusCode: reqErr.HTTPStatusCode,
			Message:    Redact(reqErr.Error(), key),
			Err:        err,
		}
	}
	return NewProviderError(ProviderOpenRouter, err, key)
}

// ListModels 拉取 /models，目录接口不要求密钥；失败时返回内置列表
func (c *OpenRouterClient) ListModels(ctx context.Context, apiKey string) []ModelInfo {
	key := c.key(apiKey)
	headers := map[string]string{}
	if key != "" {
		headers["Authorization"] = "Bearer " + key
	}

	status, body, err := doJSON(ctx, c.cfg.HTTPClient, http.MethodGet, c.cfg.BaseURL+"/models", nil, headers)
	if err != nil || !isSuccess(status) || !gjson.ValidBytes(body) {
		event := log.Warn().Str("component", "llm").Str("provider", string(ProviderOpenRouter)).Int("status", status)
		if err != nil {
			event = event.Str("error", Redact(err.Error(), key))
		}
		event.Msg("拉取模型列表失败，使用内置列表")
		return OpenRouterFallbackModels()
	}

	var out []ModelInfo
	gjson.GetBytes(body, "data").ForEach(func(_, m gjson.Result) bool {
		id := m.Get("id").String()
		if id == "" {
			return true
		}
		name := m.Get("name").String()
		if name == "" {
			name = id
		}
		out = append(out, ModelInfo{
			ID:            id,
			Name:          name,
			ContextLength: int(m.Get("context_length").Int()),
			Provider:      ProviderOpenRouter,
			Description:   m.Get("description").String(),
		})
		return true
	})
	if len(out) == 0 {
		return OpenRouterFallbackModels()
	}
	return out
}

// openRouterTemperature go-openai 的 temperature 字段带 omitempty，0 需要换成最小正数才会发送
func openRouterTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}
