package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	DefaultAnthropicModel     = "claude-3-haiku-20240307"
	defaultAnthropicBaseURL   = "https://api.anthropic.com"
	defaultAnthropicMaxTokens = 1024
	anthropicVersion          = "2023-06-01"
)

// AnthropicConfig Anthropic Messages API 配置
type AnthropicConfig struct {
	BaseURL      string
	DefaultModel string
	HTTPClient   *http.Client
}

// AnthropicClient Anthropic 适配器
type AnthropicClient struct {
	cfg AnthropicConfig
}

func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultAnthropicModel
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.HTTPClient = defaultHTTPClient(cfg.HTTPClient)
	return &AnthropicClient{cfg: cfg}
}

var _ ChatProvider = (*AnthropicClient)(nil)

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *AnthropicClient) Chat(ctx context.Context, messages []Message, opts Options) (*Reply, error) {
	if opts.APIKey == "" {
		return nil, &ProviderError{Provider: ProviderAnthropic, Err: ErrNoAPIKey}
	}

	model := opts.Model
	if model == "" {
		model = c.cfg.DefaultModel
	}
	maxTokens := opts.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	payload := anthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
		Messages:    make([]anthropicMessage, 0, len(messages)),
	}
	for _, m := range messages {
		payload.Messages = append(payload.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	status, body, err := doJSON(ctx, c.cfg.HTTPClient, http.MethodPost, c.cfg.BaseURL+"/v1/messages", payload, map[string]string{
		"x-api-key":         opts.APIKey,
		"anthropic-version": anthropicVersion,
	})
	if err != nil {
		return nil, NewProviderError(ProviderAnthropic, err, opts.APIKey)
	}
	if !isSuccess(status) {
		return nil, statusError(ProviderAnthropic, status, body, opts.APIKey)
	}

	return parseAnthropicResponse(body)
}

// parseAnthropicResponse 拼接所有 text 类型的 content block
func parseAnthropicResponse(body []byte) (*Reply, error) {
	if !gjson.ValidBytes(body) {
		return nil, &ProviderError{Provider: ProviderAnthropic, Message: "invalid JSON response", Err: ErrMalformedResponse}
	}
	content := gjson.GetBytes(body, "content")
	if !content.IsArray() {
		return nil, &ProviderError{Provider: ProviderAnthropic, Message: "missing content in response", Err: ErrMalformedResponse}
	}

	var text strings.Builder
	for _, block := range content.Array() {
		if block.Get("type").String() == "text" {
			text.WriteString(block.Get("text").String())
		}
	}

	var tokens *int
	usage := gjson.GetBytes(body, "usage")
	if usage.Exists() {
		tokens = intPtr(int(usage.Get("input_tokens").Int() + usage.Get("output_tokens").Int()))
	}
	return newReply(text.String(), tokens), nil
}
