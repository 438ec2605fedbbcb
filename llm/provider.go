// Package llm 模型服务商适配层
//
// 每个服务商（Anthropic、Google Gemini、OpenRouter）实现 ChatProvider，把统一的消息结构
// 转成各自的请求格式，并把响应拼成一段完整文本返回。分发层只消费完整文本，不做流式转发。
package llm

import (
	"context"
	"strings"
	"time"
)

// Provider 模型服务商
type Provider string

const (
	ProviderAnthropic  Provider = "anthropic"
	ProviderGoogle     Provider = "google"
	ProviderOpenRouter Provider = "openrouter"
	ProviderUnknown    Provider = "unknown"
)

// Valid 是否为可直接调用的服务商
func (p Provider) Valid() bool {
	switch p {
	case ProviderAnthropic, ProviderGoogle, ProviderOpenRouter:
		return true
	}
	return false
}

// ParseProvider 解析服务商名称，兼容 gemini 别名
func ParseProvider(s string) (Provider, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "anthropic", "claude":
		return ProviderAnthropic, true
	case "google", "gemini":
		return ProviderGoogle, true
	case "openrouter":
		return ProviderOpenRouter, true
	}
	return ProviderUnknown, false
}

// Classify 根据模型 ID 判断服务商，规则按顺序匹配：
// 含 "/" 为 openrouter；含 "gemini" 为 google；含 "claude" 为 anthropic；其余 unknown
func Classify(model string) Provider {
	switch {
	case strings.Contains(model, "/"):
		return ProviderOpenRouter
	case strings.Contains(model, "gemini"):
		return ProviderGoogle
	case strings.Contains(model, "claude"):
		return ProviderAnthropic
	default:
		return ProviderUnknown
	}
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 统一消息结构
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options 单次调用参数，Model/APIKey 为空时由适配器使用默认值
type Options struct {
	Temperature     float64
	MaxOutputTokens int
	Model           string
	APIKey          string
}

// Reply 完整的助手回复
type Reply struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	TokensUsed *int      `json:"tokens_used,omitempty"`
}

// ChatProvider 聊天适配器
type ChatProvider interface {
	Chat(ctx context.Context, messages []Message, opts Options) (*Reply, error)
}

// ModelInfo 模型目录条目
type ModelInfo struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ContextLength int      `json:"context_length"`
	Provider      Provider `json:"provider"`
	Description   string   `json:"description"`
}

// ModelLister 多模型服务商的模型目录。实时拉取失败时返回内置列表，不返回错误
type ModelLister interface {
	ListModels(ctx context.Context, apiKey string) []ModelInfo
}

func newReply(content string, tokens *int) *Reply {
	return &Reply{
		Role:       RoleAssistant,
		Content:    content,
		Timestamp:  time.Now().UTC(),
		TokensUsed: tokens,
	}
}

func intPtr(v int) *int {
	return &v
}
