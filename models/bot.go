package models

import (
	"errors"
	"strings"
	"time"

	"chatdesk/llm"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProviderKeys 机器人级别的服务商密钥，为空时使用系统默认密钥
type ProviderKeys struct {
	Anthropic  string `json:"anthropic,omitempty"`
	Google     string `json:"google,omitempty"`
	OpenRouter string `json:"openrouter,omitempty"`
}

// For 返回指定服务商的密钥
func (k ProviderKeys) For(p llm.Provider) string {
	switch p {
	case llm.ProviderAnthropic:
		return k.Anthropic
	case llm.ProviderGoogle:
		return k.Google
	case llm.ProviderOpenRouter:
		return k.OpenRouter
	}
	return ""
}

// BotSettings 机器人对话设置
type BotSettings struct {
	InitialMessage string       `json:"initial_message"`
	SystemPrompt   string       `json:"system_prompt"`
	Provider       string       `json:"provider"`
	Model          string       `json:"model"`
	Temperature    float64      `json:"temperature"`
	MaxTokens      int          `json:"max_tokens"`
	APIKeys        ProviderKeys `json:"api_keys"`
}

// Validate 校验采样参数
func (s BotSettings) Validate() error {
	if s.Temperature < 0 || s.Temperature > 1 {
		return errors.New("temperature must be between 0 and 1")
	}
	if s.MaxTokens < 0 {
		return errors.New("max_tokens must not be negative")
	}
	if strings.TrimSpace(s.Model) == "" {
		return errors.New("model is required")
	}
	return nil
}

// ResolveProvider 显式配置优先，否则根据模型 ID 判断
func (s BotSettings) ResolveProvider() llm.Provider {
	if p, ok := llm.ParseProvider(s.Provider); ok {
		return p
	}
	return llm.Classify(s.Model)
}

// BotTheme 聊天窗口主题
type BotTheme struct {
	PrimaryColor    string `json:"primary_color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
	FontFamily      string `json:"font_family,omitempty"`
	AvatarURL       string `json:"avatar_url,omitempty"`
}

// EmbedConfig 嵌入挂件配置
type EmbedConfig struct {
	Position       string   `json:"position,omitempty"` // bottom-right | bottom-left
	LauncherText   string   `json:"launcher_text,omitempty"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
}

// Bot 虚拟助手配置
type Bot struct {
	ID          uint                            `json:"id" gorm:"primaryKey"`
	Name        string                          `json:"name" gorm:"size:100;not null"`
	Description string                          `json:"description" gorm:"size:500"`
	Provider    llm.Provider                    `json:"provider" gorm:"size:20;index"` // 保存时根据设置确定
	Settings    datatypes.JSONType[BotSettings] `json:"settings"`
	Theme       datatypes.JSONType[BotTheme]    `json:"theme"`
	Embed       datatypes.JSONType[EmbedConfig] `json:"embed"`
	APIKey      string                          `json:"-" gorm:"size:255"` // 机器人级别密钥覆盖（所有服务商）
	CreatedAt   time.Time                       `json:"created_at"`
	UpdatedAt   time.Time                       `json:"updated_at"`
}

// TableName 设置表名
func (Bot) TableName() string {
	return "bots"
}

// BeforeSave 保存时确定服务商，请求路径上不再解析模型字符串
func (b *Bot) BeforeSave(tx *gorm.DB) error {
	b.Provider = b.Settings.Data().ResolveProvider()
	return nil
}
