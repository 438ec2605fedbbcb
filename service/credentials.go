package service

import (
	"context"
	"fmt"

	"chatdesk/config"
	"chatdesk/llm"
	"chatdesk/models"
)

// SettingReader 读取系统设置
type SettingReader interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
}

// CredentialResolver 按优先级确定一次调用使用的密钥：
// 机器人设置中的服务商密钥 > 机器人级别密钥 > 系统默认密钥
type CredentialResolver struct {
	settings  SettingReader
	providers config.ProvidersConfig
}

func NewCredentialResolver(settings SettingReader, providers config.ProvidersConfig) *CredentialResolver {
	return &CredentialResolver{settings: settings, providers: providers}
}

// Resolve 没有任何可用密钥时返回空字符串，由适配器报错
func (r *CredentialResolver) Resolve(ctx context.Context, bot *models.Bot, p llm.Provider) (string, error) {
	if bot != nil {
		if key := bot.Settings.Data().APIKeys.For(p); key != "" {
			return key, nil
		}
		if bot.APIKey != "" {
			return bot.APIKey, nil
		}
	}
	return r.Default(ctx, p)
}

// Default 系统默认密钥。google/openrouter 来自配置（环境变量），anthropic 来自系统设置
func (r *CredentialResolver) Default(ctx context.Context, p llm.Provider) (string, error) {
	switch p {
	case llm.ProviderGoogle:
		return r.providers.Google.APIKey, nil
	case llm.ProviderOpenRouter:
		return r.providers.OpenRouter.APIKey, nil
	case llm.ProviderAnthropic:
		value, ok, err := r.settings.GetSetting(ctx, models.SettingAnthropicAPIKey)
		if err != nil {
			return "", fmt.Errorf("load default anthropic key: %w", err)
		}
		if !ok {
			return "", nil
		}
		return value, nil
	}
	return "", nil
}
