package models

import (
	"fmt"
	"time"
)

// 系统设置键
const (
	SettingAnthropicAPIKey = "anthropic_api_key"
)

// SystemSetting 键值对系统设置，按 key 写入或更新
type SystemSetting struct {
	Key       string    `json:"key" gorm:"primaryKey;size:100"`
	Value     string    `json:"value" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}

// RateLimitWindowKey 例如 rate_limit.chat.window_ms
func RateLimitWindowKey(class string) string {
	return fmt.Sprintf("rate_limit.%s.window_ms", class)
}

// RateLimitMaxKey 例如 rate_limit.chat.max
func RateLimitMaxKey(class string) string {
	return fmt.Sprintf("rate_limit.%s.max", class)
}

// IsSecretSetting 读取时需要打码的设置
func IsSecretSetting(key string) bool {
	return key == SettingAnthropicAPIKey
}
