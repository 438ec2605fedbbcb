package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeErrorMessage(t *testing.T) {
	fallback := "操作失败"
	testErr := errors.New("internal database error")

	// nil err 返回 fallback
	assert.Equal(t, fallback, SafeErrorMessage(nil, fallback))

	// release 模式返回 fallback，不暴露错误详情
	GlobalConfig = &Config{Server: ServerConfig{Mode: "release"}}
	defer func() { GlobalConfig = nil }()
	assert.Equal(t, fallback, SafeErrorMessage(testErr, fallback))

	// debug 模式返回 err.Error()
	GlobalConfig = &Config{Server: ServerConfig{Mode: "debug"}}
	assert.Equal(t, "internal database error", SafeErrorMessage(testErr, fallback))

	// GlobalConfig 为 nil 时返回 err.Error()（视为开发环境）
	GlobalConfig = nil
	assert.Equal(t, "internal database error", SafeErrorMessage(testErr, fallback))
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, RateRule{WindowMs: 60000, Max: 100}, cfg.RateLimit.API)
	assert.Equal(t, RateRule{WindowMs: 60000, Max: 30}, cfg.RateLimit.Chat)
	assert.Equal(t, RateRule{WindowMs: 60000, Max: 20}, cfg.RateLimit.Admin)
	assert.Equal(t, RateRule{WindowMs: 60000, Max: 10}, cfg.RateLimit.Upload)
	assert.Equal(t, 60*time.Second, cfg.Chat.ProviderTimeout)
	assert.Equal(t, 5*time.Second, cfg.Health.Interval)
	assert.Equal(t, "google", cfg.Chat.FallbackProvider)
	assert.Equal(t, 2000, cfg.Chat.MaxMessageLength)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.Contains(t, cfg.RateLimit.ExemptPaths, "/metrics")
	assert.Same(t, cfg, GlobalConfig)
}

func TestLoadConfig_ExternalFileAndEnv(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "chat:\n  fallback_provider: \"\"\nrate_limit:\n  chat:\n    window_ms: 1000\n    max: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CHATDESK_PROVIDERS_GOOGLE_API_KEY", "env-google-key")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, RateRule{WindowMs: 1000, Max: 3}, cfg.RateLimit.Chat)
	assert.Equal(t, "", cfg.Chat.FallbackProvider)
	assert.Equal(t, "env-google-key", cfg.Providers.Google.APIKey)
	// 未覆盖的类别保持默认
	assert.Equal(t, 100, cfg.RateLimit.API.Max)
}

func TestRateRule_Window(t *testing.T) {
	assert.Equal(t, time.Minute, RateRule{WindowMs: 60000}.Window())
}
