package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Log       LogConfig       `mapstructure:"log"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Chat      ChatConfig      `mapstructure:"chat"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Health    HealthConfig    `mapstructure:"health"`
	Email     EmailConfig     `mapstructure:"email"`
	Alert     AlertConfig     `mapstructure:"alert"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	BaseURL         string        `mapstructure:"base_url"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	Charset      string `mapstructure:"charset"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	LogLevel     string `mapstructure:"log_level"`
}

// RedisConfig Redis 配置，Addr 为空表示不启用
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	ExpireHours int           `mapstructure:"expire_hours"`
	ExpireTime  time.Duration `mapstructure:"-"`
}

// AdminConfig 后台管理员账号
type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ProviderConfig 单个模型服务商配置
type ProviderConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	DefaultModel string `mapstructure:"default_model"`
	Referer      string `mapstructure:"referer"`
	Title        string `mapstructure:"title"`
}

// ProvidersConfig 服务商配置。Anthropic 的默认密钥保存在系统设置中，不读环境变量
type ProvidersConfig struct {
	Anthropic  ProviderConfig `mapstructure:"anthropic"`
	Google     ProviderConfig `mapstructure:"google"`
	OpenRouter ProviderConfig `mapstructure:"openrouter"`
}

// ChatConfig 聊天分发配置
type ChatConfig struct {
	ProviderTimeout  time.Duration `mapstructure:"provider_timeout"`
	PersistTimeout   time.Duration `mapstructure:"persist_timeout"`
	FallbackProvider string        `mapstructure:"fallback_provider"`
	MaxMessageLength int           `mapstructure:"max_message_length"`
}

// RateRule 单个路由类别的限流规则
type RateRule struct {
	WindowMs int64 `mapstructure:"window_ms" json:"windowMs"`
	Max      int   `mapstructure:"max" json:"max"`
}

// Window 窗口时长
func (r RateRule) Window() time.Duration {
	return time.Duration(r.WindowMs) * time.Millisecond
}

// RateLimitConfig 限流配置（四个路由类别独立）
type RateLimitConfig struct {
	API         RateRule `mapstructure:"api"`
	Chat        RateRule `mapstructure:"chat"`
	Admin       RateRule `mapstructure:"admin"`
	Upload      RateRule `mapstructure:"upload"`
	ExemptPaths []string `mapstructure:"exempt_paths"`
}

// HealthConfig 健康指标推送配置
type HealthConfig struct {
	Interval           time.Duration `mapstructure:"interval"`
	ErrorRateThreshold float64       `mapstructure:"error_rate_threshold"`
}

// EmailConfig 邮件配置
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// AlertConfig 错误率告警配置
type AlertConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Recipients []string      `mapstructure:"recipients"`
	Cooldown   time.Duration `mapstructure:"cooldown"`
}

var (
	// GlobalConfig 全局配置实例，仅用于错误信息脱敏判断运行模式
	GlobalConfig *Config
)

// LoadConfig 加载配置
// 优先级: 环境变量 > 外部配置文件 > 嵌入的默认配置
// configPath: 可选的外部配置文件路径
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 首先加载嵌入的默认配置
	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("读取内置配置失败: %w", err)
	}

	// 2. 尝试加载外部配置文件（可选，用于覆盖默认配置）
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			log.Warn().Err(err).Str("path", configPath).Msg("无法读取指定配置文件")
		} else {
			log.Info().Str("path", configPath).Msg("已合并外部配置文件")
		}
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("/etc/chatdesk")
		externalViper.AddConfigPath("$HOME/.chatdesk")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				log.Warn().Err(err).Msg("合并外部配置失败")
			} else {
				log.Info().Str("path", externalViper.ConfigFileUsed()).Msg("已合并外部配置文件")
			}
		}
	}

	// 3. 环境变量覆盖，例如 CHATDESK_PROVIDERS_GOOGLE_API_KEY
	v.SetEnvPrefix("CHATDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	applyDefaults(&cfg)

	GlobalConfig = &cfg
	return &cfg, nil
}

// applyDefaults 补齐缺省值，外部配置可能只写了部分字段
func applyDefaults(cfg *Config) {
	if cfg.JWT.ExpireHours <= 0 {
		cfg.JWT.ExpireHours = 24
	}
	cfg.JWT.ExpireTime = time.Duration(cfg.JWT.ExpireHours) * time.Hour

	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Chat.ProviderTimeout <= 0 {
		cfg.Chat.ProviderTimeout = 60 * time.Second
	}
	if cfg.Chat.PersistTimeout <= 0 {
		cfg.Chat.PersistTimeout = 5 * time.Second
	}
	if cfg.Chat.MaxMessageLength <= 0 {
		cfg.Chat.MaxMessageLength = 2000
	}
	if cfg.Health.Interval <= 0 {
		cfg.Health.Interval = 5 * time.Second
	}
	if cfg.Alert.Cooldown <= 0 {
		cfg.Alert.Cooldown = 30 * time.Minute
	}

	defaults := DefaultRateLimits()
	fill := func(r *RateRule, d RateRule) {
		if r.WindowMs <= 0 {
			r.WindowMs = d.WindowMs
		}
		if r.Max <= 0 {
			r.Max = d.Max
		}
	}
	fill(&cfg.RateLimit.API, defaults.API)
	fill(&cfg.RateLimit.Chat, defaults.Chat)
	fill(&cfg.RateLimit.Admin, defaults.Admin)
	fill(&cfg.RateLimit.Upload, defaults.Upload)
}

// DefaultRateLimits 默认限流：api=100/60s, chat=30/60s, admin=20/60s, upload=10/60s
func DefaultRateLimits() RateLimitConfig {
	return RateLimitConfig{
		API:    RateRule{WindowMs: 60000, Max: 100},
		Chat:   RateRule{WindowMs: 60000, Max: 30},
		Admin:  RateRule{WindowMs: 60000, Max: 20},
		Upload: RateRule{WindowMs: 60000, Max: 10},
	}
}

// MustLoadConfig 加载配置，失败则 panic
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}
	return cfg
}

// PrintConfig 打印当前配置（隐藏敏感信息）
func PrintConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	log.Info().
		Str("port", cfg.Server.Port).
		Str("mode", cfg.Server.Mode).
		Str("database", fmt.Sprintf("%s@%s:%s/%s", cfg.Database.Username, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)).
		Bool("redis", cfg.Redis.Addr != "").
		Bool("google_key", cfg.Providers.Google.APIKey != "").
		Bool("openrouter_key", cfg.Providers.OpenRouter.APIKey != "").
		Str("fallback_provider", cfg.Chat.FallbackProvider).
		Bool("alert", cfg.Alert.Enabled).
		Msg("当前配置")
}
