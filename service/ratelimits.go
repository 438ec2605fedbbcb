package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"chatdesk/config"
	"chatdesk/models"
	"chatdesk/ratelimit"

	"github.com/rs/zerolog/log"
)

// SettingStore 系统设置读写
type SettingStore interface {
	SettingReader
	SetSetting(ctx context.Context, key, value string) error
}

// RateLimitSettings 限流规则的持久化，保存在系统设置中
type RateLimitSettings struct {
	store    SettingStore
	defaults map[string]ratelimit.Rule
}

func NewRateLimitSettings(st SettingStore, defaults config.RateLimitConfig) *RateLimitSettings {
	return &RateLimitSettings{store: st, defaults: ratelimit.RulesFromConfig(defaults)}
}

// Load 读取四个类别的规则，缺失或非法的值使用配置默认值并写回
func (s *RateLimitSettings) Load(ctx context.Context) (map[string]ratelimit.Rule, error) {
	rules := make(map[string]ratelimit.Rule, len(ratelimit.Classes))
	for _, class := range ratelimit.Classes {
		def := s.defaults[class]

		windowMs, err := s.readInt(ctx, models.RateLimitWindowKey(class), def.Window.Milliseconds())
		if err != nil {
			return nil, err
		}
		maxReq, err := s.readInt(ctx, models.RateLimitMaxKey(class), int64(def.Max))
		if err != nil {
			return nil, err
		}

		rule := ratelimit.Rule{Window: time.Duration(windowMs) * time.Millisecond, Max: int(maxReq)}
		if rule.Validate() != nil {
			log.Warn().Str("component", "ratelimit").Str("class", class).Msg("invalid stored rate limit, using default")
			rule = def
		}
		rules[class] = rule
	}
	return rules, nil
}

// Save 持久化单个类别的规则
func (s *RateLimitSettings) Save(ctx context.Context, class string, r ratelimit.Rule) error {
	if err := r.Validate(); err != nil {
		return &ValidationError{Field: class, Message: err.Error()}
	}
	if err := s.store.SetSetting(ctx, models.RateLimitWindowKey(class), strconv.FormatInt(r.Window.Milliseconds(), 10)); err != nil {
		return err
	}
	return s.store.SetSetting(ctx, models.RateLimitMaxKey(class), strconv.Itoa(r.Max))
}

func (s *RateLimitSettings) readInt(ctx context.Context, key string, def int64) (int64, error) {
	raw, ok, err := s.store.GetSetting(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		if err := s.store.SetSetting(ctx, key, strconv.FormatInt(def, 10)); err != nil {
			return 0, fmt.Errorf("seed %s: %w", key, err)
		}
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Warn().Str("component", "ratelimit").Str("key", key).Msg("non-numeric rate limit setting, using default")
		return def, nil
	}
	return v, nil
}
