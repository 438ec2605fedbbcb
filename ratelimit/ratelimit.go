// Package ratelimit 固定窗口限流，按路由类别独立计数。被拒绝的请求不占用名额
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"chatdesk/config"
)

// 路由类别
const (
	ClassAPI    = "api"
	ClassChat   = "chat"
	ClassAdmin  = "admin"
	ClassUpload = "upload"
)

// Classes 全部路由类别
var Classes = []string{ClassAPI, ClassChat, ClassAdmin, ClassUpload}

// Rule 每个窗口最多 Max 次
type Rule struct {
	Window time.Duration
	Max    int
}

// Validate 窗口和次数都必须为正
func (r Rule) Validate() error {
	if r.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	if r.Max <= 0 {
		return fmt.Errorf("max must be positive")
	}
	return nil
}

// RetryAfterSeconds 对外的重试提示，等于窗口秒数
func (r Rule) RetryAfterSeconds() int {
	return RetrySeconds(r.Window)
}

// RetrySeconds 向上取整到秒，不足 1 秒按 1 秒
func RetrySeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// Decision 单次判定结果
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter 单个路由类别的限流器
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Rule() Rule
	SetRule(r Rule)
}

// RuleFromConfig 配置中的毫秒窗口转换为 Rule
func RuleFromConfig(r config.RateRule) Rule {
	return Rule{Window: r.Window(), Max: r.Max}
}

// RulesFromConfig 四个类别的规则
func RulesFromConfig(cfg config.RateLimitConfig) map[string]Rule {
	return map[string]Rule{
		ClassAPI:    RuleFromConfig(cfg.API),
		ClassChat:   RuleFromConfig(cfg.Chat),
		ClassAdmin:  RuleFromConfig(cfg.Admin),
		ClassUpload: RuleFromConfig(cfg.Upload),
	}
}

// Set 各类别的限流器集合，支持运行时更新规则
type Set struct {
	mu       sync.RWMutex
	limiters map[string]Limiter
}

// NewSet factory 为每个类别创建限流器
func NewSet(rules map[string]Rule, factory func(class string, r Rule) Limiter) *Set {
	s := &Set{limiters: make(map[string]Limiter, len(rules))}
	for class, r := range rules {
		s.limiters[class] = factory(class, r)
	}
	return s
}

// Get 未知类别返回 nil
func (s *Set) Get(class string) Limiter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limiters[class]
}

// Update 立即生效，已有计数保留
func (s *Set) Update(class string, r Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.RLock()
	l, ok := s.limiters[class]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown rate limit class %q", class)
	}
	l.SetRule(r)
	return nil
}

// Rules 当前规则快照
func (s *Set) Rules() map[string]Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Rule, len(s.limiters))
	for class, l := range s.limiters {
		out[class] = l.Rule()
	}
	return out
}

// ClassNames 按名称排序
func (s *Set) ClassNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.limiters))
	for class := range s.limiters {
		names = append(names, class)
	}
	sort.Strings(names)
	return names
}

// ruleHolder 规则的并发安全读写
type ruleHolder struct {
	mu   sync.RWMutex
	rule Rule
}

func (h *ruleHolder) Rule() Rule {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rule
}

func (h *ruleHolder) SetRule(r Rule) {
	h.mu.Lock()
	h.rule = r
	h.mu.Unlock()
}
