package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// MemoryLimiter 进程内固定窗口计数，单实例部署使用
type MemoryLimiter struct {
	ruleHolder
	now func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func NewMemoryLimiter(r Rule) *MemoryLimiter {
	return &MemoryLimiter{
		ruleHolder: ruleHolder{rule: r},
		now:        time.Now,
		windows:    make(map[string]*window),
	}
}

// NewMemorySet 每个类别一个内存限流器
func NewMemorySet(rules map[string]Rule) *Set {
	return NewSet(rules, func(_ string, r Rule) Limiter {
		return NewMemoryLimiter(r)
	})
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	rule := l.Rule()
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= rule.Window {
		w = &window{start: now}
		l.windows[key] = w
	}

	d := Decision{Limit: rule.Max, RetryAfter: rule.Window}
	if w.count >= rule.Max {
		return d, nil
	}
	w.count++
	d.Allowed = true
	d.Remaining = rule.Max - w.count
	return d, nil
}

// Sweep 删除已过期的窗口
func (l *MemoryLimiter) Sweep() {
	rule := l.Rule()
	now := l.now()
	l.mu.Lock()
	for key, w := range l.windows {
		if now.Sub(w.start) >= rule.Window {
			delete(l.windows, key)
		}
	}
	l.mu.Unlock()
}

// RunJanitor 定期清理过期数据，ctx 取消后退出
func (s *Set) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			for _, l := range s.limiters {
				if m, ok := l.(*MemoryLimiter); ok {
					m.Sweep()
				}
			}
			s.mu.RUnlock()
		}
	}
}
