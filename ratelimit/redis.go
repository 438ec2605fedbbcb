package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// 超过上限时只读不写，被拒绝的请求不计数
var fixedWindowScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= tonumber(ARGV[1]) then
  return {0, current}
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return {1, current}
`)

// RedisLimiter 基于 Redis 的固定窗口计数，多实例共享
type RedisLimiter struct {
	ruleHolder
	redis  *redis.Client
	prefix string
}

func NewRedisLimiter(rdb *redis.Client, prefix string, r Rule) *RedisLimiter {
	return &RedisLimiter{ruleHolder: ruleHolder{rule: r}, redis: rdb, prefix: prefix}
}

// NewRedisSet 每个类别一个 Redis 限流器，key 为 prefix:class:client
func NewRedisSet(rdb *redis.Client, prefix string, rules map[string]Rule) *Set {
	if prefix == "" {
		prefix = "chatdesk:ratelimit"
	}
	return NewSet(rules, func(class string, r Rule) Limiter {
		return NewRedisLimiter(rdb, prefix+":"+class, r)
	})
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	rule := l.Rule()
	d := Decision{Limit: rule.Max, RetryAfter: rule.Window}

	res, err := fixedWindowScript.Run(ctx, l.redis, []string{l.prefix + ":" + key}, rule.Max, rule.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return d, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 2 {
		return d, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	d.Allowed = res[0] == 1
	if d.Allowed {
		d.Remaining = rule.Max - int(res[1])
	}
	return d, nil
}

var (
	_ Limiter = (*RedisLimiter)(nil)
	_ Limiter = (*MemoryLimiter)(nil)
)

