package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"chatdesk/metrics"
	"chatdesk/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// DefaultExemptPaths 健康检查和指标路径不限流
var DefaultExemptPaths = []string{"/health", "/metrics", "/api/system/health", "/ws"}

// RateLimit 按客户端 IP 的固定窗口限流，class 决定使用哪组规则。
// 超过上限立即返回 429，限流后端出错时放行
func RateLimit(limiters *ratelimit.Set, class string, exemptPaths []string) gin.HandlerFunc {
	exempt := make(map[string]bool, len(exemptPaths))
	for _, p := range exemptPaths {
		exempt[p] = true
	}

	return func(c *gin.Context) {
		if exempt[c.Request.URL.Path] {
			c.Next()
			return
		}
		limiter := limiters.Get(class)
		if limiter == nil {
			c.Next()
			return
		}

		d, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn().Str("component", "ratelimit").Str("class", class).Err(err).Msg("rate limit backend error, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			retryAfter := ratelimit.RetrySeconds(d.RetryAfter)
			metrics.Global().RateLimited.WithLabelValues(class).Inc()
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":             "Too many requests",
				"details":           fmt.Sprintf("Rate limit exceeded, try again in %d seconds", retryAfter),
				"retryAfterSeconds": retryAfter,
			})
			return
		}
		c.Next()
	}
}
