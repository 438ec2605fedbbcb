package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatdesk/ratelimit"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateLimitRouter(set *ratelimit.Set, class string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(set, class, DefaultExemptPaths))
	router.POST("/api/chat/:botId", func(c *gin.Context) { c.String(200, "ok") })
	router.GET("/api/system/health", func(c *gin.Context) { c.String(200, "ok") })
	return router
}

func doIPReq(router *gin.Engine, method, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit_RejectsAfterMax(t *testing.T) {
	set := ratelimit.NewMemorySet(map[string]ratelimit.Rule{
		ratelimit.ClassChat: {Window: time.Minute, Max: 3},
	})
	router := newRateLimitRouter(set, ratelimit.ClassChat)

	for i := 0; i < 3; i++ {
		w := doIPReq(router, "POST", "/api/chat/1", "192.168.1.1")
		assert.Equal(t, 200, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}

	w := doIPReq(router, "POST", "/api/chat/1", "192.168.1.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Too many requests", body["error"])
	assert.Equal(t, float64(60), body["retryAfterSeconds"])
	assert.NotEmpty(t, body["details"])

	// 不同 IP 互不影响
	assert.Equal(t, 200, doIPReq(router, "POST", "/api/chat/1", "192.168.1.2").Code)
}

func TestRateLimit_SubSecondWindowRetryAfter(t *testing.T) {
	set := ratelimit.NewMemorySet(map[string]ratelimit.Rule{
		ratelimit.ClassChat: {Window: 500 * time.Millisecond, Max: 1},
	})
	router := newRateLimitRouter(set, ratelimit.ClassChat)

	assert.Equal(t, 200, doIPReq(router, "POST", "/api/chat/1", "10.0.0.1").Code)
	w := doIPReq(router, "POST", "/api/chat/1", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimit_ExemptPath(t *testing.T) {
	set := ratelimit.NewMemorySet(map[string]ratelimit.Rule{
		ratelimit.ClassAPI: {Window: time.Minute, Max: 1},
	})
	router := newRateLimitRouter(set, ratelimit.ClassAPI)

	for i := 0; i < 5; i++ {
		assert.Equal(t, 200, doIPReq(router, "GET", "/api/system/health", "10.0.0.1").Code)
	}
}

func TestRateLimit_UpdateAppliesToRunningMiddleware(t *testing.T) {
	set := ratelimit.NewMemorySet(map[string]ratelimit.Rule{
		ratelimit.ClassChat: {Window: time.Minute, Max: 1},
	})
	router := newRateLimitRouter(set, ratelimit.ClassChat)

	assert.Equal(t, 200, doIPReq(router, "POST", "/api/chat/1", "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doIPReq(router, "POST", "/api/chat/1", "10.0.0.1").Code)

	require.NoError(t, set.Update(ratelimit.ClassChat, ratelimit.Rule{Window: time.Minute, Max: 5}))
	assert.Equal(t, 200, doIPReq(router, "POST", "/api/chat/1", "10.0.0.1").Code)
}

func TestRateLimit_BackendErrorFailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	set := ratelimit.NewRedisSet(rdb, "test", map[string]ratelimit.Rule{
		ratelimit.ClassChat: {Window: time.Minute, Max: 1},
	})
	router := newRateLimitRouter(set, ratelimit.ClassChat)

	assert.Equal(t, 200, doIPReq(router, "POST", "/api/chat/1", "10.0.0.1").Code)
	assert.Equal(t, 200, doIPReq(router, "POST", "/api/chat/1", "10.0.0.1").Code)
}
