package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatdesk/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useSecret(secret string) {
	InitJWT(&config.Config{JWT: config.JWTConfig{Secret: secret}})
}

func TestGenerateToken(t *testing.T) {
	useSecret("chatdesk-test-secret")

	token, err := GenerateToken(7, "admin", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "chatdesk", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseToken_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		token func() string
	}{
		{"empty", func() string { return "" }},
		{"garbage", func() string { return "not.a.valid.jwt" }},
		{"expired", func() string {
			tok, _ := GenerateToken(1, "admin", -time.Minute)
			return tok
		}},
		{"signed with another secret", func() string {
			useSecret("another-secret")
			defer useSecret("chatdesk-test-secret")
			tok, _ := GenerateToken(1, "admin", time.Hour)
			return tok
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			useSecret("chatdesk-test-secret")
			_, err := ParseToken(tc.token())
			assert.Error(t, err)
		})
	}
}

func TestJWTAuth(t *testing.T) {
	useSecret("chatdesk-test-secret")
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/api/bots", JWTAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, "admin:%d", GetCurrentUserID(c))
	})

	token, err := GenerateToken(3, "admin", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"basic scheme", "Basic YWRtaW46YWRtaW4=", http.StatusUnauthorized},
		{"blank bearer", "Bearer   ", http.StatusUnauthorized},
		{"bad token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/bots", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), `"error":"Unauthorized"`)
			} else {
				assert.Equal(t, "admin:3", w.Body.String())
			}
		})
	}
}

func TestGetCurrentUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, uint(0), GetCurrentUserID(c))

	c.Set("userID", uint(5))
	assert.Equal(t, uint(5), GetCurrentUserID(c))

	c.Set("userID", "5")
	assert.Equal(t, uint(0), GetCurrentUserID(c))
}
