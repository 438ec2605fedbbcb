package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatdesk/config"
	"chatdesk/llm"
	"chatdesk/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	result *service.ChatResult
	err    error
	botID  string
	msg    string
}

func (f *fakeDispatcher) Dispatch(_ context.Context, rawBotID, message string) (*service.ChatResult, error) {
	f.botID = rawBotID
	f.msg = message
	return f.result, f.err
}

func doChat(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newChatRouter(d Dispatcher) *gin.Engine {
	router := gin.New()
	router.POST("/api/chat/:botId", NewChatHandler(d).Chat)
	return router
}

func TestChatHandler_ErrorMapping(t *testing.T) {
	defer func() { config.GlobalConfig = nil }()
	config.GlobalConfig = &config.Config{Server: config.ServerConfig{Mode: "release"}}

	tests := []struct {
		name    string
		err     error
		code    int
		errText string
		details string
	}{
		{"validation", &service.ValidationError{Field: "message", Message: "is required"}, 400, "Invalid request", "message: is required"},
		{"not found", &service.NotFoundError{Resource: "bot", ID: 9}, 404, "Bot not found", ""},
		{"provider", &llm.ProviderError{Provider: llm.ProviderAnthropic, StatusCode: 429, Message: "rate limited"}, 500, "Failed to get response from AI provider", "anthropic: status 429: rate limited"},
		{"internal", errors.New("dial tcp 10.0.0.5:3306: connection refused"), 500, "Failed to process chat message", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doChat(newChatRouter(&fakeDispatcher{err: tt.err}), "/api/chat/9", `{"message":"Hi"}`)
			assert.Equal(t, tt.code, w.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.errText, body.Error)
			assert.Equal(t, tt.details, body.Details)
		})
	}
}

func TestChatHandler_InvalidBody(t *testing.T) {
	d := &fakeDispatcher{}
	router := newChatRouter(d)

	assert.Equal(t, 400, doChat(router, "/api/chat/1", `{"message":42}`).Code)
	assert.Equal(t, 400, doChat(router, "/api/chat/1", `not json`).Code)
	assert.Equal(t, "", d.botID)
}

func TestChatHandler_Success(t *testing.T) {
	d := &fakeDispatcher{result: &service.ChatResult{Response: "Olá!"}}
	w := doChat(newChatRouter(d), "/api/chat/7", `{"message":"Oi"}`)

	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"response":"Olá!"}`, w.Body.String())
	assert.Equal(t, "7", d.botID)
	assert.Equal(t, "Oi", d.msg)
}

// 端到端：gorm+sqlmock 存储、真实分发器、httptest 模拟 Anthropic
func newAnthropicChatRouter(t *testing.T, vendor http.HandlerFunc) (*gin.Engine, sqlmock.Sqlmock, func()) {
	st, mock, cleanup := setupMockStore(t)
	srv := httptest.NewServer(vendor)

	reg := llm.NewRegistry(llm.ProviderGoogle)
	reg.Register(llm.ProviderAnthropic, llm.NewAnthropicClient(llm.AnthropicConfig{BaseURL: srv.URL}))
	keys := service.NewCredentialResolver(st, config.ProvidersConfig{})
	d := service.NewChatDispatcher(st, reg, keys, config.ChatConfig{})

	return newChatRouter(d), mock, func() {
		srv.Close()
		cleanup()
	}
}

func expectAnthropicLookups(mock sqlmock.Sqlmock) {
	expectGetBot(mock, 1, "anthropic", `{"system_prompt":"Seja educado","model":"claude-3-haiku","temperature":0.7,"max_tokens":300}`)
	mock.ExpectQuery("SELECT .* FROM `knowledge_entries` WHERE bot_id = \\?").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "bot_id", "content", "file_name", "source_url", "uploaded_at"}))
	mock.ExpectQuery("SELECT .* FROM `system_settings` WHERE `key` = \\?").
		WithArgs("anthropic_api_key").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}).AddRow("anthropic_api_key", "sk-ant-system", time.Now()))
}

func TestChat_AnthropicScenario_Success(t *testing.T) {
	var gotKey, gotBody string
	router, mock, cleanup := newAnthropicChatRouter(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		var payload map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		msgs := payload["messages"].([]interface{})
		gotBody = msgs[0].(map[string]interface{})["content"].(string)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Hello"}],"usage":{"input_tokens":5,"output_tokens":1}}`))
	})
	defer cleanup()

	expectAnthropicLookups(mock)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `chat_interactions`").
		WithArgs(1, "Hi", "Hello", "claude-3-haiku", "anthropic", 6, sqlmock.AnyArg(), true, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := doChat(router, "/api/chat/1", `{"message":"Hi"}`)
	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"response":"Hello"}`, w.Body.String())
	assert.Equal(t, "sk-ant-system", gotKey)
	assert.Equal(t, "Sistema: Seja educado\n\nUsuário: Hi", gotBody)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChat_AnthropicScenario_ProviderFailure(t *testing.T) {
	router, mock, cleanup := newAnthropicChatRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"rate limited"}}`))
	})
	defer cleanup()

	expectAnthropicLookups(mock)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `chat_interactions`").
		WithArgs(1, "Hi", "", "claude-3-haiku", "anthropic", nil, sqlmock.AnyArg(), false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := doChat(router, "/api/chat/1", `{"message":"Hi"}`)
	assert.Equal(t, 500, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Details, "rate limited")
	assert.NotContains(t, w.Body.String(), "sk-ant-system")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChat_UnknownBot(t *testing.T) {
	router, mock, cleanup := newAnthropicChatRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("vendor must not be called")
	})
	defer cleanup()

	expectBotMissing(mock, 99)
	w := doChat(router, "/api/chat/99", `{"message":"Hi"}`)
	assert.Equal(t, 404, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
