package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicClient_Chat(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Hel"},{"type":"tool_use","id":"x"},{"type":"text","text":"lo"}],"usage":{"input_tokens":7,"output_tokens":3}}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{BaseURL: srv.URL})
	reply, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{
		Temperature:     0.4,
		MaxOutputTokens: 256,
		APIKey:          "sk-ant",
	})
	require.NoError(t, err)

	assert.Equal(t, RoleAssistant, reply.Role)
	assert.Equal(t, "Hello", reply.Content)
	require.NotNil(t, reply.TokensUsed)
	assert.Equal(t, 10, *reply.TokensUsed)
	assert.False(t, reply.Timestamp.IsZero())

	assert.Equal(t, DefaultAnthropicModel, captured["model"])
	assert.Equal(t, float64(256), captured["max_tokens"])
	assert.Equal(t, 0.4, captured["temperature"])
}

func TestAnthropicClient_StatusErrorRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"rate limited for key sk-secret"}}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{BaseURL: srv.URL})
	_, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{APIKey: "sk-secret"})
	require.Error(t, err)

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ProviderAnthropic, pe.Provider)
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
	assert.Contains(t, err.Error(), "rate limited")
	assert.NotContains(t, err.Error(), "sk-secret")
}

func TestAnthropicClient_NoKey(t *testing.T) {
	c := NewAnthropicClient(AnthropicConfig{BaseURL: "http://127.0.0.1:0"})
	_, err := c.Chat(context.Background(), nil, Options{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestAnthropicClient_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{BaseURL: srv.URL})
	_, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{APIKey: "k"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
