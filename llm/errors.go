package llm

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

var (
	// ErrNoAPIKey 既没有机器人密钥也没有系统默认密钥
	ErrNoAPIKey = errors.New("no API key configured")
	// ErrUnsupportedProvider 服务商未注册
	ErrUnsupportedProvider = errors.New("unsupported provider")
	// ErrMalformedResponse 服务商响应无法解析
	ErrMalformedResponse = errors.New("malformed provider response")
)

// ProviderError 服务商调用失败（鉴权、网络、响应格式）。Message 已去除密钥
type ProviderError struct {
	Provider   Provider
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError 包装底层错误，apiKey 出现在错误文本中时会被替换
func NewProviderError(p Provider, err error, apiKey string) *ProviderError {
	return &ProviderError{Provider: p, Message: Redact(err.Error(), apiKey), Err: err}
}

// Redact 把密钥替换为 [REDACTED]
func Redact(msg, secret string) string {
	if secret == "" {
		return msg
	}
	return strings.ReplaceAll(msg, secret, "[REDACTED]")
}

// statusError 非 2xx 响应，尽量取服务商返回的 error.message
func statusError(p Provider, status int, body []byte, apiKey string) *ProviderError {
	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = strings.TrimSpace(string(body))
		msg = truncate(msg, 300)
	}
	if msg == "" {
		msg = "empty response body"
	}
	return &ProviderError{Provider: p, StatusCode: status, Message: Redact(msg, apiKey)}
}

// truncate 截断到不超过 n 字节，不拆开多字节字符
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
