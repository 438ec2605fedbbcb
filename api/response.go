package api

import (
	"errors"
	"net/http"

	"chatdesk/llm"
	"chatdesk/service"
	"chatdesk/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ErrorResponse 统一错误响应
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// DataResponse 列表类响应
type DataResponse struct {
	Data interface{} `json:"data"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	List     interface{} `json:"list"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// Error 错误响应
func Error(c *gin.Context, code int, message, details string) {
	c.JSON(code, ErrorResponse{Error: message, Details: details})
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, details string) {
	Error(c, http.StatusBadRequest, "Invalid request", details)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, "")
}

// InternalError 500 错误响应，release 模式下不返回内部错误详情
func InternalError(c *gin.Context, message string, err error) {
	log.Error().Str("component", "api").Str("path", c.Request.URL.Path).Err(err).Msg(message)
	Error(c, http.StatusInternalServerError, message, SafeErrorMessage(err, ""))
}

// respondError 按错误类型映射状态码
func respondError(c *gin.Context, err error, fallback string) {
	var (
		verr *service.ValidationError
		nerr *service.NotFoundError
		perr *llm.ProviderError
	)
	switch {
	case errors.As(err, &verr):
		BadRequest(c, verr.Error())
	case errors.As(err, &nerr):
		NotFound(c, "Bot not found")
	case errors.Is(err, store.ErrNotFound):
		NotFound(c, "Not found")
	case errors.As(err, &perr):
		// 服务商错误文本已去除密钥，直接返回给调用方
		Error(c, http.StatusInternalServerError, "Failed to get response from AI provider", perr.Error())
	default:
		InternalError(c, fallback, err)
	}
}
