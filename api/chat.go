package api

import (
	"context"
	"net/http"

	"chatdesk/service"

	"github.com/gin-gonic/gin"
)

// Dispatcher 聊天分发
type Dispatcher interface {
	Dispatch(ctx context.Context, rawBotID, message string) (*service.ChatResult, error)
}

// ChatHandler 聊天接口处理器
type ChatHandler struct {
	dispatcher Dispatcher
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(d Dispatcher) *ChatHandler {
	return &ChatHandler{dispatcher: d}
}

// ChatRequest 聊天请求
type ChatRequest struct {
	Message string `json:"message" example:"Olá, tudo bem?"`
}

// ChatResponse 聊天响应
type ChatResponse struct {
	Response string `json:"response"`
}

// Chat 发送一条消息给机器人
// @Summary 机器人对话
// @Description 把用户消息连同知识库上下文转发给机器人配置的模型服务商，并记录一条调用日志
// @Tags 聊天
// @Accept json
// @Produce json
// @Param botId path int true "机器人 ID"
// @Param request body ChatRequest true "用户消息"
// @Success 200 {object} ChatResponse
// @Failure 400 {object} ErrorResponse "参数错误"
// @Failure 404 {object} ErrorResponse "机器人不存在"
// @Failure 429 {object} ErrorResponse "请求过于频繁"
// @Failure 500 {object} ErrorResponse "服务商调用失败"
// @Router /api/chat/{botId} [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "body must be a JSON object with a string field \"message\"")
		return
	}

	res, err := h.dispatcher.Dispatch(c.Request.Context(), c.Param("botId"), req.Message)
	if err != nil {
		respondError(c, err, "Failed to process chat message")
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Response: res.Response})
}
