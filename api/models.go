package api

import (
	"chatdesk/llm"

	"github.com/gin-gonic/gin"
)

// HeaderAPIKey 调用方自带的服务商密钥
const HeaderAPIKey = "X-API-Key"

// ListerSource 模型目录来源（llm.Registry）
type ListerSource interface {
	Lister(p llm.Provider) (llm.ModelLister, bool)
}

// ModelsHandler 模型目录处理器
type ModelsHandler struct {
	listers ListerSource
}

// NewModelsHandler 创建模型目录处理器
func NewModelsHandler(listers ListerSource) *ModelsHandler {
	return &ModelsHandler{listers: listers}
}

// Gemini Google 模型列表
// @Summary Gemini 模型列表
// @Description 实时拉取失败时返回内置列表
// @Tags 模型
// @Produce json
// @Param X-API-Key header string false "Google API Key"
// @Success 200 {object} DataResponse{data=[]llm.ModelInfo}
// @Router /api/models/gemini [get]
func (h *ModelsHandler) Gemini(c *gin.Context) {
	h.list(c, llm.ProviderGoogle, llm.GeminiFallbackModels)
}

// OpenRouter OpenRouter 模型列表
// @Summary OpenRouter 模型列表
// @Description 实时拉取失败时返回内置列表
// @Tags 模型
// @Produce json
// @Param X-API-Key header string false "OpenRouter API Key"
// @Success 200 {object} DataResponse{data=[]llm.ModelInfo}
// @Router /api/models/openrouter [get]
func (h *ModelsHandler) OpenRouter(c *gin.Context) {
	h.list(c, llm.ProviderOpenRouter, llm.OpenRouterFallbackModels)
}

func (h *ModelsHandler) list(c *gin.Context, p llm.Provider, fallback func() []llm.ModelInfo) {
	lister, ok := h.listers.Lister(p)
	if !ok {
		Success(c, fallback())
		return
	}
	Success(c, lister.ListModels(c.Request.Context(), c.GetHeader(HeaderAPIKey)))
}
