package api

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"chatdesk/models"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// BotStore 机器人存储
type BotStore interface {
	ListBots(ctx context.Context) ([]models.Bot, error)
	GetBot(ctx context.Context, id uint) (*models.Bot, error)
	CreateBot(ctx context.Context, bot *models.Bot) error
	SaveBot(ctx context.Context, bot *models.Bot) error
	DeleteBot(ctx context.Context, id uint) error
}

// BotHandler 机器人管理处理器
type BotHandler struct {
	store   BotStore
	baseURL string
}

// NewBotHandler 创建机器人管理处理器，baseURL 用于生成嵌入代码
func NewBotHandler(st BotStore, baseURL string) *BotHandler {
	return &BotHandler{store: st, baseURL: strings.TrimRight(baseURL, "/")}
}

// CreateBotRequest 创建机器人请求
type CreateBotRequest struct {
	Name        string             `json:"name" binding:"required,min=1,max=100" example:"Suporte"`
	Description string             `json:"description" binding:"max=500"`
	Settings    models.BotSettings `json:"settings"`
	Theme       models.BotTheme    `json:"theme"`
	Embed       models.EmbedConfig `json:"embed"`
	APIKey      string             `json:"api_key"`
}

// UpdateBotRequest 部分更新，未出现的字段保持不变
type UpdateBotRequest struct {
	Name        *string             `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string             `json:"description" binding:"omitempty,max=500"`
	Settings    json.RawMessage     `json:"settings" swaggertype:"object"`
	Theme       *models.BotTheme    `json:"theme"`
	Embed       *models.EmbedConfig `json:"embed"`
	APIKey      *string             `json:"api_key"`
}

// BotView 返回给前端的机器人，密钥打码
type BotView struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Provider    string             `json:"provider"`
	Settings    models.BotSettings `json:"settings"`
	Theme       models.BotTheme    `json:"theme"`
	Embed       models.EmbedConfig `json:"embed"`
	APIKey      string             `json:"api_key,omitempty"`
	CreatedAt   string             `json:"created_at"`
	UpdatedAt   string             `json:"updated_at"`
}

// EmbedResponse 嵌入代码
type EmbedResponse struct {
	BotID   uint   `json:"bot_id"`
	Snippet string `json:"snippet"`
}

const maskMarker = "****"

// maskSecret 只保留末四位
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskMarker
	}
	return maskMarker + s[len(s)-4:]
}

// keepIfMasked 前端回传打码值时保留原密钥
func keepIfMasked(incoming, existing string) string {
	if strings.Contains(incoming, maskMarker) {
		return existing
	}
	return incoming
}

func newBotView(b *models.Bot) BotView {
	settings := b.Settings.Data()
	settings.APIKeys = models.ProviderKeys{
		Anthropic:  maskSecret(settings.APIKeys.Anthropic),
		Google:     maskSecret(settings.APIKeys.Google),
		OpenRouter: maskSecret(settings.APIKeys.OpenRouter),
	}
	return BotView{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Provider:    string(b.Provider),
		Settings:    settings,
		Theme:       b.Theme.Data(),
		Embed:       b.Embed.Data(),
		APIKey:      maskSecret(b.APIKey),
		CreatedAt:   b.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:   b.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// List 机器人列表
// @Summary 机器人列表
// @Tags 机器人
// @Produce json
// @Success 200 {object} DataResponse{data=[]BotView}
// @Router /api/bots [get]
func (h *BotHandler) List(c *gin.Context) {
	bots, err := h.store.ListBots(c.Request.Context())
	if err != nil {
		InternalError(c, "Failed to list bots", err)
		return
	}
	views := make([]BotView, 0, len(bots))
	for i := range bots {
		views = append(views, newBotView(&bots[i]))
	}
	Success(c, views)
}

// Get 机器人详情
// @Summary 机器人详情
// @Tags 机器人
// @Produce json
// @Param id path int true "机器人 ID"
// @Success 200 {object} BotView
// @Failure 404 {object} ErrorResponse
// @Router /api/bots/{id} [get]
func (h *BotHandler) Get(c *gin.Context) {
	bot, ok := h.loadBot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newBotView(bot))
}

// Create 创建机器人
// @Summary 创建机器人
// @Description 保存时根据 settings.provider 或模型 ID 确定服务商
// @Tags 机器人
// @Accept json
// @Produce json
// @Param request body CreateBotRequest true "机器人配置"
// @Success 201 {object} BotView
// @Failure 400 {object} ErrorResponse
// @Router /api/bots [post]
func (h *BotHandler) Create(c *gin.Context) {
	var req CreateBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid bot payload"))
		return
	}
	if err := req.Settings.Validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}

	bot := &models.Bot{
		Name:        req.Name,
		Description: req.Description,
		Settings:    datatypes.NewJSONType(req.Settings),
		Theme:       datatypes.NewJSONType(req.Theme),
		Embed:       datatypes.NewJSONType(req.Embed),
		APIKey:      req.APIKey,
	}
	if err := h.store.CreateBot(c.Request.Context(), bot); err != nil {
		InternalError(c, "Failed to create bot", err)
		return
	}
	c.JSON(http.StatusCreated, newBotView(bot))
}

// Update 部分更新机器人
// @Summary 更新机器人
// @Description 只更新请求中出现的字段，settings 按字段合并
// @Tags 机器人
// @Accept json
// @Produce json
// @Param id path int true "机器人 ID"
// @Param request body UpdateBotRequest true "需要更新的字段"
// @Success 200 {object} BotView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/bots/{id} [patch]
func (h *BotHandler) Update(c *gin.Context) {
	bot, ok := h.loadBot(c)
	if !ok {
		return
	}

	var req UpdateBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid bot payload"))
		return
	}

	if req.Name != nil {
		bot.Name = *req.Name
	}
	if req.Description != nil {
		bot.Description = *req.Description
	}
	if len(req.Settings) > 0 {
		current := bot.Settings.Data()
		merged := current
		if err := json.Unmarshal(req.Settings, &merged); err != nil {
			BadRequest(c, "settings must be an object")
			return
		}
		merged.APIKeys.Anthropic = keepIfMasked(merged.APIKeys.Anthropic, current.APIKeys.Anthropic)
		merged.APIKeys.Google = keepIfMasked(merged.APIKeys.Google, current.APIKeys.Google)
		merged.APIKeys.OpenRouter = keepIfMasked(merged.APIKeys.OpenRouter, current.APIKeys.OpenRouter)
		if err := merged.Validate(); err != nil {
			BadRequest(c, err.Error())
			return
		}
		bot.Settings = datatypes.NewJSONType(merged)
	}
	if req.Theme != nil {
		bot.Theme = datatypes.NewJSONType(*req.Theme)
	}
	if req.Embed != nil {
		bot.Embed = datatypes.NewJSONType(*req.Embed)
	}
	if req.APIKey != nil {
		bot.APIKey = keepIfMasked(*req.APIKey, bot.APIKey)
	}

	if err := h.store.SaveBot(c.Request.Context(), bot); err != nil {
		InternalError(c, "Failed to update bot", err)
		return
	}
	c.JSON(http.StatusOK, newBotView(bot))
}

// Delete 删除机器人及其知识库，调用记录保留
// @Summary 删除机器人
// @Tags 机器人
// @Param id path int true "机器人 ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /api/bots/{id} [delete]
func (h *BotHandler) Delete(c *gin.Context) {
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	if err := h.store.DeleteBot(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete bot")
		return
	}
	c.Status(http.StatusNoContent)
}

// Embed 嵌入代码
// @Summary 嵌入代码
// @Description 生成放到网站页面中的挂件脚本
// @Tags 机器人
// @Produce json
// @Param id path int true "机器人 ID"
// @Success 200 {object} EmbedResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/bots/{id}/embed [get]
func (h *BotHandler) Embed(c *gin.Context) {
	bot, ok := h.loadBot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, EmbedResponse{BotID: bot.ID, Snippet: EmbedSnippet(h.baseURL, bot)})
}

// EmbedSnippet 挂件脚本标签
func EmbedSnippet(baseURL string, bot *models.Bot) string {
	embed := bot.Embed.Data()
	position := embed.Position
	if position == "" {
		position = "bottom-right"
	}
	return fmt.Sprintf(`<script src="%s/widget.js" data-bot-id="%d" data-api="%s/api/chat/%d" data-position="%s" data-launcher-text="%s" async></script>`,
		baseURL, bot.ID, baseURL, bot.ID, html.EscapeString(position), html.EscapeString(embed.LauncherText))
}

// loadBot 解析路径 ID 并加载，失败时已写入响应
func (h *BotHandler) loadBot(c *gin.Context) (*models.Bot, bool) {
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		respondError(c, err, "")
		return nil, false
	}
	bot, err := h.store.GetBot(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load bot")
		return nil, false
	}
	return bot, true
}
