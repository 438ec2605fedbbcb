package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"chatdesk/models"
	"chatdesk/service"

	"github.com/gin-gonic/gin"
)

// InteractionStore 调用记录分页
type InteractionStore interface {
	GetBot(ctx context.Context, id uint) (*models.Bot, error)
	PageInteractions(ctx context.Context, botID uint, page, pageSize int) ([]models.ChatInteraction, int64, error)
}

// StatsSource 统计与导出（service.Analytics）
type StatsSource interface {
	BotStats(ctx context.Context, botID uint) (*service.BotStats, error)
	ExportXLSX(ctx context.Context, botID uint) ([]byte, error)
}

// AnalyticsHandler 使用统计处理器
type AnalyticsHandler struct {
	store     InteractionStore
	analytics StatsSource
}

// NewAnalyticsHandler 创建使用统计处理器
func NewAnalyticsHandler(st InteractionStore, analytics StatsSource) *AnalyticsHandler {
	return &AnalyticsHandler{store: st, analytics: analytics}
}

// Stats 机器人使用统计
// @Summary 机器人使用统计
// @Description 总调用数、成功数、平均耗时、token 总量、按天统计
// @Tags 统计
// @Produce json
// @Param id path int true "机器人 ID"
// @Success 200 {object} service.BotStats
// @Failure 404 {object} ErrorResponse
// @Router /api/bots/{id}/analytics [get]
func (h *AnalyticsHandler) Stats(c *gin.Context) {
	botID, ok := h.loadBotID(c)
	if !ok {
		return
	}
	stats, err := h.analytics.BotStats(c.Request.Context(), botID)
	if err != nil {
		InternalError(c, "Failed to compute analytics", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Interactions 调用记录分页
// @Summary 调用记录
// @Tags 统计
// @Produce json
// @Param id path int true "机器人 ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} PageResponse{list=[]models.ChatInteraction}
// @Failure 404 {object} ErrorResponse
// @Router /api/bots/{id}/interactions [get]
func (h *AnalyticsHandler) Interactions(c *gin.Context) {
	botID, ok := h.loadBotID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	list, total, err := h.store.PageInteractions(c.Request.Context(), botID, page, pageSize)
	if err != nil {
		InternalError(c, "Failed to list interactions", err)
		return
	}
	if list == nil {
		list = []models.ChatInteraction{}
	}
	c.JSON(http.StatusOK, PageResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		List:     list,
	})
}

// Export 导出调用记录为 Excel
// @Summary 导出调用记录
// @Tags 统计
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "机器人 ID"
// @Success 200 {file} file "Excel 文件"
// @Failure 404 {object} ErrorResponse
// @Router /api/bots/{id}/interactions/export [get]
func (h *AnalyticsHandler) Export(c *gin.Context) {
	botID, ok := h.loadBotID(c)
	if !ok {
		return
	}
	data, err := h.analytics.ExportXLSX(c.Request.Context(), botID)
	if err != nil {
		InternalError(c, "Failed to export interactions", err)
		return
	}

	filename := fmt.Sprintf("interactions_bot%d_%s.xlsx", botID, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *AnalyticsHandler) loadBotID(c *gin.Context) (uint, bool) {
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		respondError(c, err, "")
		return 0, false
	}
	if _, err := h.store.GetBot(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to load bot")
		return 0, false
	}
	return id, true
}
