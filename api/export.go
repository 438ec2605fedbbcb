package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"chatdesk/models"

	"github.com/gin-gonic/gin"
)

// ExportStore 按时间范围读取调用记录
type ExportStore interface {
	GetBot(ctx context.Context, id uint) (*models.Bot, error)
	InteractionsBetween(ctx context.Context, botID uint, start, end time.Time) ([]models.ChatInteraction, error)
}

// ExportHandler 导出处理器
type ExportHandler struct {
	store ExportStore
}

// NewExportHandler 创建导出处理器
func NewExportHandler(st ExportStore) *ExportHandler {
	return &ExportHandler{store: st}
}

// ExportCSV 导出调用记录为 CSV
// @Summary 导出调用记录为 CSV
// @Description 根据时间范围导出某个机器人的调用记录
// @Tags 统计
// @Produce text/csv
// @Security BearerAuth
// @Param id path int true "机器人 ID"
// @Param start_time query string true "开始日期 (2024-01-01)"
// @Param end_time query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} ErrorResponse "请求参数错误"
// @Failure 404 {object} ErrorResponse
// @Router /api/bots/{id}/interactions/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	botID, list, ok := h.load(c)
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM，Excel 打开时不乱码
	buf.WriteString("\xEF\xBB\xBF")
	writer := csv.NewWriter(buf)

	headers := []string{"ID", "Created At", "User Message", "Bot Response", "Model", "Provider", "Tokens", "Response Ms", "Success", "Error"}
	if err := writer.Write(headers); err != nil {
		InternalError(c, "Failed to build CSV", err)
		return
	}
	for _, in := range list {
		tokens, errMsg := "", ""
		if in.TokensUsed != nil {
			tokens = strconv.Itoa(*in.TokensUsed)
		}
		if in.ErrorMessage != nil {
			errMsg = *in.ErrorMessage
		}
		row := []string{
			strconv.FormatUint(uint64(in.ID), 10),
			in.CreatedAt.Format("2006-01-02 15:04:05"),
			in.UserMessage,
			in.BotResponse,
			in.Model,
			in.Provider,
			tokens,
			strconv.FormatInt(in.ResponseTimeMs, 10),
			strconv.FormatBool(in.Success),
			errMsg,
		}
		if err := writer.Write(row); err != nil {
			InternalError(c, "Failed to build CSV", err)
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "Failed to build CSV", err)
		return
	}

	filename := fmt.Sprintf("interactions_bot%d_%s_%s.csv", botID, c.Query("start_time"), c.Query("end_time"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportJSONResponse JSON 导出结果
type ExportJSONResponse struct {
	BotID        uint                     `json:"bot_id"`
	StartTime    string                   `json:"start_time"`
	EndTime      string                   `json:"end_time"`
	TotalCount   int                      `json:"total_count"`
	SuccessCount int                      `json:"success_count"`
	Interactions []models.ChatInteraction `json:"interactions"`
}

// ExportJSON 导出调用记录为 JSON
// @Summary 导出调用记录为 JSON
// @Description 根据时间范围导出某个机器人的调用记录
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param id path int true "机器人 ID"
// @Param start_time query string true "开始日期 (2024-01-01)"
// @Param end_time query string true "结束日期 (2024-12-31)"
// @Success 200 {object} DataResponse{data=ExportJSONResponse}
// @Failure 400 {object} ErrorResponse "请求参数错误"
// @Failure 404 {object} ErrorResponse
// @Router /api/bots/{id}/interactions/export/json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	botID, list, ok := h.load(c)
	if !ok {
		return
	}
	if list == nil {
		list = []models.ChatInteraction{}
	}

	success := 0
	for _, in := range list {
		if in.Success {
			success++
		}
	}
	Success(c, ExportJSONResponse{
		BotID:        botID,
		StartTime:    c.Query("start_time"),
		EndTime:      c.Query("end_time"),
		TotalCount:   len(list),
		SuccessCount: success,
		Interactions: list,
	})
}

// load 校验机器人和日期范围并读取记录，失败时已写入响应
func (h *ExportHandler) load(c *gin.Context) (uint, []models.ChatInteraction, bool) {
	botID, err := parseID(c.Param("id"), "id")
	if err != nil {
		respondError(c, err, "")
		return 0, nil, false
	}

	start, end, msg := parseDateRange(c.Query("start_time"), c.Query("end_time"))
	if msg != "" {
		BadRequest(c, msg)
		return 0, nil, false
	}

	if _, err := h.store.GetBot(c.Request.Context(), botID); err != nil {
		respondError(c, err, "Failed to load bot")
		return 0, nil, false
	}
	list, err := h.store.InteractionsBetween(c.Request.Context(), botID, start, end)
	if err != nil {
		InternalError(c, "Failed to load interactions", err)
		return 0, nil, false
	}
	return botID, list, true
}

// parseDateRange 结束日期包含当天
func parseDateRange(startStr, endStr string) (time.Time, time.Time, string) {
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, "start_time and end_time are required"
	}
	start, err := time.ParseInLocation("2006-01-02", startStr, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, "start_time must be formatted as 2006-01-02"
	}
	end, err := time.ParseInLocation("2006-01-02", endStr, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, "end_time must be formatted as 2006-01-02"
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, "end_time must not be before start_time"
	}
	return start, end.Add(24*time.Hour - time.Second), ""
}
