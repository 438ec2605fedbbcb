package service

import (
	"context"
	"fmt"
	"sort"

	"chatdesk/models"

	"github.com/xuri/excelize/v2"
)

// InteractionReader 聊天记录读取
type InteractionReader interface {
	ListInteractions(ctx context.Context, botID uint) ([]models.ChatInteraction, error)
}

// DailyCount 每日调用次数
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// BotStats 单个机器人的使用统计
type BotStats struct {
	TotalInteractions      int          `json:"total_interactions"`
	SuccessfulInteractions int          `json:"successful_interactions"`
	AvgResponseTimeMs      float64      `json:"avg_response_time_ms"`
	TotalTokens            int64        `json:"total_tokens"`
	DailyUsage             []DailyCount `json:"daily_usage"`
}

// Analytics 聊天记录统计与导出
type Analytics struct {
	store InteractionReader
}

func NewAnalytics(st InteractionReader) *Analytics {
	return &Analytics{store: st}
}

// BotStats 读取机器人的全部记录并汇总
func (a *Analytics) BotStats(ctx context.Context, botID uint) (*BotStats, error) {
	list, err := a.store.ListInteractions(ctx, botID)
	if err != nil {
		return nil, err
	}
	stats := Summarize(list)
	return &stats, nil
}

// Summarize 汇总记录。没有记录时平均耗时为 0，tokens 为空按 0 计
func Summarize(list []models.ChatInteraction) BotStats {
	stats := BotStats{DailyUsage: []DailyCount{}}
	if len(list) == 0 {
		return stats
	}

	var totalMs int64
	daily := make(map[string]int)
	for _, in := range list {
		stats.TotalInteractions++
		if in.Success {
			stats.SuccessfulInteractions++
		}
		totalMs += in.ResponseTimeMs
		if in.TokensUsed != nil {
			stats.TotalTokens += int64(*in.TokensUsed)
		}
		daily[in.CreatedAt.Format("2006-01-02")]++
	}
	stats.AvgResponseTimeMs = float64(totalMs) / float64(len(list))

	days := make([]string, 0, len(daily))
	for d := range daily {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		stats.DailyUsage = append(stats.DailyUsage, DailyCount{Date: d, Count: daily[d]})
	}
	return stats
}

const exportSheet = "Interactions"

// ExportXLSX 导出机器人的聊天记录为 Excel
func (a *Analytics) ExportXLSX(ctx context.Context, botID uint) ([]byte, error) {
	list, err := a.store.ListInteractions(ctx, botID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    border,
	})

	widths := map[string]float64{"A": 8, "B": 20, "C": 40, "D": 60, "E": 24, "F": 12, "G": 10, "H": 12, "I": 10, "J": 40}
	for col, w := range widths {
		_ = f.SetColWidth(exportSheet, col, col, w)
	}

	headers := []string{"ID", "Created At", "User Message", "Bot Response", "Model", "Provider", "Tokens", "Response Ms", "Success", "Error"}
	for i, h := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		_ = f.SetCellValue(exportSheet, cell, h)
	}
	_ = f.SetCellStyle(exportSheet, "A1", "J1", headerStyle)

	for i, in := range list {
		row := i + 2
		values := []any{
			in.ID,
			in.CreatedAt.Format("2006-01-02 15:04:05"),
			in.UserMessage,
			in.BotResponse,
			in.Model,
			in.Provider,
			"",
			in.ResponseTimeMs,
			in.Success,
			"",
		}
		if in.TokensUsed != nil {
			values[6] = *in.TokensUsed
		}
		if in.ErrorMessage != nil {
			values[9] = *in.ErrorMessage
		}
		if err := f.SetSheetRow(exportSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
		_ = f.SetCellStyle(exportSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("J%d", row), dataStyle)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("生成 Excel 失败: %w", err)
	}
	return buf.Bytes(), nil
}
