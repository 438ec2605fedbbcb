package api

import (
	"context"
	"net/http"

	"chatdesk/service"

	"github.com/gin-gonic/gin"
)

// SnapshotSource 健康快照来源
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*service.HealthSnapshot, error)
}

// SystemHandler 系统状态处理器
type SystemHandler struct {
	monitor SnapshotSource
}

// NewSystemHandler 创建系统状态处理器
func NewSystemHandler(monitor SnapshotSource) *SystemHandler {
	return &SystemHandler{monitor: monitor}
}

// Health 系统健康快照
// @Summary 系统健康
// @Description 最近一小时的请求量、错误率、平均耗时，以及主机 CPU、内存、运行时间
// @Tags 系统
// @Produce json
// @Success 200 {object} service.HealthSnapshot
// @Failure 500 {object} ErrorResponse
// @Router /api/system/health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	snap, err := h.monitor.Snapshot(c.Request.Context())
	if err != nil {
		InternalError(c, "Failed to compute health snapshot", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
