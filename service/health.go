package service

import (
	"context"
	"time"

	"chatdesk/config"
	"chatdesk/models"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"

	healthWindow = time.Hour
)

// RecentInteractionReader 全局时间窗内的记录
type RecentInteractionReader interface {
	InteractionsSince(ctx context.Context, since time.Time) ([]models.ChatInteraction, error)
}

// HostStats 主机资源
type HostStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryUsed    uint64  `json:"memory_used"`
	MemoryTotal   uint64  `json:"memory_total"`
	MemoryPercent float64 `json:"memory_percent"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
}

// HostSampler 主机资源采样
type HostSampler interface {
	Sample(ctx context.Context) (HostStats, error)
}

// GopsutilSampler 基于 gopsutil 的采样实现
type GopsutilSampler struct{}

func (GopsutilSampler) Sample(ctx context.Context) (HostStats, error) {
	var stats HostStats

	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return stats, err
	}
	if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return stats, err
	}
	stats.MemoryUsed = vm.Used
	stats.MemoryTotal = vm.Total
	stats.MemoryPercent = vm.UsedPercent

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return stats, err
	}
	stats.UptimeSeconds = uptime
	return stats, nil
}

// RequestStats 最近一小时的请求统计
type RequestStats struct {
	Total        int     `json:"total"`
	Failed       int     `json:"failed"`
	ErrorRate    float64 `json:"error_rate"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// HealthSnapshot 系统健康快照
type HealthSnapshot struct {
	Status               string       `json:"status"`
	Timestamp            time.Time    `json:"timestamp"`
	Requests             RequestStats `json:"requests"`
	System               HostStats    `json:"system"`
	ProcessUptimeSeconds int64        `json:"process_uptime_seconds"`
}

// Alerter 错误率超阈值时的通知
type Alerter interface {
	Notify(snapshot *HealthSnapshot)
}

// HealthMonitor 生成系统健康快照
type HealthMonitor struct {
	store     RecentInteractionReader
	sampler   HostSampler
	alerter   Alerter
	threshold float64
	started   time.Time
	now       func() time.Time
}

func NewHealthMonitor(st RecentInteractionReader, sampler HostSampler, alerter Alerter, cfg config.HealthConfig) *HealthMonitor {
	if sampler == nil {
		sampler = GopsutilSampler{}
	}
	return &HealthMonitor{
		store:     st,
		sampler:   sampler,
		alerter:   alerter,
		threshold: cfg.ErrorRateThreshold,
		started:   time.Now(),
		now:       time.Now,
	}
}

// Snapshot 统计最近一小时的请求并采样主机资源。采样失败只记日志
func (m *HealthMonitor) Snapshot(ctx context.Context) (*HealthSnapshot, error) {
	now := m.now()
	list, err := m.store.InteractionsSince(ctx, now.Add(-healthWindow))
	if err != nil {
		return nil, err
	}

	snap := &HealthSnapshot{
		Status:               StatusHealthy,
		Timestamp:            now.UTC(),
		Requests:             SummarizeRequests(list),
		ProcessUptimeSeconds: int64(now.Sub(m.started).Seconds()),
	}

	hostStats, err := m.sampler.Sample(ctx)
	if err != nil {
		log.Warn().Str("component", "health").Err(err).Msg("host sampling failed")
	}
	snap.System = hostStats

	if m.threshold > 0 && snap.Requests.ErrorRate > m.threshold {
		snap.Status = StatusDegraded
		if m.alerter != nil {
			m.alerter.Notify(snap)
		}
	}
	return snap, nil
}

// SummarizeRequests 错误率为百分比，没有请求时为 0
func SummarizeRequests(list []models.ChatInteraction) RequestStats {
	var stats RequestStats
	if len(list) == 0 {
		return stats
	}
	var totalMs int64
	for _, in := range list {
		stats.Total++
		if !in.Success {
			stats.Failed++
		}
		totalMs += in.ResponseTimeMs
	}
	stats.ErrorRate = float64(stats.Failed) / float64(stats.Total) * 100
	stats.AvgLatencyMs = float64(totalMs) / float64(stats.Total)
	return stats
}
