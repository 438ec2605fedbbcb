package service

import (
	"fmt"
	"sync"
	"time"

	"chatdesk/config"
	"chatdesk/metrics"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// EmailService 邮件服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Send 发送 HTML 邮件
func (s *EmailService) Send(to []string, subject, body string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用，请配置 CHATDESK_EMAIL_ENABLED=true")
	}
	if len(to) == 0 {
		return fmt.Errorf("没有收件人")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}

// AlertMailer 错误率告警邮件，冷却时间内最多发送一次
type AlertMailer struct {
	send       func(to []string, subject, body string) error
	recipients []string
	cooldown   time.Duration
	now        func() time.Time

	mu       sync.Mutex
	lastSent time.Time
}

// NewAlertMailer 告警未启用时返回 nil
func NewAlertMailer(email *EmailService, cfg config.AlertConfig) *AlertMailer {
	if !cfg.Enabled || len(cfg.Recipients) == 0 {
		return nil
	}
	return &AlertMailer{
		send:       email.Send,
		recipients: cfg.Recipients,
		cooldown:   cfg.Cooldown,
		now:        time.Now,
	}
}

// Notify 异步发送，不阻塞快照计算
func (a *AlertMailer) Notify(snapshot *HealthSnapshot) {
	if a == nil || snapshot == nil {
		return
	}
	a.mu.Lock()
	now := a.now()
	if !a.lastSent.IsZero() && now.Sub(a.lastSent) < a.cooldown {
		a.mu.Unlock()
		return
	}
	a.lastSent = now
	a.mu.Unlock()

	subject := fmt.Sprintf("[chatdesk] 错误率告警 %.1f%%", snapshot.Requests.ErrorRate)
	body := generateAlertEmailBody(snapshot)
	go func() {
		if err := a.send(a.recipients, subject, body); err != nil {
			log.Error().Str("component", "alert").Err(err).Msg("发送告警邮件失败")
			return
		}
		metrics.Global().AlertsSent.Inc()
		log.Info().Str("component", "alert").Strs("to", a.recipients).Msg("已发送告警邮件")
	}()
}

// generateAlertEmailBody 生成告警邮件内容
func generateAlertEmailBody(s *HealthSnapshot) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
    <h2>⚠️ 聊天服务错误率过高</h2>
    <p>状态：<strong>%s</strong></p>
    <table cellpadding="6" style="border-collapse: collapse;">
        <tr><td>最近一小时请求数</td><td>%d</td></tr>
        <tr><td>失败数</td><td>%d</td></tr>
        <tr><td>错误率</td><td>%.2f%%</td></tr>
        <tr><td>平均耗时</td><td>%.0f ms</td></tr>
        <tr><td>CPU</td><td>%.1f%%</td></tr>
        <tr><td>内存</td><td>%.1f%%</td></tr>
    </table>
    <p style="color: #666;">%s</p>
</body>
</html>
`,
		s.Status,
		s.Requests.Total,
		s.Requests.Failed,
		s.Requests.ErrorRate,
		s.Requests.AvgLatencyMs,
		s.System.CPUPercent,
		s.System.MemoryPercent,
		s.Timestamp.Format(time.RFC3339),
	)
}
