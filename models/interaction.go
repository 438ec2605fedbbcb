package models

import "time"

// ChatInteraction 一次聊天调用的记录，只追加不修改
type ChatInteraction struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	BotID          uint      `json:"bot_id" gorm:"index:idx_interactions_bot_created;not null"`
	UserMessage    string    `json:"user_message" gorm:"type:text;not null"`
	BotResponse    string    `json:"bot_response" gorm:"type:longtext;not null"` // 失败时为空字符串
	Model          string    `json:"model" gorm:"size:100"`
	Provider       string    `json:"provider" gorm:"size:20"`
	TokensUsed     *int      `json:"tokens_used"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	Success        bool      `json:"success" gorm:"index"`
	ErrorMessage   *string   `json:"error_message" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at" gorm:"index:idx_interactions_bot_created;index"`
}

func (ChatInteraction) TableName() string {
	return "chat_interactions"
}
