package models

import "time"

// KnowledgeEntry 知识库条目，创建后只允许删除
type KnowledgeEntry struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	BotID      uint      `json:"bot_id" gorm:"index;not null"`
	Content    string    `json:"content" gorm:"type:longtext;not null"`
	FileName   string    `json:"file_name" gorm:"size:255"`
	SourceURL  string    `json:"source_url" gorm:"size:1024"`
	UploadedAt time.Time `json:"uploaded_at" gorm:"autoCreateTime"`
}

func (KnowledgeEntry) TableName() string {
	return "knowledge_entries"
}
