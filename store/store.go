// Package store 基于 gorm 的关系型存储：机器人、知识库、聊天记录、系统设置
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatdesk/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// Store 数据访问层，由 main 显式创建并注入各服务
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB 底层连接（健康检查用）
func (s *Store) DB() *gorm.DB {
	return s.db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ---------------------------------------------------------------------------
// 机器人
// ---------------------------------------------------------------------------

func (s *Store) ListBots(ctx context.Context) ([]models.Bot, error) {
	var bots []models.Bot
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&bots).Error; err != nil {
		return nil, fmt.Errorf("list bots: %w", err)
	}
	return bots, nil
}

func (s *Store) GetBot(ctx context.Context, id uint) (*models.Bot, error) {
	var bot models.Bot
	if err := s.db.WithContext(ctx).First(&bot, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &bot, nil
}

func (s *Store) CreateBot(ctx context.Context, bot *models.Bot) error {
	if err := s.db.WithContext(ctx).Create(bot).Error; err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	return nil
}

// SaveBot 整体保存（局部更新在调用方合并后保存）
func (s *Store) SaveBot(ctx context.Context, bot *models.Bot) error {
	if err := s.db.WithContext(ctx).Save(bot).Error; err != nil {
		return fmt.Errorf("save bot: %w", err)
	}
	return nil
}

// DeleteBot 同一事务内删除知识库条目和机器人，聊天记录保留用于审计
func (s *Store) DeleteBot(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bot_id = ?", id).Delete(&models.KnowledgeEntry{}).Error; err != nil {
			return fmt.Errorf("delete knowledge entries: %w", err)
		}
		res := tx.Delete(&models.Bot{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete bot: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// 知识库
// ---------------------------------------------------------------------------

func (s *Store) ListKnowledge(ctx context.Context, botID uint) ([]models.KnowledgeEntry, error) {
	var entries []models.KnowledgeEntry
	if err := s.db.WithContext(ctx).Where("bot_id = ?", botID).Order("id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list knowledge: %w", err)
	}
	return entries, nil
}

func (s *Store) CreateKnowledge(ctx context.Context, entry *models.KnowledgeEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create knowledge entry: %w", err)
	}
	return nil
}

func (s *Store) DeleteKnowledge(ctx context.Context, botID, id uint) error {
	res := s.db.WithContext(ctx).Where("bot_id = ?", botID).Delete(&models.KnowledgeEntry{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete knowledge entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// 聊天记录
// ---------------------------------------------------------------------------

func (s *Store) CreateInteraction(ctx context.Context, in *models.ChatInteraction) error {
	if err := s.db.WithContext(ctx).Create(in).Error; err != nil {
		return fmt.Errorf("create interaction: %w", err)
	}
	return nil
}

// ListInteractions 某个机器人的全部记录，按时间升序
func (s *Store) ListInteractions(ctx context.Context, botID uint) ([]models.ChatInteraction, error) {
	var list []models.ChatInteraction
	if err := s.db.WithContext(ctx).Where("bot_id = ?", botID).Order("created_at ASC, id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	return list, nil
}

// PageInteractions 分页，最新的在前
func (s *Store) PageInteractions(ctx context.Context, botID uint, page, pageSize int) ([]models.ChatInteraction, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ChatInteraction{}).Where("bot_id = ?", botID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count interactions: %w", err)
	}

	var list []models.ChatInteraction
	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("page interactions: %w", err)
	}
	return list, total, nil
}

// InteractionsBetween 某个机器人在 [start, end] 内的记录，最新的在前
func (s *Store) InteractionsBetween(ctx context.Context, botID uint, start, end time.Time) ([]models.ChatInteraction, error) {
	var list []models.ChatInteraction
	err := s.db.WithContext(ctx).
		Where("bot_id = ? AND created_at >= ? AND created_at <= ?", botID, start, end).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list interactions between: %w", err)
	}
	return list, nil
}

// InteractionsSince 全局时间窗内的记录，只取统计需要的列
func (s *Store) InteractionsSince(ctx context.Context, since time.Time) ([]models.ChatInteraction, error) {
	var list []models.ChatInteraction
	err := s.db.WithContext(ctx).
		Select("id", "success", "response_time_ms", "created_at").
		Where("created_at >= ?", since).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list recent interactions: %w", err)
	}
	return list, nil
}

// ---------------------------------------------------------------------------
// 系统设置
// ---------------------------------------------------------------------------

// GetSetting ok=false 表示未设置
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var setting models.SystemSetting
	err := s.db.WithContext(ctx).Where("`key` = ?", key).Take(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return setting.Value, true, nil
}

// SetSetting 按 key 插入或更新
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	setting := models.SystemSetting{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) ListSettings(ctx context.Context) ([]models.SystemSetting, error) {
	var list []models.SystemSetting
	if err := s.db.WithContext(ctx).Order("`key` ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return list, nil
}
