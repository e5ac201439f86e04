package repository

import (
	"context"

	"github.com/Sarita-021/mediSyncAI-App/internal/model"
	"gorm.io/gorm"
)

type modelUsageRepository struct {
	db *gorm.DB
}

// NewModelUsageRepository 创建 ModelUsage 仓储
func NewModelUsageRepository(db *gorm.DB) ModelUsageRepository {
	return &modelUsageRepository{db: db}
}

// Create 新增用量记录
func (r *modelUsageRepository) Create(ctx context.Context, usage *model.ModelUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

// ListRecent 按时间倒序列出最近的记录
func (r *modelUsageRepository) ListRecent(ctx context.Context, limit int) ([]model.ModelUsage, error) {
	if limit <= 0 {
		limit = 50
	}
	var usages []model.ModelUsage
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&usages).Error
	return usages, err
}

// ListBySession 列出某个会话的全部记录
func (r *modelUsageRepository) ListBySession(ctx context.Context, sessionID string) ([]model.ModelUsage, error) {
	var usages []model.ModelUsage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&usages).Error
	return usages, err
}

// GetStats 按调用类型聚合
func (r *modelUsageRepository) GetStats(ctx context.Context) ([]model.ModelUsageStats, error) {
	var stats []model.ModelUsageStats
	err := r.db.WithContext(ctx).
		Model(&model.ModelUsage{}).
		Select(`
			kind,
			COUNT(*) as call_count,
			SUM(CASE WHEN success THEN 0 ELSE 1 END) as error_count,
			COALESCE(SUM(total_tokens), 0) as total_tokens,
			COALESCE(AVG(duration_ms), 0) as avg_duration_ms
		`).
		Group("kind").
		Order("kind ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
