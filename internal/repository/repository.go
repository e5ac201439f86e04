package repository

import (
	"context"

	"github.com/Sarita-021/mediSyncAI-App/internal/model"
)

// ModelUsageRepository 模型调用用量仓储
type ModelUsageRepository interface {
	Create(ctx context.Context, usage *model.ModelUsage) error
	ListRecent(ctx context.Context, limit int) ([]model.ModelUsage, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.ModelUsage, error)
	GetStats(ctx context.Context) ([]model.ModelUsageStats, error)
}
