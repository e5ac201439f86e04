package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Sarita-021/mediSyncAI-App/internal/model"
	"github.com/Sarita-021/mediSyncAI-App/internal/repository"
	"github.com/cloudwego/eino/schema"
	"k8s.io/klog/v2"
)

// ModelUsageService 模型调用用量服务接口
type ModelUsageService interface {
	RecordUsage(ctx context.Context, record UsageRecord) error
	GetStats(ctx context.Context) ([]model.ModelUsageStats, error)
	ListRecent(ctx context.Context, limit int) ([]model.ModelUsage, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.ModelUsage, error)
}

// UsageRecord 一次调用的计量信息
type UsageRecord struct {
	Kind      string
	SessionID string
	Model     string
	Usage     *schema.TokenUsage
	Duration  time.Duration
	Err       error
}

type modelUsageService struct {
	repo repository.ModelUsageRepository
}

// NewModelUsageService 创建用量服务
func NewModelUsageService(repo repository.ModelUsageRepository) ModelUsageService {
	return &modelUsageService{repo: repo}
}

// RecordUsage 记录一次模型调用
func (s *modelUsageService) RecordUsage(ctx context.Context, record UsageRecord) error {
	if record.Kind == "" {
		klog.V(6).Infof("模型用量记录失败：kind 为空")
		return fmt.Errorf("kind 为空")
	}

	// 将 SDK 的 usage 结构映射为数据库模型字段
	usage := &model.ModelUsage{
		Kind:       record.Kind,
		SessionID:  record.SessionID,
		Model:      record.Model,
		DurationMs: record.Duration.Milliseconds(),
		Success:    record.Err == nil,
	}
	if record.Usage != nil {
		usage.PromptTokens = record.Usage.PromptTokens
		usage.CompletionTokens = record.Usage.CompletionTokens
		usage.TotalTokens = record.Usage.TotalTokens
	}
	if record.Err != nil {
		usage.ErrorMessage = record.Err.Error()
	}

	if err := s.repo.Create(ctx, usage); err != nil {
		klog.V(6).Infof("模型用量记录失败：kind=%s, session=%s, err=%v", record.Kind, record.SessionID, err)
		return err
	}
	klog.V(6).Infof("模型用量记录成功：kind=%s, session=%s, tokens=%d", record.Kind, record.SessionID, usage.TotalTokens)
	return nil
}

// GetStats 按调用类型统计
func (s *modelUsageService) GetStats(ctx context.Context) ([]model.ModelUsageStats, error) {
	return s.repo.GetStats(ctx)
}

// ListRecent 最近的调用记录
func (s *modelUsageService) ListRecent(ctx context.Context, limit int) ([]model.ModelUsage, error) {
	return s.repo.ListRecent(ctx, limit)
}

// ListBySession 某个会话的全部调用记录
func (s *modelUsageService) ListBySession(ctx context.Context, sessionID string) ([]model.ModelUsage, error) {
	return s.repo.ListBySession(ctx, sessionID)
}
