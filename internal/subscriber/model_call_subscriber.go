package subscriber

import (
	"context"
	"strings"

	"github.com/Sarita-021/mediSyncAI-App/internal/eventbus"
	"github.com/Sarita-021/mediSyncAI-App/internal/service"
	"k8s.io/klog/v2"
)

type ModelCallSubscriber struct {
	usageService usageRecorder
}

type usageRecorder interface {
	RecordUsage(ctx context.Context, record service.UsageRecord) error
}

func NewModelCallSubscriber(usageService usageRecorder) *ModelCallSubscriber {
	return &ModelCallSubscriber{usageService: usageService}
}

func (s *ModelCallSubscriber) Register(bus *eventbus.ModelCallEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.ModelCallExtraction, s.handleModelCall)
	bus.Subscribe(eventbus.ModelCallChat, s.handleModelCall)
	bus.Subscribe(eventbus.ModelCallPriming, s.handleModelCall)
}

func (s *ModelCallSubscriber) handleModelCall(ctx context.Context, event eventbus.ModelCallEvent) error {
	err := s.usageService.RecordUsage(ctx, service.UsageRecord{
		Kind:      strings.ToLower(string(event.Type)),
		SessionID: event.SessionID,
		Model:     event.Model,
		Usage:     event.Usage,
		Duration:  event.Duration,
		Err:       event.Err,
	})
	if err != nil {
		klog.Errorf("模型调用事件处理失败: type=%s, session=%s, error=%v", event.Type, event.SessionID, err)
		return err
	}
	klog.V(6).Infof("模型调用事件处理成功: type=%s, session=%s", event.Type, event.SessionID)
	return nil
}
