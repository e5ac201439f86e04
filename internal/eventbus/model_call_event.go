package eventbus

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

type ModelCallEventType string

const (
	ModelCallExtraction ModelCallEventType = "Extraction"
	ModelCallChat       ModelCallEventType = "Chat"
	ModelCallPriming    ModelCallEventType = "Priming"
)

// ModelCallEvent 一次模型服务调用的结果，不含处方或对话内容
type ModelCallEvent struct {
	Type      ModelCallEventType
	SessionID string
	Model     string
	Usage     *schema.TokenUsage
	Duration  time.Duration
	Err       error
}

func (e ModelCallEvent) EventType() ModelCallEventType {
	return e.Type
}

type ModelCallEventHandler = Handler[ModelCallEvent]
type ModelCallEventBus = Bus[ModelCallEventType, ModelCallEvent]

func NewModelCallEventBus() *ModelCallEventBus {
	return NewBus[ModelCallEventType, ModelCallEvent]()
}
