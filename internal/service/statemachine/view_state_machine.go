package statemachine

import (
	"errors"
	"fmt"
	"sync"

	"k8s.io/klog/v2"
)

// ViewStatus 视图交互状态
type ViewStatus string

const (
	ViewStatusIdle           ViewStatus = "idle"            // 可接受新的交互
	ViewStatusAwaitingResult ViewStatus = "awaiting_result" // 等待模型服务返回
)

// ErrViewBusy 视图正在等待结果时再次触发
var ErrViewBusy = errors.New("view is awaiting a result")

// ViewTransition 视图状态迁移
type ViewTransition struct {
	From ViewStatus
	To   ViewStatus
}

var allowedViewTransitions = map[ViewTransition]bool{
	{ViewStatusIdle, ViewStatusAwaitingResult}: true,
	{ViewStatusAwaitingResult, ViewStatusIdle}: true,
}

// CanTransition 检查状态迁移是否合法
func CanTransition(from, to ViewStatus) bool {
	if from == to {
		return false
	}
	return allowedViewTransitions[ViewTransition{From: from, To: to}]
}

// InvalidStateTransitionError 无效的状态迁移错误
type InvalidStateTransitionError struct {
	From string
	To   string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid view state transition: %s -> %s", e.From, e.To)
}

// ViewStateMachine 单个视图的状态机
// 同一视图同一时刻只处理一次交互，不支持取消
type ViewStateMachine struct {
	name   string
	mutex  sync.Mutex
	status ViewStatus
}

// NewViewStateMachine 创建处于 idle 状态的视图状态机
func NewViewStateMachine(name string) *ViewStateMachine {
	return &ViewStateMachine{name: name, status: ViewStatusIdle}
}

// Status 当前状态
func (m *ViewStateMachine) Status() ViewStatus {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.status
}

// Begin idle -> awaiting_result，忙时返回 ErrViewBusy
func (m *ViewStateMachine) Begin() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.status == ViewStatusAwaitingResult {
		klog.V(6).Infof("视图交互被拒绝: view=%s, status=%s", m.name, m.status)
		return ErrViewBusy
	}
	return m.transition(ViewStatusAwaitingResult)
}

// Finish awaiting_result -> idle
func (m *ViewStateMachine) Finish() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.transition(ViewStatusIdle)
}

func (m *ViewStateMachine) transition(to ViewStatus) error {
	if !CanTransition(m.status, to) {
		klog.V(6).Infof("视图状态迁移被拒绝: view=%s, %s -> %s", m.name, m.status, to)
		return &InvalidStateTransitionError{From: string(m.status), To: string(to)}
	}
	klog.V(6).Infof("视图状态迁移成功: view=%s, %s -> %s", m.name, m.status, to)
	m.status = to
	return nil
}
