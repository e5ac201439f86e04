package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Sarita-021/mediSyncAI-App/internal/eventbus"
	"github.com/Sarita-021/mediSyncAI-App/internal/service/chat"
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// ErrSessionNotFound 会话不存在或已结束
var ErrSessionNotFound = errors.New("session not found")

// Manager 管理进程内的用户会话
type Manager struct {
	starter     chat.ConversationStarter
	extractor   Extractor
	bus         *eventbus.ModelCallEventBus
	idleTimeout time.Duration
	now         func() time.Time

	mutex    sync.RWMutex
	sessions map[string]*Session
}

// NewManager 创建会话管理器，idleTimeout 为 0 表示不过期
func NewManager(starter chat.ConversationStarter, ext Extractor, bus *eventbus.ModelCallEventBus, idleTimeout time.Duration) *Manager {
	return &Manager{
		starter:     starter,
		extractor:   ext,
		bus:         bus,
		idleTimeout: idleTimeout,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

// Create 新建会话，对话视图持有独立的远端会话
func (m *Manager) Create() *Session {
	id := uuid.New().String()
	s := newSession(id, chat.NewSession(id, m.starter, m.bus), m.extractor, m.now)

	m.mutex.Lock()
	m.sessions[id] = s
	m.mutex.Unlock()

	klog.V(6).Infof("[SessionManager] 创建会话: id=%s", id)
	return s
}

// Get 获取会话
func (m *Manager) Get(id string) (*Session, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// End 结束会话，其状态随之丢弃
func (m *Manager) End(id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.end()
	delete(m.sessions, id)
	klog.V(6).Infof("[SessionManager] 结束会话: id=%s", id)
	return nil
}

// Count 当前会话数
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// Sweep 结束超过空闲时限的会话，返回结束的数量
// 正在等待结果的会话不会被清理，已取出的会话引用在清理后也无法再发起交互
func (m *Manager) Sweep() int {
	if m.idleTimeout <= 0 {
		return 0
	}
	now := m.now()

	m.mutex.Lock()
	defer m.mutex.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if !s.expire(now, m.idleTimeout) {
			continue
		}
		delete(m.sessions, id)
		removed++
		klog.V(6).Infof("[SessionManager] 清理空闲会话: id=%s", id)
	}
	return removed
}

// StartSweeper 周期清理空闲会话，ctx 取消后退出
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.idleTimeout <= 0 {
		klog.V(6).Infof("[SessionManager] 未启用空闲会话清理")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				klog.V(6).Infof("[SessionManager] 空闲会话清理已停止")
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					klog.Infof("[SessionManager] 已清理 %d 个空闲会话", n)
				}
			}
		}
	}()
}
