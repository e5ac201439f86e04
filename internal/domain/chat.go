package domain

import "sync"

// ChatRole 对话角色
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatTurn 一轮可见对话
type ChatTurn struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChatTranscript 可见对话记录，只追加
// 人设引导消息不在其中
type ChatTranscript struct {
	mutex sync.RWMutex
	turns []ChatTurn
}

func NewChatTranscript() *ChatTranscript {
	return &ChatTranscript{}
}

// Append 追加一轮对话
func (t *ChatTranscript) Append(turn ChatTurn) {
	t.mutex.Lock()
	t.turns = append(t.turns, turn)
	t.mutex.Unlock()
}

// Turns 返回副本，调用方修改不影响记录
func (t *ChatTranscript) Turns() []ChatTurn {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	out := make([]ChatTurn, len(t.turns))
	copy(out, t.turns)
	return out
}

func (t *ChatTranscript) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.turns)
}
