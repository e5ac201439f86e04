package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sarita-021/mediSyncAI-App/internal/domain"
	"github.com/Sarita-021/mediSyncAI-App/internal/eventbus"
	"github.com/Sarita-021/mediSyncAI-App/internal/pkg/llm"
	"k8s.io/klog/v2"
)

// ChatError 对话失败，其文本作为助手回复写入记录
type ChatError struct {
	Err error
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("❌ Error: %v", e.Err)
}

func (e *ChatError) Unwrap() error {
	return e.Err
}

// ConversationStarter 可创建远端会话的模型服务
type ConversationStarter interface {
	StartConversation() llm.Conversation
	ModelName() string
}

// Session 一个长生命周期的对话
// 可见记录只追加；人设引导不进入记录
type Session struct {
	id           string
	modelName    string
	conversation llm.Conversation
	transcript   *domain.ChatTranscript
	bus          *eventbus.ModelCallEventBus

	mutex  sync.Mutex
	primed bool
}

// NewSession 创建对话，bus 可为 nil
func NewSession(id string, starter ConversationStarter, bus *eventbus.ModelCallEventBus) *Session {
	return &Session{
		id:           id,
		modelName:    starter.ModelName(),
		conversation: starter.StartConversation(),
		transcript:   domain.NewChatTranscript(),
		bus:          bus,
	}
}

// Send 追加一轮用户消息与一轮助手回复
// 失败时助手回复为 ChatError 文本，同时返回该错误
func (s *Session) Send(ctx context.Context, message string) (domain.ChatTurn, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.transcript.Append(domain.ChatTurn{Role: domain.ChatRoleUser, Content: message})
	klog.V(6).Infof("[Chat] 用户消息: session=%s, length=%d", s.id, len(message))
	klog.V(8).Infof("[Chat] 用户消息内容: %s", message)

	content, err := s.reply(ctx, message)
	if err != nil {
		chatErr := &ChatError{Err: err}
		klog.Warningf("[Chat] 对话失败: session=%s, err=%v", s.id, err)
		turn := domain.ChatTurn{Role: domain.ChatRoleAssistant, Content: chatErr.Error()}
		s.transcript.Append(turn)
		return turn, chatErr
	}

	turn := domain.ChatTurn{Role: domain.ChatRoleAssistant, Content: content}
	s.transcript.Append(turn)
	klog.V(6).Infof("[Chat] 助手回复: session=%s, length=%d", s.id, len(content))
	return turn, nil
}

func (s *Session) reply(ctx context.Context, message string) (string, error) {
	if !s.primed {
		if _, err := s.call(ctx, eventbus.ModelCallPriming, PersonaPrompt); err != nil {
			return "", fmt.Errorf("persona priming failed: %w", err)
		}
		s.primed = true
		klog.V(6).Infof("[Chat] 人设引导完成: session=%s", s.id)
	}
	return s.call(ctx, eventbus.ModelCallChat, message)
}

func (s *Session) call(ctx context.Context, kind eventbus.ModelCallEventType, text string) (string, error) {
	start := time.Now()
	reply, err := s.conversation.Send(ctx, text)

	if s.bus != nil {
		event := eventbus.ModelCallEvent{
			Type:      kind,
			SessionID: s.id,
			Model:     s.modelName,
			Duration:  time.Since(start),
			Err:       err,
		}
		if reply != nil {
			event.Usage = reply.Usage
		}
		if pubErr := s.bus.Publish(ctx, event); pubErr != nil {
			klog.Warningf("[Chat] 发布模型调用事件失败: %v", pubErr)
		}
	}

	if err != nil {
		return "", err
	}
	return reply.Content, nil
}

// Transcript 返回可见记录副本
func (s *Session) Transcript() []domain.ChatTurn {
	return s.transcript.Turns()
}

// Primed 人设引导是否已成功
func (s *Session) Primed() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.primed
}
