package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Sarita-021/mediSyncAI-App/internal/domain"
	"github.com/Sarita-021/mediSyncAI-App/internal/service/chat"
	"github.com/Sarita-021/mediSyncAI-App/internal/service/extractor"
	"github.com/Sarita-021/mediSyncAI-App/internal/service/statemachine"
	"k8s.io/klog/v2"
)

// Extractor 处方提取能力
type Extractor interface {
	Extract(ctx context.Context, sessionID string, image []byte) (*domain.PrescriptionRecord, error)
}

// ExtractionResult 提取视图展示的最近一次结果
// 成功时 Summary 非空；失败时 Error 非空，解析失败还带有原文 Raw
type ExtractionResult struct {
	Summary     *domain.PrescriptionSummary `json:"summary,omitempty"`
	Markdown    string                      `json:"markdown,omitempty"`
	Error       string                      `json:"error,omitempty"`
	Raw         string                      `json:"raw,omitempty"`
	ExtractedAt time.Time                   `json:"extracted_at"`
}

// ChatReply 一次对话交互的结果
// Turn 为空表示输入为空，未发生交互
type ChatReply struct {
	Turn       *domain.ChatTurn  `json:"turn,omitempty"`
	Failed     bool              `json:"failed"`
	Transcript []domain.ChatTurn `json:"transcript"`
}

// Snapshot 会话状态快照
type Snapshot struct {
	ID               string            `json:"id"`
	CreatedAt        time.Time         `json:"created_at"`
	LastActiveAt     time.Time         `json:"last_active_at"`
	ChatStatus       string            `json:"chat_status"`
	ExtractionStatus string            `json:"extraction_status"`
	Transcript       []domain.ChatTurn `json:"transcript"`
	LastExtraction   *ExtractionResult `json:"last_extraction,omitempty"`
}

// Session 一个用户会话：一个对话视图加一个提取视图
type Session struct {
	id        string
	createdAt time.Time
	extractor Extractor
	now       func() time.Time

	chat           *chat.Session
	chatView       *statemachine.ViewStateMachine
	extractionView *statemachine.ViewStateMachine

	mutex          sync.RWMutex
	ended          bool
	lastActiveAt   time.Time
	lastExtraction *ExtractionResult
}

func newSession(id string, chatSession *chat.Session, ext Extractor, now func() time.Time) *Session {
	created := now()
	return &Session{
		id:             id,
		createdAt:      created,
		extractor:      ext,
		now:            now,
		chat:           chatSession,
		chatView:       statemachine.NewViewStateMachine(id + "/chat"),
		extractionView: statemachine.NewViewStateMachine(id + "/extraction"),
		lastActiveAt:   created,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Extract 执行一次提取并替换最近结果
// 图片无效、视图忙或会话已结束时返回错误且不替换结果
func (s *Session) Extract(ctx context.Context, image []byte) (*ExtractionResult, error) {
	var result *ExtractionResult
	err := s.run(s.extractionView, func() error {
		record, err := s.extractor.Extract(ctx, s.id, image)
		if errors.Is(err, extractor.ErrInvalidImage) {
			return err
		}

		result = &ExtractionResult{ExtractedAt: s.now()}
		if err != nil {
			result.Error = err.Error()
			var malformed *extractor.MalformedResponseError
			if errors.As(err, &malformed) {
				result.Raw = malformed.Raw
			}
		} else {
			summary := record.Summary()
			result.Summary = &summary
			result.Markdown = record.Markdown()
		}

		s.mutex.Lock()
		s.lastExtraction = result
		s.mutex.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LastExtraction 最近一次提取结果，没有时返回 nil
func (s *Session) LastExtraction() *ExtractionResult {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastExtraction
}

// SendMessage 发送一条对话消息
// 空白输入不触发交互；模型失败以错误文本作为助手回复，不返回错误
func (s *Session) SendMessage(ctx context.Context, message string) (*ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return &ChatReply{Transcript: s.chat.Transcript()}, nil
	}

	reply := &ChatReply{}
	err := s.run(s.chatView, func() error {
		turn, err := s.chat.Send(ctx, message)
		reply.Turn = &turn
		if err != nil {
			var chatErr *chat.ChatError
			if !errors.As(err, &chatErr) {
				return err
			}
			reply.Failed = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	reply.Transcript = s.chat.Transcript()
	return reply, nil
}

// Transcript 可见对话记录
func (s *Session) Transcript() []domain.ChatTurn {
	return s.chat.Transcript()
}

// Snapshot 返回当前会话状态
func (s *Session) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return Snapshot{
		ID:               s.id,
		CreatedAt:        s.createdAt,
		LastActiveAt:     s.lastActiveAt,
		ChatStatus:       string(s.chatView.Status()),
		ExtractionStatus: string(s.extractionView.Status()),
		Transcript:       s.chat.Transcript(),
		LastExtraction:   s.lastExtraction,
	}
}

// run 在视图 awaiting_result 状态下执行 fn，结束后回到 idle
// 是否已结束与进入 awaiting_result 在同一把锁下判定，清理不会与新交互交错
func (s *Session) run(view *statemachine.ViewStateMachine, fn func() error) error {
	s.mutex.Lock()
	if s.ended {
		s.mutex.Unlock()
		klog.V(6).Infof("[Session] 会话已结束，拒绝交互: id=%s", s.id)
		return ErrSessionNotFound
	}
	if err := view.Begin(); err != nil {
		s.mutex.Unlock()
		return err
	}
	s.lastActiveAt = s.now()
	s.mutex.Unlock()

	defer func() {
		if err := view.Finish(); err != nil {
			klog.Errorf("视图状态复位失败: session=%s, error=%v", s.id, err)
		}
	}()
	return fn()
}

// expire 空闲超时且没有进行中的交互时标记结束
func (s *Session) expire(now time.Time, idleTimeout time.Duration) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.ended || s.busy() || now.Sub(s.lastActiveAt) < idleTimeout {
		return false
	}
	s.ended = true
	return true
}

func (s *Session) end() {
	s.mutex.Lock()
	s.ended = true
	s.mutex.Unlock()
}

func (s *Session) busy() bool {
	return s.chatView.Status() == statemachine.ViewStatusAwaitingResult ||
		s.extractionView.Status() == statemachine.ViewStatusAwaitingResult
}
