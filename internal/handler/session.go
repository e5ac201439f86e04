package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/Sarita-021/mediSyncAI-App/internal/service/extractor"
	"github.com/Sarita-021/mediSyncAI-App/internal/service/session"
	"github.com/Sarita-021/mediSyncAI-App/internal/service/statemachine"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

// SessionHandler 会话、提取与对话接口
type SessionHandler struct {
	manager *session.Manager
}

func NewSessionHandler(manager *session.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

// SendMessageRequest 对话请求
type SendMessageRequest struct {
	Message string `json:"message"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	s := h.manager.Create()
	c.JSON(http.StatusCreated, s.Snapshot())
}

func (h *SessionHandler) Get(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.manager.End(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session ended"})
}

// Extract 上传处方图片，multipart 字段 file
// 模型回复无法解析时仍返回 200，错误与原文放在结果中展示
func (h *SessionHandler) Extract(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please upload a prescription image"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.Extract(c.Request.Context(), data)
	if err != nil {
		switch {
		case errors.Is(err, extractor.ErrInvalidImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, statemachine.ErrViewBusy):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, session.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			klog.Errorf("[SessionHandler] 提取失败: session=%s, err=%v", s.ID(), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) LatestExtraction(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	result := s.LastExtraction()
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no extraction yet"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// SendMessage 发送对话消息，空白消息不触发模型调用
func (h *SessionHandler) SendMessage(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := s.SendMessage(c.Request.Context(), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, statemachine.ErrViewBusy):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, session.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *SessionHandler) Transcript(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"transcript": s.Transcript()})
}

func (h *SessionHandler) lookup(c *gin.Context) (*session.Session, bool) {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return s, true
}
