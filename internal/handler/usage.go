package handler

import (
	"net/http"
	"strconv"

	"github.com/Sarita-021/mediSyncAI-App/internal/service"
	"github.com/gin-gonic/gin"
)

// UsageHandler 模型调用用量接口
type UsageHandler struct {
	service service.ModelUsageService
}

// NewUsageHandler 创建用量处理器
func NewUsageHandler(service service.ModelUsageService) *UsageHandler {
	return &UsageHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *UsageHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/usage/stats", h.GetStats)
	router.GET("/usage/recent", h.ListRecent)
	router.GET("/sessions/:id/usage", h.ListBySession)
}

// GetStats 按调用类型统计
func (h *UsageHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// ListRecent 最近的调用记录，limit 默认 50
func (h *UsageHandler) ListRecent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	records, err := h.service.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// ListBySession 某个会话的调用记录，只含计量信息
func (h *UsageHandler) ListBySession(c *gin.Context) {
	records, err := h.service.ListBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
