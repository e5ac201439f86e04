package handler

import (
	"net/http"

	"github.com/Sarita-021/mediSyncAI-App/config"
	"github.com/gin-gonic/gin"
)

type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

type ConfigResponse struct {
	LLM  LLMConfigResponse  `json:"llm"`
	Chat ChatConfigResponse `json:"chat"`
}

type LLMConfigResponse struct {
	APIURL    string `json:"api_url"`
	APIKey    string `json:"api_key"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
}

type ChatConfigResponse struct {
	SessionIdleTimeout string `json:"session_idle_timeout"`
}

// Get 返回当前配置，凭证脱敏
func (h *ConfigHandler) Get(c *gin.Context) {
	resp := ConfigResponse{
		LLM: LLMConfigResponse{
			APIURL:    h.cfg.LLM.APIURL,
			APIKey:    maskKey(h.cfg.LLM.APIKey),
			Model:     h.cfg.LLM.Model,
			MaxTokens: h.cfg.LLM.MaxTokens,
		},
		Chat: ChatConfigResponse{
			SessionIdleTimeout: h.cfg.Chat.SessionIdleTimeout.String(),
		},
	}
	c.JSON(http.StatusOK, resp)
}

// Health 存活检查
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
