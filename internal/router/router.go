package router

import (
	"github.com/Sarita-021/mediSyncAI-App/config"
	"github.com/Sarita-021/mediSyncAI-App/internal/embed"
	"github.com/Sarita-021/mediSyncAI-App/internal/handler"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func Setup(
	cfg *config.Config,
	sessionHandler *handler.SessionHandler,
	usageHandler *handler.UsageHandler,
	configHandler *handler.ConfigHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/health", handler.Health)

	api := r.Group("/api")
	{
		sessions := api.Group("/sessions")
		{
			sessions.POST("", sessionHandler.Create)
			sessions.GET("/:id", sessionHandler.Get)
			sessions.DELETE("/:id", sessionHandler.Delete)
			sessions.POST("/:id/extractions", sessionHandler.Extract)
			sessions.GET("/:id/extractions/latest", sessionHandler.LatestExtraction)
			sessions.POST("/:id/messages", sessionHandler.SendMessage)
			sessions.GET("/:id/messages", sessionHandler.Transcript)
		}

		api.GET("/config", configHandler.Get)

		// 模型调用用量
		usageHandler.RegisterRoutes(api)
	}

	// 前端静态文件路由，需在 API 路由之后设置
	embed.SetupRouter(r)

	return r
}
