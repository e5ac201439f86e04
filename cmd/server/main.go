package main

import (
	"context"
	"flag"
	"log"
	"os"

	"k8s.io/klog/v2"

	"github.com/Sarita-021/mediSyncAI-App/config"
	"github.com/Sarita-021/mediSyncAI-App/internal/eventbus"
	"github.com/Sarita-021/mediSyncAI-App/internal/handler"
	"github.com/Sarita-021/mediSyncAI-App/internal/pkg/database"
	"github.com/Sarita-021/mediSyncAI-App/internal/pkg/llm"
	"github.com/Sarita-021/mediSyncAI-App/internal/repository"
	"github.com/Sarita-021/mediSyncAI-App/internal/router"
	"github.com/Sarita-021/mediSyncAI-App/internal/service"
	"github.com/Sarita-021/mediSyncAI-App/internal/service/extractor"
	"github.com/Sarita-021/mediSyncAI-App/internal/service/session"
	"github.com/Sarita-021/mediSyncAI-App/internal/subscriber"
)

func main() {
	// 初始化 klog
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("服务启动中...")

	cfg := config.GetConfig()
	// 缺少模型服务凭证时直接退出
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// 初始化数据库（仅保存调用计量）
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化 Repository 与 Service
	usageRepo := repository.NewModelUsageRepository(db)
	usageService := service.NewModelUsageService(usageRepo)

	// 模型调用事件总线
	bus := eventbus.NewModelCallEventBus()
	subscriber.NewModelCallSubscriber(usageService).Register(bus)

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to create model service client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionManager := session.NewManager(llmClient, extractor.New(llmClient, bus), bus, cfg.Chat.SessionIdleTimeout)
	sessionManager.StartSweeper(ctx, cfg.Chat.SweepInterval)

	// 初始化 Handler
	sessionHandler := handler.NewSessionHandler(sessionManager)
	usageHandler := handler.NewUsageHandler(usageService)
	configHandler := handler.NewConfigHandler(cfg)

	// 设置路由
	r := router.Setup(cfg, sessionHandler, usageHandler, configHandler)

	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
