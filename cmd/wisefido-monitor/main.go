package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	logpkg "wisefido-vitals/common/logger"
	"wisefido-vitals/internal/config"
	"wisefido-vitals/internal/service"

	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化Logger
	logger, err := logpkg.NewLogger(cfg.Log.Level, cfg.Log.Format, "wisefido-monitor")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting wisefido-monitor service",
		zap.String("ingest_mode", cfg.Ingest.Mode),
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.Bool("cache_enabled", cfg.Alert.Cache.Enabled),
		zap.Bool("persist_enabled", cfg.Alert.PersistEnabled),
	)

	// 创建服务
	monitor, err := service.NewMonitorService(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create monitor service", zap.Error(err))
	}
	defer monitor.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := monitor.Run(ctx); err != nil {
		logger.Error("Monitor service failed", zap.Error(err))
		return
	}

	logger.Info("Service stopped")
}
