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
	logger, err := logpkg.NewLogger(cfg.Log.Level, cfg.Log.Format, "wisefido-simulator")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting wisefido-simulator service",
		zap.Int("patient_count", cfg.Simulator.PatientCount),
		zap.String("output", cfg.Simulator.Output),
		zap.Int("worker_count", cfg.WorkerCount()),
	)

	// 创建服务
	simulator, err := service.NewSimulatorService(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create simulator service", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := simulator.Start(ctx); err != nil {
		logger.Fatal("Failed to start simulator service", zap.Error(err))
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	// 优雅关闭
	cancel()
	if err := simulator.Stop(ctx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Service stopped")
}
