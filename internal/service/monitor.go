package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"wisefido-vitals/common/database"
	mqttcommon "wisefido-vitals/common/mqtt"
	rediscommon "wisefido-vitals/common/redis"
	"wisefido-vitals/internal/config"
	"wisefido-vitals/internal/consumer"
	"wisefido-vitals/internal/evaluator"
	"wisefido-vitals/internal/httpapi"
	"wisefido-vitals/internal/notifier"
	"wisefido-vitals/internal/reader"
	"wisefido-vitals/internal/repository"
	"wisefido-vitals/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// 采集模式
const (
	IngestFile      = "file"
	IngestWebSocket = "websocket"
	IngestTCP       = "tcp"
	IngestRedis     = "redis"
	IngestMQTT      = "mqtt"
)

// MonitorService 监测服务：采集 -> 记录存储 -> 报警评估 -> 通知
type MonitorService struct {
	config     *config.Config
	logger     *zap.Logger
	db         *sql.DB
	redis      *redis.Client
	mqttClient *mqttcommon.Client

	store     *store.Store
	reader    reader.Reader
	evaluator *evaluator.Evaluator
	notifiers *notifier.Multi
	server    *http.Server
}

// NewMonitorService 创建监测服务，按配置连接 Redis、MQTT、PostgreSQL
func NewMonitorService(cfg *config.Config, logger *zap.Logger) (*MonitorService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := &MonitorService{
		config: cfg,
		logger: logger,
		store:  store.New(),
	}

	needRedis := cfg.Ingest.Mode == IngestRedis || cfg.Alert.Cache.Enabled
	if needRedis {
		client, err := rediscommon.Connect(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.redis = client
	}

	if cfg.Ingest.Mode == IngestMQTT {
		client, err := mqttcommon.NewClient(&cfg.MQTT, logger)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to connect to MQTT: %w", err)
		}
		s.mqttClient = client
	}

	var (
		cache   httpapi.AlertCache
		history httpapi.AlertHistory
	)

	s.notifiers = notifier.NewMulti(logger)
	s.notifiers.Add("log", notifier.NewLogNotifier(logger))

	if cfg.Alert.Cache.Enabled {
		cacheManager := consumer.NewCacheManager(cfg, s.redis, logger)
		s.notifiers.Add("redis_cache", cacheManager)
		cache = cacheManager
	}

	if cfg.Alert.PersistEnabled {
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db

		repo := repository.NewAlertEventsRepository(db, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to ensure alert event schema: %w", err)
		}
		s.notifiers.Add("postgres", repo)
		history = repo
	}

	if cfg.Alert.WebhookURL != "" {
		s.notifiers.Add("webhook", notifier.NewWebhookNotifier(cfg.Alert.WebhookURL, logger))
	}

	r, err := s.newReader()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.reader = r

	s.evaluator = evaluator.NewEvaluator(evaluator.Options{
		Priority:    cfg.Alert.Priority,
		RepeatCount: cfg.Alert.RepeatCount,
	}, s.notifiers, logger)

	handler := httpapi.NewHandler(s.store, s.evaluator, cache, history, logger)
	s.server = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpapi.NewRouter(handler, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// newReader 按采集模式创建读取器
func (s *MonitorService) newReader() (reader.Reader, error) {
	cfg := s.config
	switch cfg.Ingest.Mode {
	case IngestFile:
		return reader.NewFileDataReader(cfg.Ingest.Directory, s.logger), nil
	case IngestWebSocket:
		return reader.NewWebSocketDataReader(cfg.Ingest.URL, s.logger), nil
	case IngestTCP:
		return reader.NewTCPDataReader(cfg.Ingest.TCPAddr, s.logger), nil
	case IngestRedis:
		return reader.NewStreamReader(reader.StreamReaderConfig{
			Stream:        cfg.Ingest.Stream,
			ConsumerGroup: cfg.Ingest.ConsumerGroup,
			ConsumerName:  cfg.Ingest.ConsumerName,
			BatchSize:     cfg.Ingest.BatchSize,
		}, s.redis, s.logger), nil
	case IngestMQTT:
		return reader.NewMQTTReader(s.mqttClient, cfg.Ingest.MQTTTopic, s.logger).WithQoS(cfg.MQTT.QoS), nil
	default:
		return nil, fmt.Errorf("unknown ingest mode: %q", cfg.Ingest.Mode)
	}
}

// Store 记录存储
func (s *MonitorService) Store() *store.Store { return s.store }

// Run 并发运行读取器、周期评估和 HTTP 服务，阻塞到 ctx 取消或任一组件出错
// 读取器正常结束（文件读完、连接关闭）不会停止其他组件
func (s *MonitorService) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.reader.Start(gctx, s.store); err != nil {
			return fmt.Errorf("reader failed: %w", err)
		}
		s.logger.Info("Reader finished", zap.String("mode", s.config.Ingest.Mode))
		return nil
	})

	g.Go(func() error {
		s.evaluationLoop(gctx)
		return nil
	})

	g.Go(func() error {
		s.logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	s.logger.Info("Monitor service started",
		zap.String("ingest_mode", s.config.Ingest.Mode),
		zap.Int("notifier_count", s.notifiers.Len()),
		zap.Duration("evaluate_interval", s.config.Alert.EvaluateInterval),
	)

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// evaluationLoop 周期评估所有患者的全部历史
func (s *MonitorService) evaluationLoop(ctx context.Context) {
	interval := s.config.Alert.EvaluateInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			events := s.evaluator.EvaluateAll(ctx, s.store)
			if len(events) > 0 {
				s.logger.Info("Evaluation pass raised alerts", zap.Int("event_count", len(events)))
			}
		}
	}
}

// Close 关闭外部连接
func (s *MonitorService) Close() {
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.redis != nil {
		s.redis.Close()
	}
	if s.db != nil {
		database.Close(s.db)
	}
	s.logger.Info("Monitor service stopped")
}
