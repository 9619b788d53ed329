package reader

import (
	"context"
	"fmt"
	"time"

	rediscommon "wisefido-vitals/common/redis"
	"wisefido-vitals/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// StreamReaderConfig Redis Streams 读取配置
type StreamReaderConfig struct {
	Stream        string
	ConsumerGroup string
	ConsumerName  string
	BatchSize     int64
	Block         time.Duration
}

// StreamReader 以消费者组方式读取 Redis Streams
// 每条消息处理后都会 ACK（包括格式错误的消息），失败时指数退避重试
type StreamReader struct {
	ingester
	cfg         StreamReaderConfig
	redisClient *redis.Client

	initialBackoff time.Duration
	maxBackoff     time.Duration
	statsInterval  time.Duration
}

// NewStreamReader 创建 Streams 读取器
func NewStreamReader(cfg StreamReaderConfig, redisClient *redis.Client, logger *zap.Logger) *StreamReader {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &StreamReader{
		ingester:       newIngester("redis", logger),
		cfg:            cfg,
		redisClient:    redisClient,
		initialBackoff: time.Second,
		maxBackoff:     30 * time.Second,
		statsInterval:  60 * time.Second,
	}
}

// Start 启动消费循环，直到 ctx 取消
func (r *StreamReader) Start(ctx context.Context, dst RecordSink) error {
	if err := rediscommon.CreateConsumerGroup(ctx, r.redisClient, r.cfg.Stream, r.cfg.ConsumerGroup); err != nil {
		return fmt.Errorf("failed to create consumer group for %s: %w", r.cfg.Stream, err)
	}

	r.logger.Info("Stream reader started",
		zap.String("consumer_group", r.cfg.ConsumerGroup),
		zap.String("consumer_name", r.cfg.ConsumerName),
		zap.String("stream", r.cfg.Stream),
	)

	statsCtx, statsCancel := context.WithCancel(ctx)
	defer statsCancel()
	go r.reportStats(statsCtx, r.statsInterval)

	backoff := r.initialBackoff
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := r.consumeStream(ctx, dst); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error("Failed to consume stream",
				zap.Error(err),
				zap.Duration("backoff", backoff),
			)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
				backoff *= 2
				if backoff > r.maxBackoff {
					backoff = r.maxBackoff
				}
			}
		} else {
			backoff = r.initialBackoff
		}
	}
}

// consumeStream 读取并处理一批消息
func (r *StreamReader) consumeStream(ctx context.Context, dst RecordSink) error {
	messages, err := rediscommon.ReadFromStream(ctx, r.redisClient,
		r.cfg.Stream, r.cfg.ConsumerGroup, r.cfg.ConsumerName,
		r.cfg.BatchSize, r.cfg.Block,
	)
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		r.HandleMessage(dst, msg)
		ids = append(ids, msg.ID)
	}

	if err := rediscommon.Ack(ctx, r.redisClient, r.cfg.Stream, r.cfg.ConsumerGroup, ids...); err != nil {
		return fmt.Errorf("failed to ack messages: %w", err)
	}
	return nil
}

// HandleMessage 处理单条 Streams 消息（字段 patient_id, timestamp, label, data）
func (r *StreamReader) HandleMessage(dst RecordSink, msg rediscommon.StreamMessage) {
	r.ingest(dst, msg.ID, func(string) (models.PatientRecord, error) {
		patientID, ok1 := msg.String("patient_id")
		timestamp, ok2 := msg.String("timestamp")
		label, ok3 := msg.String("label")
		data, ok4 := msg.String("data")
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return models.PatientRecord{}, fmt.Errorf("%w: missing field in stream message", ErrMalformed)
		}
		return ParseFields(patientID, timestamp, label, data)
	})
}
