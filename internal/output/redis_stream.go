package output

import (
	"context"
	"time"

	rediscommon "wisefido-vitals/common/redis"
	"wisefido-vitals/internal/metrics"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStreamSink 将测量写入 Redis Streams（XADD）
type RedisStreamSink struct {
	client  *redis.Client
	stream  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewRedisStreamSink 创建 Redis Streams 输出端（client 由调用方管理生命周期）
func NewRedisStreamSink(client *redis.Client, stream string, logger *zap.Logger) *RedisStreamSink {
	return &RedisStreamSink{
		client:  client,
		stream:  stream,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

func (s *RedisStreamSink) Output(patientID int, timestamp int64, label string, data string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := rediscommon.PublishToStream(ctx, s.client, s.stream, map[string]interface{}{
		"patient_id": patientID,
		"timestamp":  timestamp,
		"label":      label,
		"data":       data,
	})
	if err != nil {
		s.logger.Warn("Failed to publish measurement to Redis Streams",
			zap.String("stream", s.stream),
			zap.Int("patient_id", patientID),
			zap.String("label", label),
			zap.Error(err),
		)
		metrics.SinkErrors.WithLabelValues("redis").Inc()
	}
}

func (s *RedisStreamSink) Close() error {
	return nil
}
