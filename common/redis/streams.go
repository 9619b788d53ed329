package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// StreamMessage Redis Streams 消息
type StreamMessage struct {
	Stream string
	ID     string
	Values map[string]interface{}
}

// String 读取字符串字段，不存在或类型不符返回 false
func (m StreamMessage) String(field string) (string, bool) {
	val, ok := m.Values[field]
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// PublishToStream 发布消息到 Redis Streams（值统一转换为字符串）
func PublishToStream(ctx context.Context, client *redis.Client, stream string, values map[string]interface{}) (string, error) {
	streamValues := make(map[string]interface{}, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case string:
			streamValues[k] = val
		case []byte:
			streamValues[k] = string(val)
		case int:
			streamValues[k] = strconv.Itoa(val)
		case int64:
			streamValues[k] = strconv.FormatInt(val, 10)
		case float64:
			streamValues[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			streamValues[k] = strconv.FormatBool(val)
		default:
			streamValues[k] = fmt.Sprint(val)
		}
	}

	return client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: streamValues,
	}).Result()
}

// ReadFromStream 以消费者组方式读取消息
// block 为 0 时使用默认的 5 秒阻塞
func ReadFromStream(ctx context.Context, client *redis.Client, stream, consumerGroup, consumer string, count int64, block time.Duration) ([]StreamMessage, error) {
	if block <= 0 {
		block = 5 * time.Second
	}

	streams, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    consumerGroup,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []StreamMessage{}, nil
		}
		return nil, err
	}

	var messages []StreamMessage
	for _, s := range streams {
		for _, msg := range s.Messages {
			messages = append(messages, StreamMessage{
				Stream: s.Stream,
				ID:     msg.ID,
				Values: msg.Values,
			})
		}
	}

	return messages, nil
}

// Ack 确认消息已处理
func Ack(ctx context.Context, client *redis.Client, stream, consumerGroup string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return client.XAck(ctx, stream, consumerGroup, ids...).Err()
}

// CreateConsumerGroup 创建消费者组（stream 不存在时一并创建，组已存在视为成功）
func CreateConsumerGroup(ctx context.Context, client *redis.Client, stream string, groupName string) error {
	err := client.XGroupCreateMkStream(ctx, stream, groupName, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s: %w", groupName, err)
	}
	return nil
}
