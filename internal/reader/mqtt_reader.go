package reader

import (
	"context"
	"fmt"

	mqttcommon "wisefido-vitals/common/mqtt"

	"go.uber.org/zap"
)

// Subscriber MQTT 订阅接口（由 common/mqtt.Client 实现）
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// MQTTReader 订阅 {prefix}/+/+，每条消息按实时格式解析
type MQTTReader struct {
	ingester
	subscriber Subscriber
	topic      string
	qos        byte
}

// NewMQTTReader 创建 MQTT 读取器
func NewMQTTReader(subscriber Subscriber, prefix string, logger *zap.Logger) *MQTTReader {
	return &MQTTReader{
		ingester:   newIngester("mqtt", logger),
		subscriber: subscriber,
		topic:      prefix + "/+/+",
		qos:        1,
	}
}

// WithQoS 设置订阅 QoS（默认 1）
func (r *MQTTReader) WithQoS(qos byte) *MQTTReader {
	r.qos = qos
	return r
}

// Topic 订阅的主题
func (r *MQTTReader) Topic() string { return r.topic }

// Start 订阅并阻塞到 ctx 取消，退出时取消订阅
func (r *MQTTReader) Start(ctx context.Context, dst RecordSink) error {
	if err := r.subscriber.Subscribe(r.topic, r.qos, r.handler(dst)); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.topic, err)
	}

	r.logger.Info("MQTT reader started", zap.String("topic", r.topic))

	<-ctx.Done()

	if err := r.subscriber.Unsubscribe(r.topic); err != nil {
		r.logger.Error("Failed to unsubscribe", zap.Error(err))
	}
	r.logger.Info("MQTT reader stopped")
	return nil
}

func (r *MQTTReader) handler(dst RecordSink) mqttcommon.MessageHandler {
	return func(topic string, payload []byte) error {
		r.logger.Debug("Received MQTT message",
			zap.String("topic", topic),
			zap.Int("payload_size", len(payload)),
		)
		// 格式错误已在 ingest 中记录，不再向客户端返回错误
		r.ingest(dst, string(payload), ParseMessage)
		return nil
	}
}
