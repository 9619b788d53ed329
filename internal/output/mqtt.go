package output

import (
	"fmt"
	"time"

	"wisefido-vitals/internal/metrics"

	"go.uber.org/zap"
)

// Publisher MQTT 发布接口（由 common/mqtt.Client 实现，测试中可替换）
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte, timeout time.Duration) error
}

// MQTTSink 将测量发布到 {prefix}/{patientId}/{label}
type MQTTSink struct {
	publisher Publisher
	prefix    string
	qos       byte
	timeout   time.Duration
	logger    *zap.Logger
}

// NewMQTTSink 创建 MQTT 输出端
func NewMQTTSink(publisher Publisher, prefix string, logger *zap.Logger) *MQTTSink {
	return &MQTTSink{
		publisher: publisher,
		prefix:    prefix,
		qos:       0,
		timeout:   2 * time.Second,
		logger:    logger,
	}
}

// Topic 测量对应的主题
func (s *MQTTSink) Topic(patientID int, label string) string {
	return fmt.Sprintf("%s/%d/%s", s.prefix, patientID, label)
}

func (s *MQTTSink) Output(patientID int, timestamp int64, label string, data string) {
	topic := s.Topic(patientID, label)
	payload := []byte(FormatLine(patientID, timestamp, label, data))
	if err := s.publisher.Publish(topic, s.qos, false, payload, s.timeout); err != nil {
		s.logger.Warn("Failed to publish measurement to MQTT",
			zap.String("topic", topic),
			zap.Error(err),
		)
		metrics.SinkErrors.WithLabelValues("mqtt").Inc()
	}
}

func (s *MQTTSink) Close() error {
	return nil
}
