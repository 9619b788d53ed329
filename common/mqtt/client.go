package mqtt

import (
	"fmt"
	"sync"
	"time"

	"wisefido-vitals/common/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MessageHandler 消息处理函数；返回的错误只记录日志
type MessageHandler func(topic string, payload []byte) error

type subscription struct {
	qos     byte
	handler MessageHandler
}

// Client paho 客户端封装
// 使用 clean session，断线重连后由 OnConnect 重新订阅
type Client struct {
	client mqtt.Client
	config *config.MQTTConfig
	logger *zap.Logger

	mu   sync.Mutex
	subs map[string]subscription
}

// NewClient 创建客户端并连接 broker
func NewClient(cfg *config.MQTTConfig, logger *zap.Logger) (*Client, error) {
	c := &Client{
		config: cfg,
		logger: logger,
		subs:   make(map[string]subscription),
	}

	c.client = mqtt.NewClient(c.options())
	token := c.client.Connect()
	if !token.WaitTimeout(c.connectTimeout()) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	logger.Info("Connected to MQTT broker",
		zap.String("broker", cfg.Broker),
		zap.String("client_id", cfg.ClientID),
	)
	return c, nil
}

func (c *Client) connectTimeout() time.Duration {
	if c.config.ConnectTimeout > 0 {
		return c.config.ConnectTimeout
	}
	return 10 * time.Second
}

func (c *Client) options() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(c.config.Broker).
		SetClientID(c.config.ClientID).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetConnectTimeout(c.connectTimeout()).
		SetOnConnectHandler(func(mqtt.Client) { c.resubscribe() }).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			c.logger.Warn("MQTT connection lost", zap.Error(err))
		})

	if c.config.Username != "" {
		opts.SetUsername(c.config.Username)
	}
	if c.config.Password != "" {
		opts.SetPassword(c.config.Password)
	}
	return opts
}

// resubscribe 重连后恢复订阅；首次连接时 subs 为空
func (c *Client) resubscribe() {
	c.mu.Lock()
	subs := make(map[string]subscription, len(c.subs))
	for topic, s := range c.subs {
		subs[topic] = s
	}
	c.mu.Unlock()

	for topic, s := range subs {
		if err := c.subscribe(topic, s); err != nil {
			c.logger.Error("Failed to resubscribe", zap.String("topic", topic), zap.Error(err))
			continue
		}
		c.logger.Info("Resubscribed to MQTT topic", zap.String("topic", topic))
	}
}

func (c *Client) subscribe(topic string, s subscription) error {
	token := c.client.Subscribe(topic, s.qos, func(_ mqtt.Client, msg mqtt.Message) {
		if err := s.handler(msg.Topic(), msg.Payload()); err != nil {
			c.logger.Warn("Error handling MQTT message",
				zap.String("topic", msg.Topic()),
				zap.Error(err),
			)
		}
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}
	return nil
}

// Subscribe 订阅主题，并记录下来用于重连后恢复
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	s := subscription{qos: qos, handler: handler}
	if err := c.subscribe(topic, s); err != nil {
		return err
	}
	c.mu.Lock()
	c.subs[topic] = s
	c.mu.Unlock()
	return nil
}

// Publish 发布消息，最多等待 timeout
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte, timeout time.Duration) error {
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish to topic %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}
	return nil
}

// Unsubscribe 取消订阅并不再在重连后恢复
func (c *Client) Unsubscribe(topics ...string) error {
	c.mu.Lock()
	for _, topic := range topics {
		delete(c.subs, topic)
	}
	c.mu.Unlock()

	token := c.client.Unsubscribe(topics...)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return nil
}

// Disconnect 断开连接，最多等待 250ms 发送完未完成的消息
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

// IsConnected 当前是否已连接
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}
