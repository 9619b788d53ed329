package reader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketDataReader 实时读取 WebSocket 消息；连接断开后不自动重连
type WebSocketDataReader struct {
	ingester
	url           string
	dialer        *websocket.Dialer
	statsInterval time.Duration
}

// NewWebSocketDataReader 创建 WebSocket 读取器
func NewWebSocketDataReader(url string, logger *zap.Logger) *WebSocketDataReader {
	return &WebSocketDataReader{
		ingester:      newIngester("websocket", logger),
		url:           url,
		dialer:        &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		statsInterval: 60 * time.Second,
	}
}

// Start 连接服务端并读取消息，直到连接关闭或 ctx 取消
func (r *WebSocketDataReader) Start(ctx context.Context, dst RecordSink) error {
	conn, _, err := r.dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to WebSocket server %s: %w", r.url, err)
	}
	defer conn.Close()

	r.logger.Info("Connected to WebSocket server", zap.String("url", r.url))

	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go r.reportStats(readCtx, r.statsInterval)
	go func() {
		<-readCtx.Done()
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				r.logger.Warn("WebSocket connection closed",
					zap.Int("code", closeErr.Code),
					zap.String("reason", closeErr.Text),
				)
			} else {
				r.logger.Error("WebSocket error", zap.Error(err))
			}
			return nil
		}
		r.HandleMessage(dst, message)
	}
}

// HandleMessage 处理一条消息；nil 或空消息、格式错误的消息被丢弃
func (r *WebSocketDataReader) HandleMessage(dst RecordSink, message []byte) {
	r.ingest(dst, string(message), ParseMessage)
}
