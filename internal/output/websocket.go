package output

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"wisefido-vitals/internal/metrics"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketSink WebSocket 广播输出（每条测量一帧，发送给所有已连接客户端）
type WebSocketSink struct {
	listener     net.Listener
	server       *http.Server
	upgrader     websocket.Upgrader
	logger       *zap.Logger
	writeTimeout time.Duration

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool
}

// NewWebSocketSink 在 addr（如 ":8887"）上启动 WebSocket 服务
func NewWebSocketSink(addr string, logger *zap.Logger) (*WebSocketSink, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &WebSocketSink{
		listener:     listener,
		logger:       logger,
		writeTimeout: 5 * time.Second,
		clients:      make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("WebSocket server stopped", zap.Error(err))
		}
	}()

	logger.Info("WebSocket server started", zap.String("addr", listener.Addr().String()))

	return s, nil
}

// Addr 实际监听地址
func (s *WebSocketSink) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *WebSocketSink) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[conn] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()

	s.logger.Info("New WebSocket connection",
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.Int("client_count", count),
	)

	go s.readLoop(conn)
}

// readLoop 只用于感知客户端关闭（客户端发来的数据被忽略）
func (s *WebSocketSink) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.removeClient(conn)
			s.logger.Info("WebSocket connection closed",
				zap.String("remote_addr", conn.RemoteAddr().String()),
			)
			return
		}
	}
}

func (s *WebSocketSink) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// ClientCount 当前客户端数量
func (s *WebSocketSink) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *WebSocketSink) Output(patientID int, timestamp int64, label string, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.clients) == 0 {
		return
	}

	message := []byte(FormatLine(patientID, timestamp, label, data))
	for conn := range s.clients {
		conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			s.logger.Warn("Failed to send WebSocket message, dropping client",
				zap.String("remote_addr", conn.RemoteAddr().String()),
				zap.Error(err),
			)
			metrics.SinkErrors.WithLabelValues("websocket").Inc()
			delete(s.clients, conn)
			conn.Close()
		}
	}
}

func (s *WebSocketSink) Close() error {
	s.mu.Lock()
	s.closed = true
	for conn := range s.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(time.Second),
		)
		conn.Close()
		delete(s.clients, conn)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown WebSocket server: %w", err)
	}
	return nil
}
