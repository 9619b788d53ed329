package output

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"wisefido-vitals/internal/metrics"

	"go.uber.org/zap"
)

// TCPSink 单客户端 TCP 流式输出
// 后台协程只接受一个客户端；客户端连接前的数据直接丢弃
type TCPSink struct {
	listener     net.Listener
	logger       *zap.Logger
	writeTimeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	closed bool

	acceptDone chan struct{}
}

// NewTCPSink 在 addr（如 ":8888"）上监听，监听失败返回错误
func NewTCPSink(addr string, logger *zap.Logger) (*TCPSink, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &TCPSink{
		listener:     listener,
		logger:       logger,
		writeTimeout: 5 * time.Second,
		acceptDone:   make(chan struct{}),
	}

	logger.Info("TCP server started", zap.String("addr", listener.Addr().String()))

	// 在后台接受客户端，不阻塞调度任务
	go s.acceptClient()

	return s, nil
}

// Addr 实际监听地址
func (s *TCPSink) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *TCPSink) acceptClient() {
	defer close(s.acceptDone)

	conn, err := s.listener.Accept()
	if err != nil {
		if !errors.Is(err, net.ErrClosed) {
			s.logger.Error("Failed to accept TCP client", zap.Error(err))
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		conn.Close()
		return
	}
	s.conn = conn

	s.logger.Info("Client connected", zap.String("remote_addr", conn.RemoteAddr().String()))
}

// Connected 是否已有客户端
func (s *TCPSink) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *TCPSink) Output(patientID int, timestamp int64, label string, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if _, err := io.WriteString(s.conn, FormatLine(patientID, timestamp, label, data)+"\n"); err != nil {
		// 客户端已断开，不再接受新客户端
		s.logger.Warn("Failed to write to TCP client, dropping connection",
			zap.Int("patient_id", patientID),
			zap.Error(err),
		)
		metrics.SinkErrors.WithLabelValues("tcp").Inc()
		s.conn.Close()
		s.conn = nil
	}
}

func (s *TCPSink) Close() error {
	s.mu.Lock()
	s.closed = true
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()

	err := s.listener.Close()
	<-s.acceptDone
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close TCP listener: %w", err)
	}
	return nil
}
