package reader

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// TCPDataReader 连接 TCP 输出端，按行读取实时格式的数据
type TCPDataReader struct {
	ingester
	addr         string
	dialTimeout  time.Duration
	maxLineBytes int
}

// NewTCPDataReader 创建 TCP 读取器
func NewTCPDataReader(addr string, logger *zap.Logger) *TCPDataReader {
	return &TCPDataReader{
		ingester:    newIngester("tcp", logger),
		addr:         addr,
		dialTimeout:  10 * time.Second,
		maxLineBytes: DefaultMaxLineBytes,
	}
}

// Start 连接并读取，直到对端关闭或 ctx 取消
func (r *TCPDataReader) Start(ctx context.Context, dst RecordSink) error {
	dialer := net.Dialer{Timeout: r.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", r.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", r.addr, err)
	}
	defer conn.Close()

	r.logger.Info("Connected to TCP server", zap.String("addr", r.addr))

	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-readCtx.Done()
		conn.Close()
	}()

	// 超长行只丢弃该行，不断开连接
	splitter := &lineSplitter{
		max:        r.maxLineBytes,
		onOversize: func() { r.dropOversize(r.maxLineBytes) },
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, min(4096, r.maxLineBytes)), r.maxLineBytes)
	scanner.Split(splitter.split)
	for scanner.Scan() {
		r.ingest(dst, scanner.Text(), ParseMessage)
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		r.logger.Error("TCP connection error", zap.Error(err))
		return nil
	}

	r.logger.Info("TCP connection closed", zap.String("addr", r.addr))
	return nil
}
