// Package reader 把外部数据流还原为测量记录并写入记录存储
//
// 单条格式错误的行/消息只会被记录日志并丢弃，不影响后续处理；
// 只有建立数据源失败（目录不可读、连接失败、订阅失败）才会返回错误。
package reader

import (
	"context"
	"sync"
	"time"

	"wisefido-vitals/internal/metrics"
	"wisefido-vitals/internal/models"

	"go.uber.org/zap"
)

// RecordSink 记录写入目标（由 store.Store 实现）
type RecordSink interface {
	AddPatientData(patientID int, value float64, recordType string, timestamp int64)
}

// Reader 数据源
type Reader interface {
	// Start 阻塞读取直到数据源结束或 ctx 取消
	Start(ctx context.Context, dst RecordSink) error
}

// Stats 读取统计
type Stats struct {
	mu sync.RWMutex

	Processed int64 // 收到的单元（行/消息）
	Ingested  int64 // 写入存储的记录
	Dropped   int64 // 格式错误被丢弃的单元

	LastIngestTime time.Time
	StartTime      time.Time
}

// GetSnapshot 获取统计快照（线程安全）
func (s *Stats) GetSnapshot() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Processed:      s.Processed,
		Ingested:       s.Ingested,
		Dropped:        s.Dropped,
		LastIngestTime: s.LastIngestTime,
		StartTime:      s.StartTime,
	}
}

func (s *Stats) incrementIngested() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Processed++
	s.Ingested++
	s.LastIngestTime = time.Now()
}

func (s *Stats) incrementDropped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Processed++
	s.Dropped++
}

// ingester 各数据源共用的解析-写入逻辑
type ingester struct {
	name   string
	logger *zap.Logger
	stats  *Stats
}

func newIngester(name string, logger *zap.Logger) ingester {
	return ingester{
		name:   name,
		logger: logger,
		stats:  &Stats{StartTime: time.Now()},
	}
}

// Stats 读取统计快照
func (i *ingester) Stats() Stats {
	return i.stats.GetSnapshot()
}

// ingest 解析一个单元并写入；格式错误时记录日志并返回错误
func (i *ingester) ingest(dst RecordSink, raw string, parse func(string) (models.PatientRecord, error)) error {
	r, err := parse(raw)
	if err != nil {
		i.stats.incrementDropped()
		metrics.IngestDropped.WithLabelValues(i.name).Inc()
		i.logger.Warn("Dropping malformed input",
			zap.String("reader", i.name),
			zap.String("input", truncate(raw, 256)),
			zap.Error(err),
		)
		return err
	}

	dst.AddPatientData(r.PatientID, r.Value, r.RecordType, r.Timestamp)
	i.stats.incrementIngested()
	metrics.RecordsIngested.WithLabelValues(i.name).Inc()
	return nil
}

// dropOversize 记录一条超长被丢弃的行
func (i *ingester) dropOversize(limit int) {
	i.stats.incrementDropped()
	metrics.IngestDropped.WithLabelValues(i.name).Inc()
	i.logger.Warn("Dropping oversized line",
		zap.String("reader", i.name),
		zap.Int("limit_bytes", limit),
	)
}

// reportStats 定期输出统计（interval <= 0 时不输出）
func (i *ingester) reportStats(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshot := i.stats.GetSnapshot()
			i.logger.Info("Reader stats",
				zap.String("reader", i.name),
				zap.Int64("processed", snapshot.Processed),
				zap.Int64("ingested", snapshot.Ingested),
				zap.Int64("dropped", snapshot.Dropped),
				zap.Duration("uptime", time.Since(snapshot.StartTime)),
			)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
