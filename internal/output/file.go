package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"wisefido-vitals/internal/metrics"

	"go.uber.org/zap"
)

// labelFile 单个标签对应的输出文件
type labelFile struct {
	path string
	mu   sync.Mutex
}

// FileSink 按标签写入 {baseDirectory}/{label}.txt，每次写入都是 打开-追加-关闭
type FileSink struct {
	baseDirectory string
	logger        *zap.Logger
	files         sync.Map // label -> *labelFile
}

// NewFileSink 创建文件输出端（目录不存在时创建，失败即返回错误）
func NewFileSink(baseDirectory string, logger *zap.Logger) (*FileSink, error) {
	if baseDirectory == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := os.MkdirAll(baseDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", baseDirectory, err)
	}

	return &FileSink{
		baseDirectory: baseDirectory,
		logger:        logger,
	}, nil
}

// fileFor 获取标签对应的文件（并发安全，首次使用时创建）
func (s *FileSink) fileFor(label string) *labelFile {
	if f, ok := s.files.Load(label); ok {
		return f.(*labelFile)
	}
	f, _ := s.files.LoadOrStore(label, &labelFile{
		path: filepath.Join(s.baseDirectory, label+".txt"),
	})
	return f.(*labelFile)
}

func (s *FileSink) Output(patientID int, timestamp int64, label string, data string) {
	if label == "" || strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		s.logger.Warn("Invalid label for file output", zap.String("label", label))
		metrics.SinkErrors.WithLabelValues("file").Inc()
		return
	}

	f := s.fileFor(label)
	f.mu.Lock()
	defer f.mu.Unlock()

	out, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		s.logger.Error("Failed to open output file",
			zap.String("path", f.path),
			zap.Error(err),
		)
		metrics.SinkErrors.WithLabelValues("file").Inc()
		return
	}
	defer out.Close()

	if _, err := fmt.Fprintln(out, FormatRecord(patientID, timestamp, label, data)); err != nil {
		s.logger.Error("Failed to write output file",
			zap.String("path", f.path),
			zap.Error(err),
		)
		metrics.SinkErrors.WithLabelValues("file").Inc()
	}
}

// Path 标签对应的文件路径
func (s *FileSink) Path(label string) string {
	return filepath.Join(s.baseDirectory, label+".txt")
}

func (s *FileSink) Close() error {
	return nil
}
