package reader

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileDataReader 批量读取目录下所有普通文件的每一行
type FileDataReader struct {
	ingester
	directory string
}

// NewFileDataReader 创建文件读取器
func NewFileDataReader(directory string, logger *zap.Logger) *FileDataReader {
	return &FileDataReader{
		ingester:  newIngester("file", logger),
		directory: directory,
	}
}

// Start 实现 Reader，读取一遍后返回
func (r *FileDataReader) Start(ctx context.Context, dst RecordSink) error {
	return r.ReadData(ctx, dst)
}

// ReadData 读取目录；目录无法打开时返回错误，单个文件或行的错误只记录日志
func (r *FileDataReader) ReadData(ctx context.Context, dst RecordSink) error {
	entries, err := os.ReadDir(r.directory)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", r.directory, err)
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil
		}
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(r.directory, entry.Name())
		if err := r.readFile(ctx, path, dst); err != nil {
			r.logger.Error("Failed to read file",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}

	snapshot := r.Stats()
	r.logger.Info("File ingestion finished",
		zap.String("directory", r.directory),
		zap.Int64("ingested", snapshot.Ingested),
		zap.Int64("dropped", snapshot.Dropped),
	)
	return nil
}

func (r *FileDataReader) readFile(ctx context.Context, path string, dst RecordSink) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		r.ingest(dst, line, ParseFileLine)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to scan file: %w", err)
	}
	return nil
}
