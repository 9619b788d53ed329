package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wisefido-vitals/internal/config"
	"wisefido-vitals/internal/evaluator"
	"wisefido-vitals/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testMonitorConfig(mode string) *config.Config {
	cfg := &config.Config{}
	cfg.Ingest.Mode = mode
	cfg.Alert.EvaluateInterval = 20 * time.Millisecond
	cfg.Alert.Priority = "HIGH"
	cfg.Alert.RepeatCount = 3
	cfg.HTTP.Addr = "127.0.0.1:0"
	return cfg
}

func TestNewMonitorService_UnknownMode(t *testing.T) {
	_, err := NewMonitorService(testMonitorConfig("pigeon"), zap.NewNop())
	assert.ErrorContains(t, err, "unknown ingest mode")
}

func TestMonitor_FileIngestionAndEvaluation(t *testing.T) {
	dir := t.TempDir()
	ts := time.Now().Add(-time.Second).UnixMilli()
	lines := fmt.Sprintf(
		"Patient ID: 1, Timestamp: %d, Label: %s, Data: 45.0\n"+
			"not a record\n"+
			"Patient ID: 2, Timestamp: %d, Label: %s, Data: 97.0%%\n",
		ts, models.LabelHeartRate, ts, models.LabelSaturation,
	)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "records.txt"), []byte(lines), 0o644))

	cfg := testMonitorConfig(IngestFile)
	cfg.Ingest.Directory = dir

	core, logs := observer.New(zapcore.InfoLevel)
	s, err := NewMonitorService(cfg, zap.New(core))
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(s.Store().GetAllPatients()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	records := s.Store().GetRecords(2, 0, time.Now().UnixMilli())
	require.Len(t, records, 1)
	assert.Equal(t, 97.0, records[0].Value)

	// 心率 45 触发报警，经日志通知器输出
	require.Eventually(t, func() bool {
		return logs.FilterField(zap.String("condition", evaluator.ConditionAbnormalHeartRate)).Len() > 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestMonitor_ReaderErrorStopsRun(t *testing.T) {
	cfg := testMonitorConfig(IngestFile)
	cfg.Ingest.Directory = filepath.Join(t.TempDir(), "missing")

	s, err := NewMonitorService(cfg, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "reader failed")
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}
}
