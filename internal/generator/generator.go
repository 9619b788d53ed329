// Package generator 模拟生命体征数据生成器
//
// 每个生成器在构造时为患者 1..N 初始化私有基线，Generate 只读写本生成器、本患者的状态。
// 调度器保证同一生成器对同一患者的调用不会并发，不同患者之间可以并发。
package generator

import (
	"math/rand/v2"
	"strconv"
	"time"

	"wisefido-vitals/internal/metrics"
	"wisefido-vitals/internal/output"

	"go.uber.org/zap"
)

// Generator 生命体征生成器
type Generator interface {
	// Name 生成器名称（用于调度与日志）
	Name() string
	// Generate 生成患者的下一组数据并推送到输出端；不会 panic，错误只记录日志
	Generate(patientID int, sink output.Sink)
}

// base 生成器公共部分
type base struct {
	name         string
	patientCount int
	logger       *zap.Logger

	now       func() time.Time
	randFloat func() float64
	randIntN  func(n int) int
}

func newBase(name string, patientCount int, logger *zap.Logger) base {
	return base{
		name:         name,
		patientCount: patientCount,
		logger:       logger,
		now:          time.Now,
		randFloat:    rand.Float64,
		randIntN:     rand.IntN,
	}
}

func (b *base) Name() string { return b.name }

// validPatient 患者 ID 必须在 1..N 内
func (b *base) validPatient(patientID int) bool {
	if patientID < 1 || patientID > b.patientCount {
		b.logger.Warn("Patient ID out of range, skipping generation",
			zap.String("generator", b.name),
			zap.Int("patient_id", patientID),
			zap.Int("patient_count", b.patientCount),
		)
		return false
	}
	return true
}

// recoverPanic 捕获生成过程中的 panic，记录日志后返回
func (b *base) recoverPanic(patientID int) {
	if r := recover(); r != nil {
		b.logger.Error("An error occurred while generating data",
			zap.String("generator", b.name),
			zap.Int("patient_id", patientID),
			zap.Any("panic", r),
		)
	}
}

func (b *base) emit(sink output.Sink, patientID int, timestamp int64, label, data string) {
	sink.Output(patientID, timestamp, label, data)
	metrics.MeasurementsEmitted.WithLabelValues(label).Inc()
}

func (b *base) nowMillis() int64 {
	return b.now().UnixMilli()
}

// formatFloat 浮点数的最短文本表示（整数值保留一位小数，如 97.0）
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}
	return s + ".0"
}

// NewGenerators 为 patientCount 个患者创建五个生成器
func NewGenerators(patientCount int, logger *zap.Logger) []Generator {
	return []Generator{
		NewECGGenerator(patientCount, logger),
		NewBloodSaturationGenerator(patientCount, logger),
		NewBloodPressureGenerator(patientCount, nil, logger),
		NewBloodLevelsGenerator(patientCount, logger),
		NewAlertGenerator(patientCount, logger),
	}
}
