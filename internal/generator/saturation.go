package generator

import (
	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/output"

	"go.uber.org/zap"
)

// 血氧范围
const (
	SaturationMin = 90
	SaturationMax = 100
)

// BloodSaturationGenerator 血氧随机游走（每次 -1/0/+1），以百分比字符串输出
type BloodSaturationGenerator struct {
	base
	lastValues []int
}

// NewBloodSaturationGenerator 创建血氧生成器，初始值 [95,100]
func NewBloodSaturationGenerator(patientCount int, logger *zap.Logger) *BloodSaturationGenerator {
	g := &BloodSaturationGenerator{
		base:       newBase("saturation", patientCount, logger),
		lastValues: make([]int, patientCount+1),
	}
	for i := 1; i <= patientCount; i++ {
		g.lastValues[i] = 95 + g.randIntN(6)
	}
	return g
}

func (g *BloodSaturationGenerator) Generate(patientID int, sink output.Sink) {
	defer g.recoverPanic(patientID)
	if !g.validPatient(patientID) {
		return
	}

	value := clamp(g.lastValues[patientID]+g.randIntN(3)-1, SaturationMin, SaturationMax)
	g.lastValues[patientID] = value

	g.emit(sink, patientID, g.nowMillis(), models.LabelSaturation, formatFloat(float64(value))+"%")
}
