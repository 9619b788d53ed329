package generator

import (
	"math"

	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/output"

	"go.uber.org/zap"
)

// ECGGenerator 心电波形：P 波、QRS 波群、T 波三个正弦分量叠加并加入少量噪声
type ECGGenerator struct {
	base
}

// NewECGGenerator 创建心电生成器
func NewECGGenerator(patientCount int, logger *zap.Logger) *ECGGenerator {
	return &ECGGenerator{
		base: newBase("ecg", patientCount, logger),
	}
}

func (g *ECGGenerator) Generate(patientID int, sink output.Sink) {
	defer g.recoverPanic(patientID)
	if !g.validPatient(patientID) {
		return
	}

	now := g.now()
	value := g.sample(float64(now.UnixMilli()) / 1000.0)

	g.emit(sink, patientID, now.UnixMilli(), models.LabelECG, formatFloat(value))
}

// sample 在 t 秒处采样；心率每次重新在 [60,80) bpm 内随机
func (g *ECGGenerator) sample(t float64) float64 {
	hr := 60.0 + g.randFloat()*20.0
	f := hr / 60.0

	pWave := 0.1 * math.Sin(2*math.Pi*f*t)
	qrs := 0.5 * math.Sin(2*math.Pi*3*f*t)
	tWave := 0.2 * math.Sin(2*math.Pi*2*f*t+math.Pi/4)

	return pWave + qrs + tWave + g.randFloat()*0.05
}
