package generator

import (
	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/output"

	"go.uber.org/zap"
)

// BloodLevelsGenerator 血液指标：构造时确定基线，每次输出基线加对称小幅抖动
type BloodLevelsGenerator struct {
	base
	cholesterol []float64
	whiteCells  []float64
	redCells    []float64
}

// NewBloodLevelsGenerator 创建血液指标生成器
// 基线：胆固醇 [150,200]，白细胞 [4,10]，红细胞 [4.5,6.0]
func NewBloodLevelsGenerator(patientCount int, logger *zap.Logger) *BloodLevelsGenerator {
	g := &BloodLevelsGenerator{
		base:        newBase("blood_levels", patientCount, logger),
		cholesterol: make([]float64, patientCount+1),
		whiteCells:  make([]float64, patientCount+1),
		redCells:    make([]float64, patientCount+1),
	}
	for i := 1; i <= patientCount; i++ {
		g.cholesterol[i] = 150 + g.randFloat()*50
		g.whiteCells[i] = 4 + g.randFloat()*6
		g.redCells[i] = 4.5 + g.randFloat()*1.5
	}
	return g
}

func (g *BloodLevelsGenerator) Generate(patientID int, sink output.Sink) {
	defer g.recoverPanic(patientID)
	if !g.validPatient(patientID) {
		return
	}

	cholesterol := g.cholesterol[patientID] + (g.randFloat()-0.5)*10
	whiteCells := g.whiteCells[patientID] + (g.randFloat()-0.5)*1
	redCells := g.redCells[patientID] + (g.randFloat()-0.5)*0.2

	now := g.nowMillis()
	g.emit(sink, patientID, now, models.LabelCholesterol, formatFloat(cholesterol))
	g.emit(sink, patientID, now, models.LabelWhiteBloodCells, formatFloat(whiteCells))
	g.emit(sink, patientID, now, models.LabelRedBloodCells, formatFloat(redCells))
}
