package generator

import (
	"strconv"

	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/output"
	"wisefido-vitals/internal/rules"

	"go.uber.org/zap"
)

// 血压范围
const (
	SystolicMin  = 90
	SystolicMax  = 180
	DiastolicMin = 60
	DiastolicMax = 120

	// BloodPressureAlertMessage 血压报警事件的固定内容
	BloodPressureAlertMessage = "ALERT: Critical blood pressure detected!"
)

// BloodPressureGenerator 血压随机游走（每次 ±2），输出后用注入的规则判断是否报警
type BloodPressureGenerator struct {
	base
	rule          rules.AlertRule
	lastSystolic  []int
	lastDiastolic []int
}

// NewBloodPressureGenerator 创建血压生成器；rule 为 nil 时使用 rules.BloodPressureRule
func NewBloodPressureGenerator(patientCount int, rule rules.AlertRule, logger *zap.Logger) *BloodPressureGenerator {
	if rule == nil {
		rule = rules.BloodPressureRule
	}
	g := &BloodPressureGenerator{
		base:          newBase("blood_pressure", patientCount, logger),
		rule:          rule,
		lastSystolic:  make([]int, patientCount+1),
		lastDiastolic: make([]int, patientCount+1),
	}
	for i := 1; i <= patientCount; i++ {
		g.lastSystolic[i] = 110 + g.randIntN(20)
		g.lastDiastolic[i] = 70 + g.randIntN(15)
	}
	return g
}

func (g *BloodPressureGenerator) Generate(patientID int, sink output.Sink) {
	defer g.recoverPanic(patientID)
	if !g.validPatient(patientID) {
		return
	}

	systolic := clamp(g.lastSystolic[patientID]+g.randIntN(5)-2, SystolicMin, SystolicMax)
	diastolic := clamp(g.lastDiastolic[patientID]+g.randIntN(5)-2, DiastolicMin, DiastolicMax)
	g.lastSystolic[patientID] = systolic
	g.lastDiastolic[patientID] = diastolic

	now := g.nowMillis()
	g.emit(sink, patientID, now, models.LabelSystolicPressure, strconv.Itoa(systolic))
	g.emit(sink, patientID, now, models.LabelDiastolicPressure, strconv.Itoa(diastolic))

	if g.rule.CheckAlert(patientID, float64(systolic), float64(diastolic)) {
		g.emit(sink, patientID, now, models.LabelBloodPressureAlert, BloodPressureAlertMessage)
	}
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
