package generator

import (
	"math"

	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/output"

	"go.uber.org/zap"
)

// 报警按钮状态
const (
	AlertTriggered = "triggered"
	AlertResolved  = "resolved"

	alertLambda        = 0.1 // 每个周期的平均报警次数
	alertResolveChance = 0.9
)

// AlertGenerator 报警按钮两态机：Resolved（初始）/ Pressed
// Resolved 时以 1-e^(-λ) 的概率触发，Pressed 时以 0.9 的概率解除
type AlertGenerator struct {
	base
	pressed []bool
}

// NewAlertGenerator 创建报警按钮生成器，所有患者初始为 Resolved
func NewAlertGenerator(patientCount int, logger *zap.Logger) *AlertGenerator {
	return &AlertGenerator{
		base:    newBase("alert", patientCount, logger),
		pressed: make([]bool, patientCount+1),
	}
}

// TriggerProbability Resolved 状态下单个周期触发的概率
func TriggerProbability() float64 {
	return -math.Expm1(-alertLambda)
}

func (g *AlertGenerator) Generate(patientID int, sink output.Sink) {
	defer g.recoverPanic(patientID)
	if !g.validPatient(patientID) {
		return
	}

	if g.pressed[patientID] {
		if g.randFloat() < alertResolveChance {
			g.pressed[patientID] = false
			g.emit(sink, patientID, g.nowMillis(), models.LabelAlert, AlertResolved)
		}
		return
	}

	if g.randFloat() < TriggerProbability() {
		g.pressed[patientID] = true
		g.emit(sink, patientID, g.nowMillis(), models.LabelAlert, AlertTriggered)
	}
}

// Pressed 患者当前是否处于 Pressed 状态
func (g *AlertGenerator) Pressed(patientID int) bool {
	if patientID < 1 || patientID > g.patientCount {
		return false
	}
	return g.pressed[patientID]
}
