package evaluator

import (
	"math"
	"time"

	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/rules"
)

// 血压阈值
const (
	criticalSystolicHigh  = 180.0
	criticalSystolicLow   = 90.0
	criticalDiastolicHigh = 120.0
	criticalDiastolicLow  = 60.0

	trendDelta    = 10.0
	trendReadings = 3
)

// 单值阈值规则，条件名即报警条件
var (
	criticalSystolicRule = rules.NamedRule{
		Condition: ConditionCriticalSystolic,
		Rule: rules.RuleFunc(func(_ int, values ...float64) bool {
			return len(values) > 0 && (values[0] > criticalSystolicHigh || values[0] < criticalSystolicLow)
		}),
	}
	criticalDiastolicRule = rules.NamedRule{
		Condition: ConditionCriticalDiastolic,
		Rule: rules.RuleFunc(func(_ int, values ...float64) bool {
			return len(values) > 0 && (values[0] > criticalDiastolicHigh || values[0] < criticalDiastolicLow)
		}),
	}
	lowSaturationRule = rules.NamedRule{
		Condition: ConditionLowSaturation,
		Rule:      rules.OxygenSaturationRule,
	}
	abnormalHeartRateRule = rules.NamedRule{
		Condition: ConditionAbnormalHeartRate,
		Rule:      rules.HeartRateRule,
	}
)

// checkRecord 对单条记录应用规则，触发时生成报警
func checkRecord(rule rules.NamedRule, category models.AlertCategory, patientID int, r models.PatientRecord, alerts []models.Alert) []models.Alert {
	if out := rule.Evaluate(patientID, r.Value); out.Triggered {
		alerts = append(alerts, models.NewAlert(category, patientID, out.Condition, r.Timestamp))
	}
	return alerts
}

// BloodPressureFamily 收缩压/舒张压阈值与收缩压趋势
// 趋势：连续 3 次读数与上一读数之差超过 10 即报警并重新计数；上一读数初始为 0
type BloodPressureFamily struct{}

func (f *BloodPressureFamily) Evaluate(patientID int, records []models.PatientRecord) []models.Alert {
	var alerts []models.Alert
	consecutive := 0
	lastSystolic := 0.0

	for _, r := range records {
		switch r.RecordType {
		case models.LabelSystolicPressure:
			alerts = checkRecord(criticalSystolicRule, models.CategoryBloodPressure, patientID, r, alerts)

			if math.Abs(r.Value-lastSystolic) > trendDelta {
				consecutive++
			} else {
				consecutive = 0
			}
			if consecutive >= trendReadings {
				alerts = append(alerts, models.NewAlert(models.CategoryBloodPressure, patientID, ConditionBloodPressureTrend, r.Timestamp))
				consecutive = 0
			}
			lastSystolic = r.Value

		case models.LabelDiastolicPressure:
			alerts = checkRecord(criticalDiastolicRule, models.CategoryBloodPressure, patientID, r, alerts)
		}
	}
	return alerts
}

// SaturationFamily 低血氧
type SaturationFamily struct{}

func (f *SaturationFamily) Evaluate(patientID int, records []models.PatientRecord) []models.Alert {
	var alerts []models.Alert
	for _, r := range records {
		if r.RecordType == models.LabelSaturation {
			alerts = checkRecord(lowSaturationRule, models.CategoryBloodOxygen, patientID, r, alerts)
		}
	}
	return alerts
}

// CombinedFamily 低血压 + 低血氧
// 扫描全部历史：任一收缩压 < 90 且任一血氧 < 92 时产生一条报警，时间戳为评估时刻。
// 重复评估重叠的历史会重复报警。
type CombinedFamily struct {
	now func() time.Time
}

func (f *CombinedFamily) Evaluate(patientID int, records []models.PatientRecord) []models.Alert {
	lowSystolic := false
	lowSaturation := false
	for _, r := range records {
		switch r.RecordType {
		case models.LabelSystolicPressure:
			if r.Value < criticalSystolicLow {
				lowSystolic = true
			}
		case models.LabelSaturation:
			if rules.OxygenSaturationRule.CheckAlert(patientID, r.Value) {
				lowSaturation = true
			}
		}
	}

	if !lowSystolic || !lowSaturation {
		return nil
	}
	return []models.Alert{
		models.NewAlert(models.CategoryBloodOxygen, patientID, ConditionHypotensiveHypoxemia, f.now().UnixMilli()),
	}
}

// HeartRateFamily 心率异常
type HeartRateFamily struct{}

func (f *HeartRateFamily) Evaluate(patientID int, records []models.PatientRecord) []models.Alert {
	var alerts []models.Alert
	for _, r := range records {
		if r.RecordType == models.LabelHeartRate {
			alerts = checkRecord(abnormalHeartRateRule, models.CategoryECG, patientID, r, alerts)
		}
	}
	return alerts
}
