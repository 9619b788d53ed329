// Package rules 定义报警规则（阈值判断），规则为纯函数，不保存状态
package rules

// AlertRule 报警规则：对少量定长数值做阈值判断
// 传入的数值个数不足时返回 false，不 panic
type AlertRule interface {
	CheckAlert(patientID int, values ...float64) bool
}

// RuleFunc 函数形式的规则
type RuleFunc func(patientID int, values ...float64) bool

// CheckAlert 实现 AlertRule
func (f RuleFunc) CheckAlert(patientID int, values ...float64) bool {
	return f(patientID, values...)
}

// Outcome 规则判断结果
type Outcome struct {
	Triggered bool
	Condition string
}

// NamedRule 带条件名的规则
type NamedRule struct {
	Condition string
	Rule      AlertRule
}

// Evaluate 判断并返回带条件名的结果
func (r NamedRule) Evaluate(patientID int, values ...float64) Outcome {
	triggered := r.Rule.CheckAlert(patientID, values...)
	if !triggered {
		return Outcome{}
	}
	return Outcome{Triggered: true, Condition: r.Condition}
}

// 阈值
const (
	SystolicAlertThreshold  = 160.0
	DiastolicAlertThreshold = 100.0
	HeartRateLow            = 50.0
	HeartRateHigh           = 120.0
	SaturationLow           = 92.0
)

// BloodPressureRule 收缩压 >= 160 或 舒张压 >= 100
// values: systolic, diastolic
var BloodPressureRule = RuleFunc(func(_ int, values ...float64) bool {
	if len(values) < 2 {
		return false
	}
	return values[0] >= SystolicAlertThreshold || values[1] >= DiastolicAlertThreshold
})

// HeartRateRule 心率 < 50 或 > 120
var HeartRateRule = RuleFunc(func(_ int, values ...float64) bool {
	if len(values) < 1 {
		return false
	}
	return values[0] < HeartRateLow || values[0] > HeartRateHigh
})

// OxygenSaturationRule 血氧 < 92
var OxygenSaturationRule = RuleFunc(func(_ int, values ...float64) bool {
	if len(values) < 1 {
		return false
	}
	return values[0] < SaturationLow
})
