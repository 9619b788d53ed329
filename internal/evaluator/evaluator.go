package evaluator

import (
	"context"
	"time"

	"wisefido-vitals/internal/metrics"
	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/notifier"
	"wisefido-vitals/internal/store"

	"go.uber.org/zap"
)

// 报警条件
const (
	ConditionCriticalSystolic     = "Critical Systolic Pressure"
	ConditionCriticalDiastolic    = "Critical Diastolic Pressure"
	ConditionBloodPressureTrend   = "Blood Pressure Trend Alert"
	ConditionLowSaturation        = "Low Saturation Alert"
	ConditionHypotensiveHypoxemia = "Hypotensive Hypoxemia Alert"
	ConditionAbnormalHeartRate    = "Abnormal Heart Rate Alert"
)

// Options 装饰链参数（优先级、重复次数为固定配置值）
type Options struct {
	Priority    string
	RepeatCount int
}

// Evaluator 报警评估器
// 按固定顺序评估四类规则：血压、血氧、低血压+低血氧组合、心率
type Evaluator struct {
	options  Options
	builder  *AlertEventBuilder
	notifier notifier.Notifier
	logger   *zap.Logger
	now      func() time.Time

	// 规则族
	bloodPressure *BloodPressureFamily
	saturation    *SaturationFamily
	combined      *CombinedFamily
	heartRate     *HeartRateFamily
}

// NewEvaluator 创建评估器；n 为 nil 时只返回报警不通知
func NewEvaluator(options Options, n notifier.Notifier, logger *zap.Logger) *Evaluator {
	e := &Evaluator{
		options:  options,
		notifier: n,
		logger:   logger,
		now:      time.Now,
	}
	e.builder = NewAlertEventBuilder(func() time.Time { return e.now() })

	e.bloodPressure = &BloodPressureFamily{}
	e.saturation = &SaturationFamily{}
	e.combined = &CombinedFamily{now: func() time.Time { return e.now() }}
	e.heartRate = &HeartRateFamily{}

	return e
}

// Evaluate 评估一个患者的记录，返回装饰后的报警（顺序固定）
// 不计入报警指标，周期评估由 EvaluateAll 计数
func (e *Evaluator) Evaluate(patientID int, records []models.PatientRecord) []models.DecoratedAlert {
	var alerts []models.Alert

	alerts = append(alerts, e.bloodPressure.Evaluate(patientID, records)...)
	alerts = append(alerts, e.saturation.Evaluate(patientID, records)...)
	alerts = append(alerts, e.combined.Evaluate(patientID, records)...)
	alerts = append(alerts, e.heartRate.Evaluate(patientID, records)...)

	decorated := make([]models.DecoratedAlert, 0, len(alerts))
	for _, a := range alerts {
		decorated = append(decorated, e.decorate(a))
	}
	return decorated
}

// decorate 固定装饰链：先优先级，再重复次数
func (e *Evaluator) decorate(a models.Alert) models.DecoratedAlert {
	d := models.Decorate(a)
	if e.options.Priority != "" {
		d = d.WithPriority(e.options.Priority)
	}
	if e.options.RepeatCount > 0 {
		d = d.WithRepeat(e.options.RepeatCount)
	}
	return d
}

// EvaluatePatient 评估患者 [0, now] 内的全部记录
func (e *Evaluator) EvaluatePatient(p *store.Patient) []models.DecoratedAlert {
	return e.Evaluate(p.ID(), p.GetRecords(0, e.now().UnixMilli()))
}

// EvaluateAll 评估所有患者并通知，返回本轮产生的报警事件
func (e *Evaluator) EvaluateAll(ctx context.Context, st *store.Store) []models.AlertEvent {
	start := time.Now()
	defer func() {
		metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	}()

	var events []models.AlertEvent
	for _, p := range st.GetAllPatients() {
		if ctx.Err() != nil {
			break
		}
		for _, a := range e.EvaluatePatient(p) {
			events = append(events, e.builder.BuildAlertEvent(a))
			metrics.AlertsRaised.WithLabelValues(a.Core().Condition).Inc()
		}
	}

	if len(events) > 0 && e.notifier != nil {
		if err := e.notifier.Notify(ctx, events); err != nil {
			e.logger.Error("Failed to notify alert events",
				zap.Int("event_count", len(events)),
				zap.Error(err),
			)
		}
	}

	e.logger.Debug("Evaluation pass finished",
		zap.Int("event_count", len(events)),
		zap.Duration("duration", time.Since(start)),
	)
	return events
}
