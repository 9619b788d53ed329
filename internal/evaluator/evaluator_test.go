package evaluator

import (
	"context"
	"errors"
	"testing"
	"time"

	"wisefido-vitals/internal/metrics"
	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/store"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.UnixMilli(1700000000000)

func newTestEvaluator(n *mockNotifier) *Evaluator {
	var e *Evaluator
	if n != nil {
		e = NewEvaluator(Options{Priority: "HIGH", RepeatCount: 3}, n, zap.NewNop())
	} else {
		e = NewEvaluator(Options{Priority: "HIGH", RepeatCount: 3}, nil, zap.NewNop())
	}
	e.now = func() time.Time { return fixedNow }
	return e
}

func conditions(alerts []models.DecoratedAlert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Core().Condition)
	}
	return out
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, events []models.AlertEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func TestEvaluator_AllFamiliesTrigger(t *testing.T) {
	e := newTestEvaluator(nil)
	records := []models.PatientRecord{
		{PatientID: 1, Value: 190, RecordType: models.LabelSystolicPressure, Timestamp: 1},
		{PatientID: 1, Value: 85, RecordType: models.LabelSaturation, Timestamp: 2},
		{PatientID: 1, Value: 45, RecordType: models.LabelHeartRate, Timestamp: 3},
	}

	got := conditions(e.Evaluate(1, records))

	assert.Contains(t, got, ConditionCriticalSystolic)
	assert.Contains(t, got, ConditionLowSaturation)
	assert.Contains(t, got, ConditionAbnormalHeartRate)
	// 组合报警规则为 收缩压 < 90 且 血氧 < 92；190 不满足，因此只有三条单项报警
	assert.NotContains(t, got, ConditionHypotensiveHypoxemia)
}

func TestEvaluator_HypotensiveHypoxemia(t *testing.T) {
	e := newTestEvaluator(nil)
	records := []models.PatientRecord{
		{PatientID: 1, Value: 85, RecordType: models.LabelSystolicPressure, Timestamp: 1},
		{PatientID: 1, Value: 85, RecordType: models.LabelSaturation, Timestamp: 2},
		{PatientID: 1, Value: 45, RecordType: models.LabelHeartRate, Timestamp: 3},
	}

	alerts := e.Evaluate(1, records)

	assert.Equal(t, []string{
		ConditionCriticalSystolic,
		ConditionLowSaturation,
		ConditionHypotensiveHypoxemia,
		ConditionAbnormalHeartRate,
	}, conditions(alerts))

	// 组合报警时间戳为评估时刻
	assert.Equal(t, fixedNow.UnixMilli(), alerts[2].GetTimestamp())
	assert.Equal(t, models.CategoryBloodOxygen, alerts[2].Core().Category)
}

func TestEvaluator_BoundariesDoNotTrigger(t *testing.T) {
	e := newTestEvaluator(nil)
	records := []models.PatientRecord{
		{PatientID: 1, Value: 180, RecordType: models.LabelSystolicPressure, Timestamp: 1},
		{PatientID: 1, Value: 92, RecordType: models.LabelSaturation, Timestamp: 2},
		{PatientID: 1, Value: 50, RecordType: models.LabelHeartRate, Timestamp: 3},
	}

	assert.Empty(t, e.Evaluate(1, records))
}

func TestEvaluator_DiastolicThresholds(t *testing.T) {
	e := newTestEvaluator(nil)
	records := []models.PatientRecord{
		{PatientID: 1, Value: 121, RecordType: models.LabelDiastolicPressure, Timestamp: 1},
		{PatientID: 1, Value: 59, RecordType: models.LabelDiastolicPressure, Timestamp: 2},
		{PatientID: 1, Value: 120, RecordType: models.LabelDiastolicPressure, Timestamp: 3},
		{PatientID: 1, Value: 60, RecordType: models.LabelDiastolicPressure, Timestamp: 4},
	}

	assert.Equal(t, []string{ConditionCriticalDiastolic, ConditionCriticalDiastolic}, conditions(e.Evaluate(1, records)))
}

func TestEvaluator_BloodPressureTrend(t *testing.T) {
	e := newTestEvaluator(nil)
	// 第一次读数与初始值 0 的差也计入
	records := []models.PatientRecord{
		{PatientID: 1, Value: 100, RecordType: models.LabelSystolicPressure, Timestamp: 1},
		{PatientID: 1, Value: 115, RecordType: models.LabelSystolicPressure, Timestamp: 2},
		{PatientID: 1, Value: 130, RecordType: models.LabelSystolicPressure, Timestamp: 3},
		{PatientID: 1, Value: 145, RecordType: models.LabelSystolicPressure, Timestamp: 4},
		{PatientID: 1, Value: 160, RecordType: models.LabelSystolicPressure, Timestamp: 5},
		{PatientID: 1, Value: 175, RecordType: models.LabelSystolicPressure, Timestamp: 6},
	}

	alerts := e.Evaluate(1, records)

	require.Equal(t, []string{ConditionBloodPressureTrend, ConditionBloodPressureTrend}, conditions(alerts))
	assert.Equal(t, int64(3), alerts[0].GetTimestamp())
	assert.Equal(t, int64(6), alerts[1].GetTimestamp())
}

func TestEvaluator_TrendResetsOnSmallDelta(t *testing.T) {
	e := newTestEvaluator(nil)
	records := []models.PatientRecord{
		{PatientID: 1, Value: 120, RecordType: models.LabelSystolicPressure, Timestamp: 1},
		{PatientID: 1, Value: 135, RecordType: models.LabelSystolicPressure, Timestamp: 2},
		{PatientID: 1, Value: 140, RecordType: models.LabelSystolicPressure, Timestamp: 3},
		{PatientID: 1, Value: 155, RecordType: models.LabelSystolicPressure, Timestamp: 4},
		{PatientID: 1, Value: 170, RecordType: models.LabelSystolicPressure, Timestamp: 5},
	}

	assert.Empty(t, e.Evaluate(1, records))
}

func TestEvaluator_IgnoresUnknownLabels(t *testing.T) {
	e := newTestEvaluator(nil)
	records := []models.PatientRecord{
		{PatientID: 1, Value: 999, RecordType: "Unknown", Timestamp: 1},
		{PatientID: 1, Value: 1, RecordType: models.LabelCholesterol, Timestamp: 2},
	}

	assert.Empty(t, e.Evaluate(1, records))
}

func TestEvaluator_DecoratorChain(t *testing.T) {
	e := newTestEvaluator(nil)
	alerts := e.Evaluate(7, []models.PatientRecord{
		{PatientID: 7, Value: 130, RecordType: models.LabelHeartRate, Timestamp: 42},
	})

	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, "[PRIORITY: HIGH] Abnormal Heart Rate Alert (Repeated 3 times)", a.GetCondition())
	assert.Equal(t, 7, a.GetPatientID())
	assert.Equal(t, int64(42), a.GetTimestamp())
	assert.Equal(t, 2, a.Depth())
}

// 组合报警扫描全部历史，重复评估同一历史会再次报警
func TestEvaluator_HypotensiveHypoxemiaFiresOnEveryPass(t *testing.T) {
	e := newTestEvaluator(nil)
	st := store.New()
	st.AddPatientData(1, 85, models.LabelSystolicPressure, 1)
	st.AddPatientData(1, 88, models.LabelSaturation, 2)

	p, ok := st.GetPatient(1)
	require.True(t, ok)

	first := conditions(e.EvaluatePatient(p))
	second := conditions(e.EvaluatePatient(p))

	assert.Contains(t, first, ConditionHypotensiveHypoxemia)
	assert.Contains(t, second, ConditionHypotensiveHypoxemia)
}

func TestEvaluator_EvaluateAllNotifies(t *testing.T) {
	n := new(mockNotifier)
	n.On("Notify", mock.Anything, mock.MatchedBy(func(events []models.AlertEvent) bool {
		return len(events) == 2 &&
			events[0].PatientID == 1 && events[0].Condition == ConditionLowSaturation &&
			events[1].PatientID == 2 && events[1].Condition == ConditionAbnormalHeartRate
	})).Return(nil).Once()

	e := newTestEvaluator(n)
	st := store.New()
	st.AddPatientData(1, 90, models.LabelSaturation, 1)
	st.AddPatientData(2, 130, models.LabelHeartRate, 2)
	st.AddPatientData(3, 80, models.LabelHeartRate, 3)

	events := e.EvaluateAll(context.Background(), st)

	assert.Len(t, events, 2)
	n.AssertExpectations(t)
}

func TestEvaluator_EvaluateAllSkipsNotifyWithoutAlerts(t *testing.T) {
	n := new(mockNotifier)
	e := newTestEvaluator(n)
	st := store.New()
	st.AddPatientData(1, 97, models.LabelSaturation, 1)

	assert.Empty(t, e.EvaluateAll(context.Background(), st))
	n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestEvaluator_NotifierErrorIsSwallowed(t *testing.T) {
	n := new(mockNotifier)
	n.On("Notify", mock.Anything, mock.Anything).Return(errors.New("down"))

	e := newTestEvaluator(n)
	st := store.New()
	st.AddPatientData(1, 40, models.LabelHeartRate, 1)

	assert.NotPanics(t, func() { e.EvaluateAll(context.Background(), st) })
	assert.Len(t, e.EvaluateAll(context.Background(), st), 1)
}

// 多轮评估同一历史：记录触发的报警事件 ID 不变，组合报警随评估时刻变化
func TestEvaluator_EvaluateAllStableEventIDs(t *testing.T) {
	e := newTestEvaluator(nil)
	st := store.New()
	st.AddPatientData(1, 85, models.LabelSaturation, 1000)

	first := e.EvaluateAll(context.Background(), st)
	second := e.EvaluateAll(context.Background(), st)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].EventID, second[0].EventID)

	st.AddPatientData(1, 85, models.LabelSystolicPressure, 2000)
	e.now = func() time.Time { return fixedNow.Add(10 * time.Second) }
	third := e.EvaluateAll(context.Background(), st)
	e.now = func() time.Time { return fixedNow.Add(20 * time.Second) }
	fourth := e.EvaluateAll(context.Background(), st)

	combinedID := func(events []models.AlertEvent) string {
		for _, ev := range events {
			if ev.Condition == ConditionHypotensiveHypoxemia {
				return ev.EventID
			}
		}
		return ""
	}
	require.NotEmpty(t, combinedID(third))
	assert.NotEqual(t, combinedID(third), combinedID(fourth))
	assert.Equal(t, first[0].EventID, third[1].EventID)
}

func alertsRaised(t *testing.T, condition string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.AlertsRaised.WithLabelValues(condition).Write(&m))
	return m.GetCounter().GetValue()
}

// 按需评估不计数，只有周期评估计数
func TestEvaluator_AlertsRaisedCountedOncePerPass(t *testing.T) {
	e := newTestEvaluator(nil)
	st := store.New()
	st.AddPatientData(1, 40, models.LabelHeartRate, 1)
	p, ok := st.GetPatient(1)
	require.True(t, ok)

	before := alertsRaised(t, ConditionAbnormalHeartRate)

	e.EvaluatePatient(p)
	e.EvaluatePatient(p)
	assert.Equal(t, before, alertsRaised(t, ConditionAbnormalHeartRate))

	e.EvaluateAll(context.Background(), st)
	assert.Equal(t, before+1, alertsRaised(t, ConditionAbnormalHeartRate))
}
