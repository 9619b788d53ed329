package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecoratedAlert_PriorityThenRepeat(t *testing.T) {
	core := NewAlert(CategoryBloodPressure, 1, "Critical Systolic Pressure", 1714376789050)

	decorated := Decorate(core).WithPriority("HIGH").WithRepeat(3)

	assert.Contains(t, decorated.GetCondition(), "PRIORITY: HIGH")
	assert.Contains(t, decorated.GetCondition(), "Repeated 3 times")
	assert.Equal(t, "[PRIORITY: HIGH] Critical Systolic Pressure (Repeated 3 times)", decorated.GetCondition())
	assert.Equal(t, core.GetPatientID(), decorated.GetPatientID())
	assert.Equal(t, core.GetTimestamp(), decorated.GetTimestamp())
	assert.Equal(t, 2, decorated.Depth())
	assert.Equal(t, "HIGH", decorated.Priority())
	assert.Equal(t, 3, decorated.RepeatCount())
}

func TestDecoratedAlert_DoesNotMutateWrapped(t *testing.T) {
	core := NewAlert(CategoryBloodOxygen, 2, "Low Saturation Alert", 100)
	base := Decorate(core).WithPriority("LOW")

	a := base.WithRepeat(1)
	b := base.WithRepeat(5)

	assert.Equal(t, "[PRIORITY: LOW] Low Saturation Alert", base.GetCondition())
	assert.Equal(t, 1, base.Depth())
	assert.Equal(t, "[PRIORITY: LOW] Low Saturation Alert (Repeated 1 times)", a.GetCondition())
	assert.Equal(t, "[PRIORITY: LOW] Low Saturation Alert (Repeated 5 times)", b.GetCondition())
	assert.Equal(t, "Low Saturation Alert", core.GetCondition())
	assert.Equal(t, core, b.Core())
}

func TestDecoratedAlert_ZeroDepthIsCore(t *testing.T) {
	core := NewAlert(CategoryECG, 3, "Abnormal Heart Rate Alert", 5)
	decorated := Decorate(core)

	assert.Equal(t, 0, decorated.Depth())
	assert.Equal(t, core.GetCondition(), decorated.GetCondition())
	assert.Equal(t, "", decorated.Priority())
	assert.Equal(t, 0, decorated.RepeatCount())
}

func TestNewAlert_Category(t *testing.T) {
	alert := NewAlert(CategoryECG, 4, "Abnormal Heart Rate Alert", 9)

	assert.Equal(t, CategoryECG, alert.Category)
	assert.Equal(t, "ALERT: Abnormal Heart Rate Alert for Patient ID: 4 at 9", Decorate(alert).String())
}
