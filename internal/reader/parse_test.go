package reader

import (
	"testing"

	"wisefido-vitals/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	r, err := ParseMessage("1,1700000000000,HeartRate,72.5")
	require.NoError(t, err)
	assert.Equal(t, models.PatientRecord{PatientID: 1, Value: 72.5, RecordType: "HeartRate", Timestamp: 1700000000000}, r)
}

func TestParseMessage_StripsPercent(t *testing.T) {
	r, err := ParseMessage("3,10,Saturation,97.0%")
	require.NoError(t, err)
	assert.Equal(t, 97.0, r.Value)
}

func TestParseMessage_Malformed(t *testing.T) {
	for _, msg := range []string{
		"",
		"abc,1,HeartRate,1.0",
		"1,1,HeartRate",
		"1,x,HeartRate,1.0",
		"1,1,HeartRate,fast",
		"1,1,,1.0",
		"1,1,Alert,triggered",
		"1,1,BloodPressureAlert,ALERT: Critical blood pressure detected!",
		"1,1,HeartRate,NaN",
		"1,1,HeartRate,Inf",
		"1,1,HeartRate,-Infinity",
		"1,1,Saturation,nan%",
		"1,1,HeartRate,1e999",
	} {
		_, err := ParseMessage(msg)
		assert.ErrorIs(t, err, ErrMalformed, "message %q", msg)
	}
}

func TestParseFileLine(t *testing.T) {
	r, err := ParseFileLine("PatientID: 7, Timestamp: 1700000000000, Label: Cholesterol, Value: 180.25")
	require.NoError(t, err)
	assert.Equal(t, models.PatientRecord{PatientID: 7, Value: 180.25, RecordType: "Cholesterol", Timestamp: 1700000000000}, r)
}

func TestParseFileLine_FileSinkFormat(t *testing.T) {
	r, err := ParseFileLine("Patient ID: 2, Timestamp: 5, Label: Saturation, Data: 95.0%")
	require.NoError(t, err)
	assert.Equal(t, 2, r.PatientID)
	assert.Equal(t, 95.0, r.Value)
}

func TestParseFileLine_Malformed(t *testing.T) {
	for _, line := range []string{
		"",
		"PatientID: 1, Timestamp: 2",
		"PatientID 1, Timestamp: 2, Label: ECG, Value: 0.1",
		"PatientID: x, Timestamp: 2, Label: ECG, Value: 0.1",
		"PatientID: 1, Timestamp: 2, Label: ECG, Value: bad",
		"PatientID: 1, Timestamp: 2, Label: ECG, Value: +Inf",
	} {
		_, err := ParseFileLine(line)
		assert.ErrorIs(t, err, ErrMalformed, "line %q", line)
	}
}
