package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"wisefido-vitals/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingNotifier struct {
	calls  int
	events []models.AlertEvent
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, events []models.AlertEvent) error {
	r.calls++
	r.events = append(r.events, events...)
	return r.err
}

func sampleEvents() []models.AlertEvent {
	return []models.AlertEvent{{
		EventID:          "evt-1",
		PatientID:        7,
		Category:         "HeartRate",
		Condition:        "Abnormal Heart Rate",
		DisplayCondition: "Abnormal Heart Rate",
		TriggeredAt:      time.UnixMilli(1000).UTC(),
	}}
}

func TestMulti_ContinuesAfterFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	failing := &recordingNotifier{err: errors.New("boom")}
	ok := &recordingNotifier{}

	m := NewMulti(zap.New(core), Named{Name: "failing", Notifier: failing})
	m.Add("ok", ok)
	assert.Equal(t, 2, m.Len())

	err := m.Notify(context.Background(), sampleEvents())
	require.NoError(t, err)

	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
	assert.Len(t, ok.events, 1)
	assert.Equal(t, 1, logs.FilterField(zap.String("notifier", "failing")).Len())
}

func TestMulti_SkipsEmptyBatch(t *testing.T) {
	n := &recordingNotifier{}
	m := NewMulti(zap.NewNop(), Named{Name: "n", Notifier: n})

	require.NoError(t, m.Notify(context.Background(), nil))
	assert.Equal(t, 0, n.calls)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), sampleEvents()))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ALERT: Abnormal Heart Rate for Patient ID: 7 at 1000", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "evt-1", entries[0].ContextMap()["event_id"])
}

func TestWebhookNotifier_PostsEvents(t *testing.T) {
	var got WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, zap.NewNop())
	require.NoError(t, n.Notify(context.Background(), sampleEvents()))

	assert.Equal(t, "wisefido-vitals", got.Source)
	require.Len(t, got.Events, 1)
	assert.Equal(t, 7, got.Events[0].PatientID)
	assert.Equal(t, "Abnormal Heart Rate", got.Events[0].Condition)
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, zap.NewNop())
	err := n.Notify(context.Background(), sampleEvents())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
