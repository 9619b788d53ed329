package output

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(topic string, qos byte, retained bool, payload []byte, timeout time.Duration) error {
	args := m.Called(topic, qos, retained, payload, timeout)
	return args.Error(0)
}

func TestMQTTSink_PublishesPerPatientTopic(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", "vitals/5/HeartRate", byte(0), false, []byte("5,99,HeartRate,72.0"), 2*time.Second).Return(nil)

	sink := NewMQTTSink(pub, "vitals", zap.NewNop())
	sink.Output(5, 99, "HeartRate", "72.0")

	pub.AssertExpectations(t)
}

func TestMQTTSink_SwallowsPublishError(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("not connected"))

	sink := NewMQTTSink(pub, "vitals", zap.NewNop())
	assert.NotPanics(t, func() { sink.Output(1, 1, "ECG", "0.1") })
	pub.AssertNumberOfCalls(t, "Publish", 1)
}
