package reader

import (
	"context"
	"errors"
	"testing"
	"time"

	mqttcommon "wisefido-vitals/common/mqtt"
	"wisefido-vitals/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSubscriber struct {
	mock.Mock
	handlers chan mqttcommon.MessageHandler
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{handlers: make(chan mqttcommon.MessageHandler, 1)}
}

func (m *mockSubscriber) Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error {
	args := m.Called(topic, qos)
	if args.Error(0) == nil {
		m.handlers <- handler
	}
	return args.Error(0)
}

func (m *mockSubscriber) Unsubscribe(topics ...string) error {
	args := m.Called(topics)
	return args.Error(0)
}

func TestMQTTReader_SubscribesAndIngests(t *testing.T) {
	sub := newMockSubscriber()
	sub.On("Subscribe", "vitals/+/+", byte(1)).Return(nil)
	sub.On("Unsubscribe", []string{"vitals/+/+"}).Return(nil)

	s := store.New()
	r := NewMQTTReader(sub, "vitals", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx, s) }()

	var handler mqttcommon.MessageHandler
	select {
	case handler = <-sub.handlers:
	case <-time.After(time.Second):
		t.Fatal("reader never subscribed")
	}

	assert.NoError(t, handler("vitals/6/HeartRate", []byte("6,60,HeartRate,121.0")))
	assert.NoError(t, handler("vitals/6/HeartRate", []byte("garbage")))

	assert.Len(t, s.GetRecords(6, 0, 100), 1)
	assert.Equal(t, int64(1), r.Stats().Dropped)

	cancel()
	require.NoError(t, <-done)
	sub.AssertExpectations(t)
}

func TestMQTTReader_SubscribeFailure(t *testing.T) {
	sub := newMockSubscriber()
	sub.On("Subscribe", "vitals/+/+", byte(1)).Return(errors.New("not connected"))

	r := NewMQTTReader(sub, "vitals", zap.NewNop())
	assert.Error(t, r.Start(context.Background(), store.New()))
}

func TestMQTTReader_WithQoS(t *testing.T) {
	sub := newMockSubscriber()
	sub.On("Subscribe", "vitals/+/+", byte(2)).Return(errors.New("not connected"))

	r := NewMQTTReader(sub, "vitals", zap.NewNop()).WithQoS(2)
	assert.Error(t, r.Start(context.Background(), store.New()))
	sub.AssertExpectations(t)
}
