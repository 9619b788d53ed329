package output

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisStreamSink_Output(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	sink := NewRedisStreamSink(client, "vitals:measurements", zap.NewNop())
	sink.Output(3, 1700000000000, "SystolicPressure", "120.0")

	msgs, err := client.XRange(context.Background(), "vitals:measurements", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "3", msgs[0].Values["patient_id"])
	assert.Equal(t, "1700000000000", msgs[0].Values["timestamp"])
	assert.Equal(t, "SystolicPressure", msgs[0].Values["label"])
	assert.Equal(t, "120.0", msgs[0].Values["data"])
}

func TestRedisStreamSink_SwallowsErrors(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	sink := NewRedisStreamSink(client, "vitals:measurements", zap.NewNop())
	assert.NotPanics(t, func() { sink.Output(1, 1, "ECG", "0.1") })
}
