package redis

import (
	"context"
	"testing"

	"wisefido-vitals/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.DefaultRedisConfig()
	cfg.Addr = mr.Addr()

	client, err := Connect(context.Background(), &cfg)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, cfg.PoolSize, client.Options().PoolSize)
	assert.Equal(t, cfg.ReadTimeout, client.Options().ReadTimeout)
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := config.DefaultRedisConfig()
	cfg.Addr = addr

	_, err := Connect(context.Background(), &cfg)
	assert.ErrorContains(t, err, "failed to ping redis")
}
