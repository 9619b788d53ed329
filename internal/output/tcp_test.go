package output

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTCPSink_NoClientIsNoop(t *testing.T) {
	sink, err := NewTCPSink("127.0.0.1:0", zap.NewNop())
	require.NoError(t, err)
	defer sink.Close()

	assert.False(t, sink.Connected())
	sink.Output(1, 1, "ECG", "0.1")
}

func TestTCPSink_DeliversToClient(t *testing.T) {
	sink, err := NewTCPSink("127.0.0.1:0", zap.NewNop())
	require.NoError(t, err)
	defer sink.Close()

	conn, err := net.Dial("tcp", sink.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, sink.Connected, 2*time.Second, 10*time.Millisecond)

	sink.Output(42, 1700000000000, "TestLabel", "TestData")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "42,1700000000000,TestLabel,TestData\n", line)
}

func TestTCPSink_ListenFailure(t *testing.T) {
	first, err := NewTCPSink("127.0.0.1:0", zap.NewNop())
	require.NoError(t, err)
	defer first.Close()

	_, err = NewTCPSink(first.Addr().String(), zap.NewNop())
	assert.Error(t, err)
}

func TestTCPSink_CloseIsIdempotent(t *testing.T) {
	sink, err := NewTCPSink("127.0.0.1:0", zap.NewNop())
	require.NoError(t, err)

	assert.NoError(t, sink.Close())
	assert.NotPanics(t, func() { sink.Close() })
}
