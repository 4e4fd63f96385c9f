package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tick(m *Memory, n int) {
	for i := 0; i < n; i++ {
		m.OnRisingEdge()
	}
}

func TestWriteTakesExactlyLatencyEdgesThenReadsBack(t *testing.T) {
	m := New(3)
	m.BeginRequest(100, 0xAABBCCDD, true, 1)

	tick(m, 2)
	require.False(t, m.Ready())
	require.True(t, m.Busy())

	tick(m, 1)
	require.True(t, m.Ready())
	require.False(t, m.Busy())

	assert.Equal(t, byte(0xDD), m.ReadByte(100))
	assert.Equal(t, byte(0xCC), m.ReadByte(101))
	assert.Equal(t, byte(0xBB), m.ReadByte(102))
	assert.Equal(t, byte(0xAA), m.ReadByte(103))
	assert.EqualValues(t, 1, m.NumRequestsServed())
}

func TestUnwrittenAddressReadsZero(t *testing.T) {
	m := New(1)
	assert.Equal(t, byte(0), m.ReadByte(0xFFFF))
}

func TestReadStreamsOneWordPerCycleAfterLatency(t *testing.T) {
	m := New(2)
	// prime the first 4 bytes of the two 16-byte words at addr 0 and 16.
	m.BeginRequest(0, 0x01020304, true, 1)
	tick(m, 2)
	m.BeginRequest(16, 0x05060708, true, 1)
	tick(m, 2)

	m.BeginRequest(0, 0, false, 2)
	tick(m, 1)
	require.False(t, m.Ready())
	tick(m, 1)
	require.True(t, m.Ready())
	require.True(t, m.Busy()) // one more word expected

	word0 := m.OutWord()
	assert.Equal(t, byte(0x04), word0[0])

	tick(m, 1)
	require.True(t, m.Ready())
	require.False(t, m.Busy())
	assert.EqualValues(t, 3, m.NumRequestsServed())
}
