package writebuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominikw1/Cache-Simulator-sub000/internal/memory"
)

// cycle drives mem then wb, matching the ordering Clock requires.
func cycle(wb *WriteBuffer, mem *memory.Memory) {
	mem.OnRisingEdge()
	wb.Clock(mem)
}

func TestWriteIsAcknowledgedSameCycleAndLandsInMemory(t *testing.T) {
	mem := memory.New(2)
	wb := New(64, false)

	wb.SetCacheWriteRequest(128, 0xDEADBEEF, true)
	cycle(wb, mem)
	require.True(t, wb.Ready(), "write buffer should accept into the empty queue immediately")
	wb.SetCacheWriteRequest(0, 0, false)

	for i := 0; i < 4 && wb.RAMRequests() == 0; i++ {
		cycle(wb, mem)
	}
	assert.EqualValues(t, 1, wb.RAMRequests())
	assert.Equal(t, byte(0xEF), mem.ReadByte(128))
}

func TestReadBypassesQueuedWriteToDifferentLine(t *testing.T) {
	mem := memory.New(1)
	wb := New(64, false)

	// The first write goes straight to RAM; the second stays queued while
	// the first completes, leaving the buffer Idle with one entry queued.
	wb.SetCacheWriteRequest(0, 0x11223344, true)
	cycle(wb, mem)
	require.True(t, wb.Ready())
	wb.SetCacheWriteRequest(64, 0x55667788, true)
	cycle(wb, mem)
	require.True(t, wb.Ready())
	wb.SetCacheWriteRequest(0, 0, false)

	// read targets a different cacheline than the queued write.
	wb.SetCacheReadRequest(256, true)
	cycle(wb, mem)
	assert.Equal(t, Read, wb.State())
}

func TestReadWaitsBehindWriteToSameLine(t *testing.T) {
	mem := memory.New(1)
	wb := New(64, false)

	// The first write goes straight to RAM; the second stays queued while
	// the first completes, leaving the buffer Idle with one entry queued.
	wb.SetCacheWriteRequest(4, 0xAABBCCDD, true)
	cycle(wb, mem)
	require.True(t, wb.Ready())
	wb.SetCacheWriteRequest(12, 0x01020304, true)
	cycle(wb, mem)
	require.True(t, wb.Ready())
	wb.SetCacheWriteRequest(0, 0, false)

	wb.SetCacheReadRequest(8, true) // same 64-byte line as addr 4
	cycle(wb, mem)
	assert.Equal(t, Write, wb.State(), "conflicting read must drain the write first")
}

func TestStrictReadAfterWritesWaitsForEmptyQueueRegardlessOfLine(t *testing.T) {
	mem := memory.New(1)
	wb := New(64, true)

	// The first write goes straight to RAM; the second stays queued while
	// the first completes, leaving the buffer Idle with one entry queued.
	wb.SetCacheWriteRequest(512, 1, true)
	cycle(wb, mem)
	require.True(t, wb.Ready())
	wb.SetCacheWriteRequest(576, 2, true)
	cycle(wb, mem)
	require.True(t, wb.Ready())
	wb.SetCacheWriteRequest(0, 0, false)

	wb.SetCacheReadRequest(0, true) // unrelated line, but strict mode still waits
	cycle(wb, mem)
	assert.NotEqual(t, Read, wb.State())
}

func TestFullQueueHoldsWriteAsPendingUntilRoomFrees(t *testing.T) {
	mem := memory.New(4)
	wb := New(64, false)

	// The first write is dequeued into RAM on the cycle it is accepted, so
	// Capacity+1 writes are needed to fill the queue.
	for i := 0; i < Capacity+1; i++ {
		wb.SetCacheWriteRequest(uint32(i*64), uint32(i), true)
		cycle(wb, mem)
		require.True(t, wb.Ready(), "entry %d should be queued immediately", i)
	}

	// the next write must stall: the queue is full.
	wb.SetCacheWriteRequest(9999, 42, true)
	cycle(wb, mem)
	assert.False(t, wb.Ready(), "write buffer must not drop the write, only stall it")

	// keep presenting the same request until memory drains one entry and
	// frees a slot.
	accepted := false
	for i := 0; i < 10 && !accepted; i++ {
		cycle(wb, mem)
		accepted = wb.Ready()
	}
	assert.True(t, accepted, "pending write must eventually be accepted, never dropped")
}

func TestReadStreamsOneWordPerReadyCycle(t *testing.T) {
	mem := memory.New(1)
	wb := New(32, false) // 32/16 = 2 words per line

	// seed memory with one priming write through the buffer.
	wb.SetCacheWriteRequest(0, 0x01020304, true)
	cycle(wb, mem)
	wb.SetCacheWriteRequest(0, 0, false)
	for wb.RAMRequests() == 0 {
		cycle(wb, mem)
	}

	wb.SetCacheReadRequest(0, true)
	cycle(wb, mem) // enters Read state

	wordsSeen := 0
	for i := 0; i < 10 && wordsSeen < 2; i++ {
		cycle(wb, mem)
		if wb.Ready() {
			wordsSeen++
		}
	}
	assert.Equal(t, 2, wordsSeen)
	assert.Equal(t, Idle, wb.State())
}
