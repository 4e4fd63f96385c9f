// Package writebuffer implements the 4-entry write buffer mediating all
// cache<->memory traffic, grounded on the C++ reference's
// Simulation/WriteBuffer.h. Every read and write the cache issues against
// main memory passes through here: writes are acknowledged as soon as they
// are queued, and reads bypass queued writes unless one targets the same
// cacheline-aligned address (or StrictReadAfterWrites is set, in which case
// every read waits for an empty queue).
package writebuffer

import (
	"github.com/dominikw1/Cache-Simulator-sub000/internal/memory"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/ringbuffer"
)

// Capacity is the fixed number of entries the write buffer can hold
// (WRITE_BUFFER_SIZE in the C++ reference).
const Capacity = 4

// State is the write buffer's own three-state machine.
type State int

const (
	Idle State = iota
	Read
	Write
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return "unknown"
	}
}

// Entry is a single buffered, not-yet-committed 4-byte word write.
type Entry struct {
	Address uint32
	Data    uint32
}

// WriteBuffer is the cache-facing half of the cache<->memory bridge. Its
// ports are presented the same way every cycle as the C++ reference's
// signals: the cache sets its request busses via SetCacheWriteRequest /
// SetCacheReadRequest before calling Clock, then reads Ready/DataOut
// afterwards.
type WriteBuffer struct {
	cachelineSize     uint32
	readsPerCacheline uint32
	strict            bool

	queue   *ringbuffer.RingBuffer[Entry]
	state   State
	pending bool

	// cache-driven request busses for the cycle about to be clocked.
	cacheValidWrite bool
	cacheWriteAddr  uint32
	cacheWriteData  uint32
	cacheValidRead  bool
	cacheReadAddr   uint32

	// last accepted write request, re-latched while pending.
	pendingWrite Entry

	// outputs to the cache, valid for the cycle just clocked.
	ready   bool
	dataOut [memory.WordBusBytes]byte

	// falling-edge bookkeeping for an in-flight RAM operation.
	ramOpActive  bool
	readWordIdx  uint32
	ramRequests  uint64
	readAlignAdr uint32
}

// New constructs a WriteBuffer for a cache with the given cacheline size.
// strict enables StrictReadAfterWrites: every read then waits for an empty
// queue instead of only bypass-checking the targeted cacheline.
func New(cachelineSize uint32, strict bool) *WriteBuffer {
	return &WriteBuffer{
		cachelineSize:     cachelineSize,
		readsPerCacheline: cachelineSize / memory.WordBusBytes,
		strict:            strict,
		queue:             ringbuffer.New[Entry](Capacity),
	}
}

// RAMRequests reports the number of requests this buffer has completed
// against memory (a request is counted once memory finishes it), used by the extended report (SPEC_FULL §6) and by the §8
// scenario-4/5 RAM-request-count properties.
func (w *WriteBuffer) RAMRequests() uint64 { return w.ramRequests }

// SetCacheWriteRequest presents a write request on the cache->buffer bus
// for the next Clock call. valid=false clears any previously set request.
func (w *WriteBuffer) SetCacheWriteRequest(addr, data uint32, valid bool) {
	w.cacheValidWrite = valid
	w.cacheWriteAddr = addr
	w.cacheWriteData = data
}

// SetCacheReadRequest presents a read request on the cache->buffer bus for
// the next Clock call.
func (w *WriteBuffer) SetCacheReadRequest(addr uint32, valid bool) {
	w.cacheValidRead = valid
	w.cacheReadAddr = addr
}

// Ready reports the buffer's ready signal as of the most recent Clock call:
// for a write, "the write has been queued"; for a read, "a 128-bit word is
// available on DataOut this cycle".
func (w *WriteBuffer) Ready() bool { return w.ready }

// DataOut returns the 128-bit word delivered to the cache this cycle. Only
// meaningful when Ready() is true and the buffer is in the Read state.
func (w *WriteBuffer) DataOut() [memory.WordBusBytes]byte { return w.dataOut }

// State exposes the current state, used by tests and the waveform sink.
func (w *WriteBuffer) State() State { return w.state }

func (w *WriteBuffer) alignedAddr(addr uint32) uint32 {
	return addr / w.cachelineSize * w.cachelineSize
}

func (w *WriteBuffer) isReadAddrQueued(addr uint32) bool {
	aligned := w.alignedAddr(addr)
	return w.queue.Any(func(e Entry) bool { return w.alignedAddr(e.Address) == aligned })
}

func (w *WriteBuffer) canAcceptWrite() bool {
	return w.state == Idle || w.state == Write
}

func (w *WriteBuffer) canAcceptRead() bool {
	if w.strict {
		return w.state == Idle && w.queue.IsEmpty()
	}
	return w.state == Idle
}

func (w *WriteBuffer) thereIsAWrite() bool {
	return w.cacheValidWrite || w.pending
}

// Clock advances the write buffer by exactly one cycle: the rising-edge
// state update, then the falling-edge RAM operation, mirroring the C++
// reference's updateState (sensitive to clock.pos()) and
// handleRead/handleWrite (sensitive to clock.neg()).
//
// Precondition: mem.OnRisingEdge has already been called for this cycle, so
// mem.Ready/mem.OutWord/mem.Busy reflect the current edge.
func (w *WriteBuffer) Clock(mem *memory.Memory) {
	w.risingEdge()
	w.fallingEdge(mem)
}

func (w *WriteBuffer) risingEdge() {
	if w.state != Read {
		w.ready = false
	}

	switch {
	case w.canAcceptWrite() && w.thereIsAWrite():
		w.acceptWriteRequest()
	case w.canAcceptRead() && w.cacheValidRead:
		w.acceptReadRequest()
	case w.state == Idle && !w.queue.IsEmpty():
		w.state = Write
	}
}

func (w *WriteBuffer) acceptWriteRequest() {
	addr, data := w.cacheWriteAddr, w.cacheWriteData
	if w.pending {
		addr, data = w.pendingWrite.Address, w.pendingWrite.Data
	}
	if w.queue.Len() < w.queue.Cap() {
		w.queue.Push(Entry{Address: addr, Data: data})
		w.ready = true
		w.state = Write
		w.pending = false
	} else {
		w.ready = false
		w.state = Write
		w.pending = true
		w.pendingWrite = Entry{Address: addr, Data: data}
	}
}

func (w *WriteBuffer) acceptReadRequest() {
	if w.isReadAddrQueued(w.cacheReadAddr) {
		w.state = Write // drain conflicting writes first
	} else {
		w.state = Read
		w.readAlignAdr = w.cacheReadAddr
		w.ramOpActive = false
	}
}

func (w *WriteBuffer) fallingEdge(mem *memory.Memory) {
	switch w.state {
	case Read:
		w.handleRead(mem)
	case Write:
		w.handleWrite(mem)
	case Idle:
		// nothing to do
	}
}

func (w *WriteBuffer) handleWrite(mem *memory.Memory) {
	if !w.ramOpActive {
		if w.queue.IsEmpty() {
			// Nothing is queued for RAM. Every path into Write leaves at
			// least one entry queued, so this guard is defensive only.
			return
		}
		entry := w.queue.Pop()
		mem.BeginRequest(entry.Address, entry.Data, true, 1)
		w.ramOpActive = true
		return
	}
	if mem.Ready() {
		w.ramRequests++
		w.ramOpActive = false
		w.state = Idle
	}
}

func (w *WriteBuffer) handleRead(mem *memory.Memory) {
	if !w.ramOpActive {
		mem.BeginRequest(w.readAlignAdr, 0, false, w.readsPerCacheline)
		w.ramOpActive = true
		return
	}
	if !mem.Ready() {
		return
	}

	w.dataOut = mem.OutWord()
	w.ready = true
	w.readWordIdx++

	if w.readWordIdx >= w.readsPerCacheline {
		w.ramRequests++
		w.ramOpActive = false
		w.readWordIdx = 0
		w.state = Idle
	}
}
