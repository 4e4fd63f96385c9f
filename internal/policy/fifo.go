package policy

import (
	"github.com/dominikw1/Cache-Simulator-sub000/internal/ringbuffer"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/saturating"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/simerr"
)

// FIFOPolicy evicts in admission order: the first index logged is the first
// popped, regardless of how often it is re-logged in between.
type FIFOPolicy struct {
	order   *ringbuffer.RingBuffer[int]
	present map[int]struct{}
}

// NewFIFO constructs a FIFO policy for a cache holding up to size entries.
func NewFIFO(size int) *FIFOPolicy {
	return &FIFOPolicy{
		order:   ringbuffer.New[int](size),
		present: make(map[int]struct{}, size),
	}
}

// LogUse enqueues index only if it is not already tracked; re-logging an
// already-present index is a no-op, matching the C++ reference (FIFO order
// is admission order, not access order).
func (p *FIFOPolicy) LogUse(index int) {
	if _, ok := p.present[index]; ok {
		return
	}
	p.order.Push(index)
	p.present[index] = struct{}{}
}

// Pop removes and returns the oldest distinct index admitted.
//
// Precondition: the policy tracks at least one index.
func (p *FIFOPolicy) Pop() int {
	if p.order.IsEmpty() {
		panic(simerr.SimulationFault{Component: "policy.fifo", Reason: "pop on empty policy"})
	}
	victim := p.order.Pop()
	delete(p.present, victim)
	return victim
}

// GateCost approximates the hardware cost of the bounded queue: ~8 flip-flop
// registers per slot, comparators for the already-present check, and an
// adder for the write pointer.
func (p *FIFOPolicy) GateCost() uint64 {
	return saturating.AddUint64(saturating.MulUint64(10, uint64(p.order.Cap())), 1)
}
