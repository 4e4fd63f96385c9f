package policy

import (
	"container/list"

	"github.com/dominikw1/Cache-Simulator-sub000/internal/saturating"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/simerr"
)

// LRUPolicy maintains a doubly-linked recency list (most-recently-used at
// the front) plus an index -> list-node map for O(1) move-to-front on reuse.
type LRUPolicy struct {
	size    int
	recency *list.List
	nodes   map[int]*list.Element
}

// NewLRU constructs an LRU policy for a cache holding up to size entries.
func NewLRU(size int) *LRUPolicy {
	return &LRUPolicy{
		size:    size,
		recency: list.New(),
		nodes:   make(map[int]*list.Element, size),
	}
}

// LogUse moves index to the front of the recency list, inserting it if not
// already tracked.
//
// Precondition: index is already tracked, or the list has room for one more.
func (p *LRUPolicy) LogUse(index int) {
	if node, ok := p.nodes[index]; ok {
		p.recency.MoveToFront(node)
		return
	}
	if p.recency.Len() >= p.size {
		panic(simerr.SimulationFault{Component: "policy.lru", Reason: "logUse on full policy with unseen index"})
	}
	p.nodes[index] = p.recency.PushFront(index)
}

// Pop removes and returns the least-recently-used index.
//
// Precondition: the policy tracks at least one index.
func (p *LRUPolicy) Pop() int {
	back := p.recency.Back()
	if back == nil {
		panic(simerr.SimulationFault{Component: "policy.lru", Reason: "pop on empty policy"})
	}
	p.recency.Remove(back)
	victim := back.Value.(int)
	delete(p.nodes, victim)
	return victim
}

// GateCost approximates the hardware cost of an amortized-O(1) LRU: a
// linked-list-as-register-file storing ~32 bits per entry, plus a shared
// lookup table sized the same as the cache's own FA tag table.
func (p *LRUPolicy) GateCost() uint64 {
	const faLookupTableGates = 2753000
	return saturating.AddUint64(saturating.MulUint64(32, uint64(p.size)), faLookupTableGates)
}
