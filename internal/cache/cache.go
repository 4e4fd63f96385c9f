// Package cache implements the cache-core state machine, grounded on the
// C++ reference's Simulation/Cache.{h,cpp}. A Cache owns its own private
// write buffer and backing memory (so a data cache and an instruction cache
// never share cachelines, §4.8) and is driven one clock cycle at a time by
// whatever sits above it (internal/engine) via SetRequest + OnRisingEdge.
package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dominikw1/Cache-Simulator-sub000/internal/address"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/memory"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/policy"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/request"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/saturating"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/simerr"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/writebuffer"
)

// fpgaLogicElements is the primitive-gate stand-in for a fully associative
// cache's tag lookup table, grounded on the Intel Stratix 10 GX 2800 logic
// element count the C++ reference cites in calcGateCountForCachelineSelection.
const fpgaLogicElements = 2753000

// bitsInByte mirrors the C++ reference's BITS_IN_BYTE constant.
const bitsInByte = 8

// Config describes the geometry and policy of a single Cache instance.
type Config struct {
	NumCachelines uint32
	CachelineSize uint32
	CacheLatency  uint32
	MemoryLatency uint32
	Mapping       address.Mapping

	// PolicyKind only matters for FullyAssociative. PolicyExplicit records
	// whether the caller asked for a specific policy, so a Direct-mapped
	// cache can warn rather than silently ignore it.
	PolicyKind     policy.Kind
	PolicyExplicit bool
	Seed           int64

	// StrictReadAfterWrites, when set, makes this cache's write buffer wait
	// for an empty queue before servicing any read (SPEC §4.4).
	StrictReadAfterWrites bool
}

type line struct {
	Valid bool
	Tag   uint32
	Data  []byte
}

type state int

const (
	stateIdle state = iota
	stateLatency
	stateFAExtra
	stateMissFill
	stateWriteIssue
)

// Cache is one cache instance: its own storage, its own write buffer, and
// its own backing memory.
type Cache struct {
	cfg        Config
	decomposer *address.Decomposer
	log        *zap.SugaredLogger

	lines      []line
	numUsed    uint32
	tagToIndex map[uint32]int // FullyAssociative only
	pol        policy.Policy

	wb  *writebuffer.WriteBuffer
	mem *memory.Memory

	// request busses, latched by SetRequest.
	reqValid bool
	reqAddr  uint32
	reqData  uint32
	reqWe    bool

	st              state
	subs            []request.SubRequest
	subIdx          int
	readAcc         uint32
	cyclesRemaining uint32
	curDecomp       address.Decomposed
	curVictim       int
	missWordIdx     uint32
	pendingWordAddr uint32
	pendingWordData uint32

	ready   bool
	readOut uint32

	hits   uint64
	misses uint64
}

// New validates cfg and constructs a Cache with its own write buffer and
// memory. Returns a *simerr.ConfigError for an invalid geometry.
func New(cfg Config, log *zap.SugaredLogger) (*Cache, error) {
	if cfg.CachelineSize == 0 || cfg.CachelineSize%memory.WordBusBytes != 0 {
		return nil, &simerr.ConfigError{Field: "cacheline_size", Value: fmt.Sprint(cfg.CachelineSize), Reason: "must be a positive multiple of 16"}
	}
	if cfg.NumCachelines == 0 {
		return nil, &simerr.ConfigError{Field: "num_cachelines", Value: "0", Reason: "a constructed cache must have at least one line; use a bypass at the driver level to disable caching"}
	}
	if cfg.CacheLatency == 0 {
		return nil, &simerr.ConfigError{Field: "cache_latency", Value: "0", Reason: "must be at least 1 cycle"}
	}

	decomposer, err := address.NewDecomposer(cfg.Mapping, cfg.NumCachelines, cfg.CachelineSize)
	if err != nil {
		return nil, err
	}

	if log != nil {
		if cfg.MemoryLatency > 0 && cfg.MemoryLatency < cfg.CacheLatency {
			log.Warnw("memory latency is lower than cache latency", "memory_latency", cfg.MemoryLatency, "cache_latency", cfg.CacheLatency)
		}
		if cfg.Mapping == address.Direct && cfg.PolicyExplicit {
			log.Warnw("replacement policy is ignored for a direct-mapped cache", "policy", cfg.PolicyKind.String())
		}
	}

	c := &Cache{
		cfg:        cfg,
		decomposer: decomposer,
		log:        log,
		lines:      make([]line, cfg.NumCachelines),
		wb:         writebuffer.New(cfg.CachelineSize, cfg.StrictReadAfterWrites),
		mem:        memory.New(maxUint32(cfg.MemoryLatency, 1)),
	}
	for i := range c.lines {
		c.lines[i].Data = make([]byte, cfg.CachelineSize)
	}
	if cfg.Mapping == address.FullyAssociative {
		c.tagToIndex = make(map[uint32]int, cfg.NumCachelines)
		c.pol = policy.New(cfg.PolicyKind, int(cfg.NumCachelines), cfg.Seed)
	} else {
		c.pol = policy.NonePolicy{}
	}
	return c, nil
}

func maxUint32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// SetRequest presents a request on the driver->cache bus for the next
// OnRisingEdge call. valid=false deasserts it.
func (c *Cache) SetRequest(addr, data uint32, we, valid bool) {
	c.reqValid = valid
	c.reqAddr = addr
	c.reqData = data
	c.reqWe = we
}

// Ready reports whether the result of the most recently completed request
// is valid this cycle.
func (c *Cache) Ready() bool { return c.ready }

// ReadData returns the accumulated load value, valid only the cycle Ready()
// is true for a load request.
func (c *Cache) ReadData() uint32 { return c.readOut }

// Hits and Misses report running totals at the sub-request granularity.
func (c *Cache) Hits() uint64   { return c.hits }
func (c *Cache) Misses() uint64 { return c.misses }

// RAMRequests reports how many requests this cache's write buffer has
// completed against its private memory.
func (c *Cache) RAMRequests() uint64 { return c.wb.RAMRequests() }

// OnRisingEdge advances the cache, its write buffer, and its memory by
// exactly one cycle.
func (c *Cache) OnRisingEdge() {
	c.mem.OnRisingEdge()
	c.driveWriteBufferBus()
	c.wb.Clock(c.mem)
	c.step()
}

func (c *Cache) driveWriteBufferBus() {
	switch c.st {
	case stateMissFill:
		alignedAddr := c.subs[c.subIdx].Addr / c.cfg.CachelineSize * c.cfg.CachelineSize
		c.wb.SetCacheReadRequest(alignedAddr, true)
		c.wb.SetCacheWriteRequest(0, 0, false)
	case stateWriteIssue:
		c.wb.SetCacheWriteRequest(c.pendingWordAddr, c.pendingWordData, true)
		c.wb.SetCacheReadRequest(0, false)
	default:
		c.wb.SetCacheReadRequest(0, false)
		c.wb.SetCacheWriteRequest(0, 0, false)
	}
}

func (c *Cache) step() {
	switch c.st {
	case stateIdle:
		c.ready = false
		if !c.reqValid {
			return
		}
		c.subs = request.Split(request.Request{Addr: c.reqAddr, Data: c.reqData, We: c.reqWe}, c.cfg.CachelineSize)
		c.subIdx = 0
		c.readAcc = 0
		c.beginSub()

	case stateLatency:
		c.cyclesRemaining--
		if c.cyclesRemaining > 0 {
			return
		}
		if c.cfg.Mapping == address.FullyAssociative {
			c.st = stateFAExtra
			c.cyclesRemaining = 2
			return
		}
		c.resolveLookup()

	case stateFAExtra:
		c.cyclesRemaining--
		if c.cyclesRemaining > 0 {
			return
		}
		c.resolveLookup()

	case stateMissFill:
		if !c.wb.Ready() {
			return
		}
		word := c.wb.DataOut()
		l := &c.lines[c.curVictim]
		copy(l.Data[c.missWordIdx*memory.WordBusBytes:], word[:])
		c.missWordIdx++
		if c.missWordIdx*memory.WordBusBytes < c.cfg.CachelineSize {
			return
		}
		l.Valid = true
		l.Tag = c.curDecomp.Tag
		if c.cfg.Mapping == address.FullyAssociative {
			c.tagToIndex[c.curDecomp.Tag] = c.curVictim
		}
		c.afterLookupResolved()

	case stateWriteIssue:
		if !c.wb.Ready() {
			return
		}
		c.advanceOrFinish()
	}
}

func (c *Cache) beginSub() {
	c.cyclesRemaining = c.cfg.CacheLatency
	c.st = stateLatency
}

func (c *Cache) resolveLookup() {
	sub := c.subs[c.subIdx]
	decomp := c.decomposer.Decompose(sub.Addr)
	c.curDecomp = decomp

	var hit bool
	switch c.cfg.Mapping {
	case address.Direct:
		l := &c.lines[decomp.Index]
		hit = l.Valid && l.Tag == decomp.Tag
		c.curVictim = int(decomp.Index)
	default: // FullyAssociative
		idx, ok := c.tagToIndex[decomp.Tag]
		hit = ok
		if hit {
			c.curVictim = idx
		}
	}

	if hit {
		c.hits++
		c.afterLookupResolved()
		return
	}

	c.misses++
	c.curVictim = c.selectVictim()
	c.missWordIdx = 0
	c.st = stateMissFill
}

func (c *Cache) selectVictim() int {
	if c.cfg.Mapping == address.Direct {
		return int(c.curDecomp.Index)
	}
	if c.numUsed < c.cfg.NumCachelines {
		v := int(c.numUsed)
		c.numUsed++
		return v
	}
	v := c.pol.Pop()
	oldTag := c.lines[v].Tag
	delete(c.tagToIndex, oldTag)
	return v
}

func (c *Cache) afterLookupResolved() {
	if c.cfg.Mapping == address.FullyAssociative {
		c.pol.LogUse(c.curVictim)
	}

	sub := c.subs[c.subIdx]
	l := &c.lines[c.curVictim]
	offset := c.curDecomp.Offset

	if sub.We {
		writeBytesLE(l.Data, offset, sub.Data, sub.Size)
		wordOffset, wordVal := enclosingWord(l.Data, offset, c.cfg.CachelineSize)
		lineBase := sub.Addr - offset
		c.pendingWordAddr = lineBase + wordOffset
		c.pendingWordData = wordVal
		c.st = stateWriteIssue
		return
	}

	val := readBytesLE(l.Data, offset, sub.Size)
	c.readAcc = request.ApplyPartialRead(sub, c.readAcc, val)
	c.advanceOrFinish()
}

func (c *Cache) advanceOrFinish() {
	c.subIdx++
	if c.subIdx < len(c.subs) {
		c.beginSub()
		return
	}
	c.ready = true
	if !c.reqWe {
		c.readOut = c.readAcc
	}
	c.st = stateIdle
}

func writeBytesLE(data []byte, offset uint32, value uint32, size uint8) {
	for i := uint8(0); i < size; i++ {
		data[int(offset)+int(i)] = byte(value >> (8 * i))
	}
}

func readBytesLE(data []byte, offset uint32, size uint8) uint32 {
	var v uint32
	for i := uint8(0); i < size; i++ {
		v |= uint32(data[int(offset)+int(i)]) << (8 * i)
	}
	return v
}

// enclosingWord returns the word-sized byte offset starting at offset
// (clamped so it never overruns the cacheline), and the current
// little-endian value of that word after any byte write has already landed
// in data. Starting exactly at offset, rather than flooring to a 4-byte
// boundary, is what guarantees the word fully covers the bytes the write
// just touched: Split already guarantees offset+size <= cachelineSize, so
// the only clamping ever needed is pulling the window back from the end of
// the line.
func enclosingWord(data []byte, offset uint32, cachelineSize uint32) (uint32, uint32) {
	wordOffset := offset
	if wordOffset+4 > cachelineSize {
		wordOffset = cachelineSize - 4
	}
	return wordOffset, readBytesLE(data, wordOffset, 4)
}

// GateCount estimates the primitive gate count of this cache, grounded on
// Cache.cpp's calcGateCountForCachelineSelection / calcGateCountForInternalTable.
func (c *Cache) GateCount() uint64 {
	selection := c.selectionGateCount()
	table := c.internalTableGateCount()
	total := saturating.AddUint64(selection, table)
	return saturating.AddUint64(total, c.pol.GateCost())
}

func (c *Cache) internalTableGateCount() uint64 {
	n := uint64(c.cfg.NumCachelines)
	bits := saturating.AddUint64(saturating.MulUint64(bitsInByte, uint64(c.cfg.CachelineSize)), uint64(c.decomposer.TagBits()))
	return saturating.MulUint64(4, saturating.MulUint64(n, bits))
}

func (c *Cache) selectionGateCount() uint64 {
	n := uint64(c.cfg.NumCachelines)
	cls := uint64(c.cfg.CachelineSize)
	andGates := saturating.MulUint64(n, saturating.MulUint64(cls, bitsInByte))
	orGates := saturating.MulUint64(bitsInByte, cls)
	selector := saturating.AddUint64(andGates, orGates)
	const decomposingAddr = 1

	if c.cfg.Mapping != address.FullyAssociative {
		return saturating.AddUint64(decomposingAddr, selector)
	}

	validCachelineCntr := uint64(bitsInByte) * 32
	return saturating.SumUint64(fpgaLogicElements, validCachelineCntr, decomposingAddr, selector)
}
