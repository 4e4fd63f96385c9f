// Package address implements address decomposition into tag/index/offset,
// grounded on the C++ reference's Simulation/DecomposedAddress.h and the
// Direct/Fully_Associative specializations of Cache::decomposeAddress and
// Cache::precomputeAddressDecompositionBits.
package address

import (
	"math/bits"

	"github.com/dominikw1/Cache-Simulator-sub000/internal/simerr"
)

// Mapping selects how an address maps to a cacheline slot.
type Mapping int

const (
	Direct Mapping = iota
	FullyAssociative
)

func (m Mapping) String() string {
	if m == Direct {
		return "direct"
	}
	return "fully-associative"
}

// Decomposed is an address split into its tag, index, and offset
// components for a particular cache geometry.
type Decomposed struct {
	Tag    uint32
	Index  uint32
	Offset uint32
}

// Decomposer precomputes the bit widths and masks needed to decompose an
// address for a fixed mapping/geometry pair, so that Decompose itself is a
// handful of shifts and masks rather than a reciprocal log2 every call.
type Decomposer struct {
	mapping Mapping

	offsetBits uint8
	indexBits  uint8
	tagBits    uint8

	offsetMask uint32
	indexMask  uint32
	tagMask    uint32
}

// NewDecomposer precomputes the decomposition bit widths for mapping, a
// cache with numCachelines lines of cachelineSize bytes each. It returns a
// *simerr.ConfigError if the geometry is invalid (zero cachelineSize isn't
// reachable here; internal/cache validates that before constructing this).
func NewDecomposer(mapping Mapping, numCachelines, cachelineSize uint32) (*Decomposer, error) {
	if cachelineSize == 0 {
		return nil, &simerr.ConfigError{Field: "cacheline_size", Value: "0", Reason: "must be positive"}
	}

	offsetBits := safeCeilLog2(cachelineSize)

	d := &Decomposer{mapping: mapping, offsetBits: offsetBits}
	d.offsetMask = lowBitsMask(offsetBits)

	switch mapping {
	case Direct:
		if numCachelines == 0 {
			return nil, &simerr.ConfigError{Field: "num_cachelines", Value: "0", Reason: "direct mapping requires at least one cacheline"}
		}
		d.indexBits = safeCeilLog2(numCachelines)
		d.indexMask = lowBitsMask(d.indexBits)
		if int(offsetBits)+int(d.indexBits) > 32 {
			return nil, &simerr.ConfigError{Field: "cachelines/cacheline_size", Value: "", Reason: "geometry needs more than 32 address bits"}
		}
		d.tagBits = 32 - offsetBits - d.indexBits
	case FullyAssociative:
		d.indexBits = 0
		d.indexMask = 0
		if offsetBits > 32 {
			return nil, &simerr.ConfigError{Field: "cacheline_size", Value: "", Reason: "offset needs more than 32 address bits"}
		}
		d.tagBits = 32 - offsetBits
	}
	d.tagMask = lowBitsMask(d.tagBits)

	return d, nil
}

// OffsetBits, IndexBits, TagBits expose the precomputed bit widths, used by
// internal/cache's gate-count estimate.
func (d *Decomposer) OffsetBits() uint8 { return d.offsetBits }
func (d *Decomposer) IndexBits() uint8  { return d.indexBits }
func (d *Decomposer) TagBits() uint8    { return d.tagBits }

// Decompose splits addr into tag/index/offset per the precomputed geometry.
func (d *Decomposer) Decompose(addr uint32) Decomposed {
	switch d.mapping {
	case Direct:
		return Decomposed{
			Tag:    (addr >> (d.offsetBits + d.indexBits)) & d.tagMask,
			Index:  (addr >> d.offsetBits) & d.indexMask,
			Offset: addr & d.offsetMask,
		}
	default: // FullyAssociative
		return Decomposed{
			Tag:    (addr >> d.offsetBits) & d.tagMask,
			Index:  0,
			Offset: addr & d.offsetMask,
		}
	}
}

// safeCeilLog2 returns ceil(log2(val)) for val > 0.
//
// Precondition: val != 0.
func safeCeilLog2(val uint32) uint8 {
	if val == 0 {
		panic(simerr.SimulationFault{Component: "address", Reason: "safeCeilLog2(0) is undefined"})
	}
	highestSetBit := 31 - bits.LeadingZeros32(val)
	if uint32(1)<<uint(highestSetBit) == val {
		return uint8(highestSetBit)
	}
	return uint8(highestSetBit + 1)
}

// lowBitsMask returns a mask of the lowest n bits (0 for n==0, all-ones for
// n>=32).
func lowBitsMask(n uint8) uint32 {
	if n == 0 {
		return 0
	}
	if n >= 32 {
		return 0xFFFFFFFF
	}
	return uint32(1)<<n - 1
}
