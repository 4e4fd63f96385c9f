package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectDecomposition(t *testing.T) {
	// 64-byte lines -> 6 offset bits; 256 lines -> 8 index bits; 18 tag bits.
	d, err := NewDecomposer(Direct, 256, 64)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), d.OffsetBits())
	assert.Equal(t, uint8(8), d.IndexBits())
	assert.Equal(t, uint8(18), d.TagBits())

	addr := uint32(0b000000000000000001_00000010_000011) // tag=1, index=2, offset=3
	got := d.Decompose(addr)
	assert.Equal(t, Decomposed{Tag: 1, Index: 2, Offset: 3}, got)
}

func TestFullyAssociativeDecomposition(t *testing.T) {
	d, err := NewDecomposer(FullyAssociative, 0, 64)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), d.OffsetBits())
	assert.Equal(t, uint8(0), d.IndexBits())
	assert.Equal(t, uint8(26), d.TagBits())

	got := d.Decompose(0xABCDEF12)
	assert.Equal(t, uint32(0), got.Index)
	assert.Equal(t, uint32(0xABCDEF12)&0x3F, got.Offset)
}

func TestNonPowerOfTwoCachelinesRoundsUpIndexBits(t *testing.T) {
	// 10 lines needs ceil(log2(10)) = 4 index bits.
	d, err := NewDecomposer(Direct, 10, 64)
	require.NoError(t, err)
	assert.Equal(t, uint8(4), d.IndexBits())
}

func TestZeroCachelineSizeIsConfigError(t *testing.T) {
	_, err := NewDecomposer(Direct, 10, 0)
	assert.Error(t, err)
}
