package vm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestMemoryResizeRoundsToWord(t *testing.T) {
	m := NewMemory()
	m.Resize(toWordSize(33) * 32) // a 33-byte touch bills a full 2nd word
	require.Equal(t, 64, m.Len())
}

func TestMemorySetAndGetCopy(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	m.Set(0, 4, []byte{1, 2, 3, 4})
	got := m.GetCopy(0, 4)
	require.Equal(t, []byte{1, 2, 3, 4}, got)

	// reads past the written bytes but within the resized extent are zero.
	rest := m.GetCopy(4, 4)
	require.Equal(t, []byte{0, 0, 0, 0}, rest)
}

func TestMemorySet32(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	m.Set32(0, uint256.NewInt(0x0102))
	got := m.GetCopy(0, 32)
	require.Equal(t, byte(0x01), got[30])
	require.Equal(t, byte(0x02), got[31])
}

func TestMemoryCopyHandlesOverlap(t *testing.T) {
	m := NewMemory()
	m.Resize(64)
	m.Set(0, 8, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	m.Copy(2, 0, 8) // MCOPY dst=2 overlapping forward with src=0
	require.Equal(t, []byte{1, 2, 1, 2, 3, 4, 5, 6, 7, 8}, m.GetCopy(0, 10))
}

// memoryGasCost implements cost(words) = 3*words + words^2/512, charged only
// on the delta since the memory's high-water mark (spec 4.2).
func TestMemoryGasCostQuadratic(t *testing.T) {
	m := NewMemory()
	first, err := memoryGasCost(m, 32) // 1 word: 3*1 + 1/512 = 3
	require.NoError(t, err)
	require.Equal(t, uint64(3), first)
	m.Resize(32)

	// growing to 64 words charges only the incremental cost, not the total.
	total, err := memoryGasCost(m, 64*32)
	require.NoError(t, err)
	wantTotal := 3*64 + 64*64/512
	require.Equal(t, uint64(wantTotal)-3, total)
}

func TestMemoryGasCostNoChargeWithinExtent(t *testing.T) {
	m := NewMemory()
	_, err := memoryGasCost(m, 64)
	require.NoError(t, err)
	m.Resize(64)

	again, err := memoryGasCost(m, 32) // already covered, no further charge
	require.NoError(t, err)
	require.Equal(t, uint64(0), again)
}
