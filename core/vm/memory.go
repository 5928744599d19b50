package vm

import (
	"github.com/holiman/uint256"
)

// Memory is the EVM's word-addressable, byte-granular, zero-initialized
// linear memory. It only ever grows (in 32-byte words) and is charged for
// via the quadratic memory-expansion gas formula in gas_table.go, following
// go-ethereum's core/vm/memory.go.
type Memory struct {
	store       []byte
	lastGasCost uint64
}

// NewMemory creates a new, empty Memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Set sets offset:offset+len(value) in memory to value.
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	if offset+size > uint64(len(m.store)) {
		panic("invalid memory: store size exceeded")
	}
	copy(m.store[offset:offset+size], value)
}

// Set32 sets the 32 bytes starting at offset to the big-endian value of val,
// left-padded with zeros.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	if offset+32 > uint64(len(m.store)) {
		panic("invalid memory: store size exceeded")
	}
	b32 := val.Bytes32()
	copy(m.store[offset:offset+32], b32[:])
}

// Resize grows the memory to size bytes (rounded up to a whole word by the
// caller via toWordSize), if it isn't already that large. Never shrinks.
func (m *Memory) Resize(size uint64) {
	if uint64(m.Len()) < size {
		m.store = append(m.store, make([]byte, size-uint64(m.Len()))...)
	}
}

// GetCopy returns offset:offset+size as a freshly allocated slice.
func (m *Memory) GetCopy(offset, size int64) []byte {
	if size == 0 {
		return nil
	}
	if len(m.store) > int(offset) {
		cpy := make([]byte, size)
		copy(cpy, m.store[offset:offset+size])
		return cpy
	}
	return nil
}

// GetPtr returns offset:offset+size as a slice sharing the memory backing
// array; callers must not retain it across further memory writes.
func (m *Memory) GetPtr(offset, size int64) []byte {
	if size == 0 {
		return nil
	}
	if len(m.store) > int(offset) {
		return m.store[offset : offset+size]
	}
	return nil
}

// Len returns the current memory size in bytes.
func (m *Memory) Len() int { return len(m.store) }

// Data returns the backing store directly.
func (m *Memory) Data() []byte { return m.store }

// Copy implements the MCOPY (EIP-5656) semantics: copy size bytes from src
// to dst within the same memory, correctly handling overlap.
func (m *Memory) Copy(dst, src, size uint64) {
	if size == 0 {
		return
	}
	copy(m.store[dst:dst+size], m.store[src:src+size])
}

// memoryGasCost and toWordSize live in gas_table.go, next to the rest of
// the dynamic gas formulas they're used by.
