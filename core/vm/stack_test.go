package vm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestStackPushPop(t *testing.T) {
	s := newstack()
	defer returnStack(s)

	s.push(uint256.NewInt(1))
	s.push(uint256.NewInt(2))
	s.push(uint256.NewInt(3))
	require.Equal(t, 3, s.len())

	top := s.pop()
	require.Equal(t, uint64(3), top.Uint64())
	require.Equal(t, 2, s.len())
	require.Equal(t, uint64(2), s.peek().Uint64())
}

func TestStackDupSwap(t *testing.T) {
	s := newstack()
	defer returnStack(s)

	s.push(uint256.NewInt(10))
	s.push(uint256.NewInt(20))
	s.dup(2) // duplicate the 10, now [10, 20, 10]
	require.Equal(t, 3, s.len())
	require.Equal(t, uint64(10), s.peek().Uint64())

	s.swap(2) // swap top (10) with 2nd-from-top (20): [10, 10, 20]
	require.Equal(t, uint64(20), s.peek().Uint64())
	require.Equal(t, uint64(10), s.Back(1).Uint64())
}

func TestStackBackIsZeroIndexedFromTop(t *testing.T) {
	s := newstack()
	defer returnStack(s)
	s.push(uint256.NewInt(1))
	s.push(uint256.NewInt(2))
	s.push(uint256.NewInt(3))

	require.Equal(t, uint64(3), s.Back(0).Uint64())
	require.Equal(t, uint64(2), s.Back(1).Uint64())
	require.Equal(t, uint64(1), s.Back(2).Uint64())
}

// P1: depth bounds are enforced by the interpreter's min/maxStack checks
// (built from jump_table.go), not by Stack itself; Stack is a bare LIFO and
// this test only pins down the capacity constant those checks are built on.
func TestStackMaxStackSizeConstant(t *testing.T) {
	require.Equal(t, 1024, maxStackSize)
}
