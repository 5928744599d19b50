// Package math provides overflow-checked arithmetic helpers for gas
// accounting, mirroring the helpers go-ethereum keeps in common/math.
package math

import "math/bits"

// SafeAdd returns x+y and reports whether the addition overflowed uint64.
func SafeAdd(x, y uint64) (uint64, bool) {
	sum, carry := bits.Add64(x, y, 0)
	return sum, carry != 0
}

// SafeSub returns x-y and reports whether the subtraction underflowed.
func SafeSub(x, y uint64) (uint64, bool) {
	diff, borrow := bits.Sub64(x, y, 0)
	return diff, borrow != 0
}

// SafeMul returns x*y and reports whether the multiplication overflowed uint64.
func SafeMul(x, y uint64) (uint64, bool) {
	if x == 0 || y == 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(x, y)
	return lo, hi != 0
}

// MaxUint64 is the maximum value representable in a uint64.
const MaxUint64 = 1<<64 - 1
