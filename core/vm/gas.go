package vm

import (
	"github.com/vmcore/suspendvm/common/math"
	"github.com/vmcore/suspendvm/params"
)

const (
	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20
)

// callGas implements EIP-150's "63/64ths" rule: a CALL/CALLCODE/
// DELEGATECALL/STATICCALL may only forward all but 1/64th of the gas
// remaining after the call's own constant and memory-expansion costs have
// been deducted, unless the caller explicitly requested less.
func callGas(isEIP150 bool, availableGas, base uint64, callCost *uint64Wrap) (uint64, error) {
	if isEIP150 {
		availableGas -= base
		gas := availableGas - availableGas/64
		if callCost == nil || !callCost.valid || gas < callCost.val {
			return gas, nil
		}
		return callCost.val, nil
	}
	if callCost == nil || !callCost.valid {
		return 0, ErrGasUintOverflow
	}
	return callCost.val, nil
}

// uint64Wrap lets callers distinguish "caller asked for gas X" from
// "caller didn't specify a gas argument at all" without an extra bool
// threaded through every call site.
type uint64Wrap struct {
	val   uint64
	valid bool
}

// maxRefundQuotient is the divisor applied to gasUsed to cap the total
// SSTORE/SELFDESTRUCT refund, per EIP-3529 (post-London; pre-London used 2).
func maxRefundQuotient(rules params.Rules) uint64 {
	if rules.IsEIP3529 {
		return 5
	}
	return 2
}

// capRefund bounds refund to gasUsed/maxRefundQuotient(rules).
func capRefund(rules params.Rules, gasUsed, refund uint64) uint64 {
	cap := gasUsed / maxRefundQuotient(rules)
	if refund > cap {
		return cap
	}
	return refund
}

// IntrinsicGas computes the up-front cost of a top-level call: the base
// transaction cost plus calldata cost (zero/non-zero byte rates depend on
// EIP-2028) plus, for contract creation, the EIP-3860 initcode word cost.
func IntrinsicGas(data []byte, isContractCreation bool, rules params.Rules) (uint64, error) {
	var gas uint64
	if isContractCreation {
		gas = params.TxGasContractCreation
	} else {
		gas = params.TxGas
	}
	if len(data) > 0 {
		var nz uint64
		for _, b := range data {
			if b != 0 {
				nz++
			}
		}
		nonZeroGas := params.TxDataNonZeroGasFrontier
		if rules.IsIstanbul {
			nonZeroGas = params.TxDataNonZeroGasEIP2028
		}

		product, overflow := math.SafeMul(nz, nonZeroGas)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = math.SafeAdd(gas, product); overflow {
			return 0, ErrGasUintOverflow
		}

		z := uint64(len(data)) - nz
		product, overflow = math.SafeMul(z, params.TxDataZeroGas)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = math.SafeAdd(gas, product); overflow {
			return 0, ErrGasUintOverflow
		}

		if isContractCreation && rules.IsEIP3860 {
			lenWords := toWordSize(uint64(len(data)))
			product, overflow = math.SafeMul(lenWords, params.InitCodeWordGas)
			if overflow {
				return 0, ErrGasUintOverflow
			}
			if gas, overflow = math.SafeAdd(gas, product); overflow {
				return 0, ErrGasUintOverflow
			}
		}
	}
	return gas, nil
}
