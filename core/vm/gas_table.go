package vm

import (
	"github.com/holiman/uint256"

	"github.com/vmcore/suspendvm/common"
	"github.com/vmcore/suspendvm/params"
)

// toWordSize rounds size up to the next whole 32-byte word count, the unit
// memory expansion and several dynamic-gas formulas are priced in.
func toWordSize(size uint64) uint64 {
	if size > 0xFFFFFFFFE0 {
		return 0xFFFFFFFFE0/32 + 1
	}
	return (size + 31) / 32
}

// memoryGasCost implements the quadratic memory-expansion formula:
// cost(words) = 3*words + words^2/512, charged incrementally as the memory
// size grows, exactly as go-ethereum's core/vm/gas_table.go memoryGasCost.
func memoryGasCost(mem *Memory, newMemSize uint64) (uint64, error) {
	if newMemSize == 0 {
		return 0, nil
	}
	if newMemSize > 0x1FFFFFFFE0 {
		return 0, ErrGasUintOverflow
	}
	newMemSizeWords := toWordSize(newMemSize)
	newMemSize = newMemSizeWords * 32

	if newMemSize > uint64(mem.Len()) {
		square := newMemSizeWords * newMemSizeWords
		linCoef := newMemSizeWords * params.MemoryGas
		quadCoef := square / params.QuadCoeffDiv
		newTotalFee := linCoef + quadCoef

		fee := newTotalFee - mem.lastGasCost
		mem.lastGasCost = newTotalFee
		return fee, nil
	}
	return 0, nil
}

func memorySize(stack *Stack, offsetIdx, sizeIdx int) (uint64, error) {
	size := stack.Back(sizeIdx)
	if size.IsZero() {
		return 0, nil
	}
	offset := stack.Back(offsetIdx)
	need, overflow := new(uint256.Int).AddOverflow(offset, size)
	if overflow || !need.IsUint64() {
		return 0, ErrGasUintOverflow
	}
	return need.Uint64(), nil
}

type dynamicGasFunc func(in *Interpreter, scope *ScopeContext, memorySize uint64) (uint64, error)

func pureMemoryGas(fn func(*ScopeContext) (uint64, error)) dynamicGasFunc {
	return func(in *Interpreter, scope *ScopeContext, memorySize uint64) (uint64, error) {
		var gas uint64
		if memorySize > 0 {
			var err error
			gas, err = memoryGasCost(scope.Memory, memorySize)
			if err != nil {
				return 0, err
			}
		}
		if fn != nil {
			extra, err := fn(scope)
			if err != nil {
				return 0, err
			}
			gas += extra
		}
		return gas, nil
	}
}

func gasKeccak256(in *Interpreter, scope *ScopeContext, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(scope.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	size := scope.Stack.Back(1)
	words := toWordSize(size.Uint64())
	return gas + words*params.Keccak256WordGas, nil
}

func gasExtCodeCopy(in *Interpreter, scope *ScopeContext, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(scope.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	addr := common.Address(scope.Stack.peek().Bytes20())
	if in.evm.Rules.IsEIP2929 {
		warm := in.evm.StateDB.AddressInAccessList(addr)
		if !warm {
			in.evm.StateDB.AddAddressToAccessList(addr)
			gas += params.ColdAccountAccessCostEIP2929 - params.WarmStorageReadCostEIP2929
		}
	}
	size := scope.Stack.Back(3)
	words := toWordSize(size.Uint64())
	return gas + words*params.CopyGas, nil
}

func gasMemoryCopyWords(wordGas uint64, sizeIdx int) dynamicGasFunc {
	return func(in *Interpreter, scope *ScopeContext, memorySize uint64) (uint64, error) {
		gas, err := memoryGasCost(scope.Memory, memorySize)
		if err != nil {
			return 0, err
		}
		size := scope.Stack.Back(sizeIdx)
		words := toWordSize(size.Uint64())
		return gas + words*wordGas, nil
	}
}

// gasAccountCheck returns a dynamicGas function for the EXTCODESIZE/
// EXTCODEHASH/BALANCE family: pre-Berlin these opcodes have a flat constant
// cost already folded into the jump table entry and this adds nothing; from
// Berlin on enable2929 zeroes that constant cost and this returns the full
// EIP-2929 warm (100) or cold (2600) access cost.
func gasAccountCheck() dynamicGasFunc {
	return func(in *Interpreter, scope *ScopeContext, memorySize uint64) (uint64, error) {
		addr := common.Address(scope.Stack.peek().Bytes20())
		if !in.evm.Rules.IsEIP2929 {
			return 0, nil
		}
		if in.evm.StateDB.AddressInAccessList(addr) {
			return params.WarmStorageReadCostEIP2929, nil
		}
		in.evm.StateDB.AddAddressToAccessList(addr)
		return params.ColdAccountAccessCostEIP2929, nil
	}
}

// gasSLoad implements EIP-2929 cold/warm SLOAD pricing (post-Berlin) and
// the flat EIP-1884/2200/150 costs for earlier hardforks.
func gasSLoad(in *Interpreter, scope *ScopeContext, memorySize uint64) (uint64, error) {
	loc := scope.Stack.peek()
	slot := common.Hash(loc.Bytes32())
	addr := scope.Contract.Address()
	rules := in.evm.Rules
	if rules.IsEIP2929 {
		_, warm := in.evm.StateDB.SlotInAccessList(addr, slot)
		if warm {
			return params.WarmStorageReadCostEIP2929, nil
		}
		in.evm.StateDB.AddSlotToAccessList(addr, slot)
		return params.ColdSloadCostEIP2929, nil
	}
	if rules.IsIstanbul {
		return params.SloadGasEIP1884, nil
	}
	if rules.IsEIP150 {
		return params.SloadGasEIP150, nil
	}
	return 50, nil
}

// gasSStore implements the EIP-2200 (Istanbul) net-gas-metering formula,
// the EIP-2929 (Berlin) cold/warm adjustment on top of it, and the EIP-3529
// (London) refund-cap/clear-schedule change. Pre-Istanbul hardforks use the
// simpler flat set/reset/clear schedule with no notion of "original" value.
//
// Istanbul through pre-Berlin charges a flat params.SloadGasEIP2200 for the
// noop/dirty-update cases; Berlin onward replaces that flat charge with a
// per-access cold surcharge (params.ColdSloadCostEIP2929, charged once per
// slot per call and added on top of the warm read cost), exactly as
// go-ethereum's gasSStoreEIP2929 subtracts ColdSloadCostEIP2929 from the
// reset-existing-slot cost: that slot's cold surcharge was already billed by
// the access-list check above, so SstoreResetGasEIP2200 must not be charged
// twice for the same cold access.
func gasSStore(in *Interpreter, scope *ScopeContext, memorySize uint64) (uint64, error) {
	rules := in.evm.Rules
	loc := scope.Stack.peek()
	slot := common.Hash(loc.Bytes32())
	addr := scope.Contract.Address()
	newVal := common.Hash(scope.Stack.Back(1).Bytes32())

	if !rules.IsEIP2200 {
		current, ok := in.needStorage(addr, slot)
		if !ok {
			return 0, nil
		}
		switch {
		case current == (common.Hash{}) && newVal != (common.Hash{}):
			return params.SstoreSetGas, nil
		case current != (common.Hash{}) && newVal == (common.Hash{}):
			in.evm.StateDB.AddRefund(params.SstoreRefundGas)
			return params.SstoreClearGas, nil
		default:
			return params.SstoreResetGas, nil
		}
	}

	if scope.Contract.Gas <= params.SstoreSentryGasEIP2200 {
		return 0, ErrOutOfGas
	}

	var coldCost uint64
	if rules.IsEIP2929 {
		_, warm := in.evm.StateDB.SlotInAccessList(addr, slot)
		if !warm {
			in.evm.StateDB.AddSlotToAccessList(addr, slot)
			coldCost = params.ColdSloadCostEIP2929
		}
	}

	current, ok := in.needStorage(addr, slot)
	if !ok {
		return 0, nil
	}
	original := in.evm.StateDB.GetCommittedState(addr, slot)

	clearRefund := params.SstoreClearsScheduleRefundEIP2200
	if rules.IsEIP3529 {
		clearRefund = params.SstoreClearsScheduleRefundEIP3529
	}

	// readGas is what a plain warm SLOAD costs under the active ruleset:
	// params.WarmStorageReadCostEIP2929 once EIP-2929 is active (the cold
	// surcharge for this access is already in coldCost), otherwise the
	// flat pre-Berlin params.SloadGasEIP2200.
	readGas := params.SloadGasEIP2200
	if rules.IsEIP2929 {
		readGas = params.WarmStorageReadCostEIP2929
	}

	if current == newVal {
		return coldCost + readGas, nil
	}
	if original == current {
		if original == (common.Hash{}) {
			return coldCost + params.SstoreSetGasEIP2200, nil
		}
		if newVal == (common.Hash{}) {
			in.evm.StateDB.AddRefund(clearRefund)
		}
		if rules.IsEIP2929 {
			return coldCost + (params.SstoreResetGasEIP2200 - params.ColdSloadCostEIP2929), nil
		}
		return coldCost + params.SstoreResetGasEIP2200, nil
	}
	if original != (common.Hash{}) {
		if current == (common.Hash{}) {
			in.evm.StateDB.SubRefund(clearRefund)
		}
		if newVal == (common.Hash{}) {
			in.evm.StateDB.AddRefund(clearRefund)
		}
	}
	if original == newVal {
		if original == (common.Hash{}) {
			in.evm.StateDB.AddRefund(params.SstoreSetGasEIP2200 - readGas)
		} else if rules.IsEIP2929 {
			in.evm.StateDB.AddRefund(params.SstoreResetGasEIP2200 - params.ColdSloadCostEIP2929 - readGas)
		} else {
			in.evm.StateDB.AddRefund(params.SstoreResetGasEIP2200 - readGas)
		}
	}
	return coldCost + readGas, nil
}

func gasExp(in *Interpreter, scope *ScopeContext, memorySize uint64) (uint64, error) {
	expByte := params.ExpByteFrontier
	if in.evm.Rules.IsEIP158 {
		expByte = params.ExpByteEIP158
	}
	exponent := scope.Stack.Back(1)
	byteLen := (exponent.BitLen() + 7) / 8
	return params.ExpGas + expByte*uint64(byteLen), nil
}

func gasLog(n int) dynamicGasFunc {
	return func(in *Interpreter, scope *ScopeContext, memorySize uint64) (uint64, error) {
		gas, err := memoryGasCost(scope.Memory, memorySize)
		if err != nil {
			return 0, err
		}
		gas += uint64(n) * params.LogTopicGas
		size := scope.Stack.Back(1)
		if !size.IsUint64() {
			return 0, ErrGasUintOverflow
		}
		gas += size.Uint64() * params.LogDataGas
		return gas, nil
	}
}

func gasCallLike(op OpCode) dynamicGasFunc {
	return func(in *Interpreter, scope *ScopeContext, memorySize uint64) (uint64, error) {
		gas, err := memoryGasCost(scope.Memory, memorySize)
		if err != nil {
			return 0, err
		}
		rules := in.evm.Rules
		addr := common.Address(scope.Stack.Back(1).Bytes20())

		if rules.IsEIP2929 {
			if in.evm.StateDB.AddressInAccessList(addr) {
				gas += params.WarmStorageReadCostEIP2929
			} else {
				in.evm.StateDB.AddAddressToAccessList(addr)
				gas += params.ColdAccountAccessCostEIP2929
			}
		} else if rules.IsEIP150 {
			gas += params.CallGasEIP150
		}

		var transfersValue bool
		if op == CALL || op == CALLCODE {
			transfersValue = !scope.Stack.Back(2).IsZero()
		}
		// A value-transferring CALL made in a read-only context is rejected
		// by opCall itself before it ever reaches evm.Call; skip faulting
		// the target's existence here so that doomed call doesn't force a
		// Suspension over state its outcome doesn't depend on.
		if op == CALL && transfersValue && !in.evm.readOnly {
			if _, ok := in.needBalance(addr); !ok {
				return 0, nil
			}
			if _, ok := in.needNonce(addr); !ok {
				return 0, nil
			}
			if _, ok := in.needCode(addr); !ok {
				return 0, nil
			}
			if in.evm.StateDB.Empty(addr) {
				gas += params.CallNewAccountGas
			}
		}
		if transfersValue {
			gas += params.CallValueTransferGas
		}
		return gas, nil
	}
}

func gasCreate(in *Interpreter, scope *ScopeContext, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(scope.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	if in.evm.Rules.IsEIP3860 {
		size := scope.Stack.Back(2)
		if size.Uint64() > params.MaxInitCodeSize {
			return 0, ErrMaxInitCodeSizeExceeded
		}
		gas += toWordSize(size.Uint64()) * params.InitCodeWordGas
	}
	return gas, nil
}

func gasCreate2(in *Interpreter, scope *ScopeContext, memorySize uint64) (uint64, error) {
	gas, err := gasCreate(in, scope, memorySize)
	if err != nil {
		return 0, err
	}
	size := scope.Stack.Back(2)
	gas += toWordSize(size.Uint64()) * params.Keccak256WordGas
	return gas, nil
}

func gasSelfdestruct(in *Interpreter, scope *ScopeContext, memorySize uint64) (uint64, error) {
	var gas uint64
	rules := in.evm.Rules
	beneficiary := common.Address(scope.Stack.peek().Bytes20())
	if _, ok := in.needBalance(beneficiary); !ok {
		return 0, nil
	}
	if _, ok := in.needNonce(beneficiary); !ok {
		return 0, nil
	}
	if _, ok := in.needCode(beneficiary); !ok {
		return 0, nil
	}
	if rules.IsEIP158 {
		if in.evm.StateDB.Empty(beneficiary) && !in.evm.StateDB.GetBalance(scope.Contract.Address()).IsZero() {
			gas += params.CreateBySelfdestructGas
		}
	} else if !in.evm.StateDB.Exist(beneficiary) {
		gas += params.CreateBySelfdestructGas
	}
	if rules.IsEIP2929 {
		if !in.evm.StateDB.AddressInAccessList(beneficiary) {
			in.evm.StateDB.AddAddressToAccessList(beneficiary)
			gas += params.ColdAccountAccessCostEIP2929
		}
	}
	if !rules.IsEIP3529 && !in.evm.StateDB.HasSelfDestructed(scope.Contract.Address()) {
		in.evm.StateDB.AddRefund(params.SelfdestructRefundGas)
	}
	return gas, nil
}

func gasMcopy(in *Interpreter, scope *ScopeContext, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(scope.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	size := scope.Stack.Back(2)
	words := toWordSize(size.Uint64())
	return gas + words*params.CopyGas, nil
}
