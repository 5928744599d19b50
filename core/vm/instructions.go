package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vmcore/suspendvm/common"
	"github.com/vmcore/suspendvm/crypto"
	"github.com/vmcore/suspendvm/params"
)

// opXxx functions are the handlers wired into the jump table by
// jump_table.go/eips.go. Each follows go-ethereum's core/vm/instructions.go
// calling convention: mutate the stack/memory/contract in place and return
// (output, error); only STOP/RETURN/REVERT return a non-nil output.
//
// Suspendable opcodes (SLOAD, BALANCE, EXTCODESIZE, EXTCODECOPY,
// EXTCODEHASH, and the CALL-family's callee-code check) read their operand
// via Stack.peek rather than Stack.pop, so a cache miss — which sets
// in.suspend and returns before any mutation — leaves the frame exactly as
// it was before the step began. Only once the read is confirmed present do
// they pop and commit, per the read-then-commit discipline in suspend.go.

func opAdd(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Add(&x, y)
	return nil, nil
}

func opSub(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Sub(&x, y)
	return nil, nil
}

func opMul(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Mul(&x, y)
	return nil, nil
}

func opDiv(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Div(&x, y)
	return nil, nil
}

func opSdiv(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.SMod(&x, y)
	return nil, nil
}

func opExp(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	base, exponent := scope.Stack.pop(), scope.Stack.peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

func opSignExtend(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	back, num := scope.Stack.pop(), scope.Stack.peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

func opAddmod(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y, z := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.peek()
	if z.IsZero() {
		z.Clear()
	} else {
		z.AddMod(&x, &y, z)
	}
	return nil, nil
}

func opMulmod(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y, z := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

func opAnd(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Xor(&x, y)
	return nil, nil
}

func opNot(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.peek()
	x.Not(x)
	return nil, nil
}

func opByte(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	th, val := scope.Stack.pop(), scope.Stack.peek()
	val.Byte(&th)
	return nil, nil
}

func opShl(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.pop(), scope.Stack.peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

func opShr(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.pop(), scope.Stack.peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

func opSar(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.pop(), scope.Stack.peek()
	if shift.GtUint64(256) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			value.SetAllOne()
		}
		return nil, nil
	}
	value.SRsh(value, uint(shift.Uint64()))
	return nil, nil
}

func opLt(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIszero(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opPop(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.pop()
	return nil, nil
}

func opMload(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	v := scope.Stack.peek()
	offset := v.Uint64()
	v.SetBytes(scope.Memory.GetPtr(int64(offset), 32))
	return nil, nil
}

func opMstore(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	mStart, val := scope.Stack.pop(), scope.Stack.pop()
	scope.Memory.Set32(mStart.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	off, val := scope.Stack.pop(), scope.Stack.pop()
	scope.Memory.Set(off.Uint64(), 1, []byte{byte(val.Uint64())})
	return nil, nil
}

func opMcopy(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	dst, src, size := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	scope.Memory.Copy(dst.Uint64(), src.Uint64(), size.Uint64())
	return nil, nil
}

func opMsize(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(scope.Memory.Len())))
	return nil, nil
}

func opSload(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	loc := scope.Stack.peek()
	slot := common.Hash(loc.Bytes32())
	val, ok := in.needStorage(scope.Contract.Address(), slot)
	if !ok {
		return nil, nil
	}
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opSstore(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	loc, val := scope.Stack.pop(), scope.Stack.pop()
	slot := common.Hash(loc.Bytes32())
	newVal := common.Hash(val.Bytes32())
	// gasSStore (the dynamicGas for SSTORE) already resolved the
	// Suspension Cache miss, if any, before this handler runs; Run()
	// returns the Suspension before ever reaching execute in that case, so
	// by the time we're here the slot is guaranteed resident.
	addr := scope.Contract.Address()
	in.evm.StateDB.SetState(addr, slot, newVal)
	return nil, nil
}

func opTload(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	loc := scope.Stack.peek()
	slot := common.Hash(loc.Bytes32())
	val := in.evm.StateDB.GetTransientState(scope.Contract.Address(), slot)
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opTstore(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	if in.evm.readOnly {
		return nil, ErrWriteProtection
	}
	loc, val := scope.Stack.pop(), scope.Stack.pop()
	slot := common.Hash(loc.Bytes32())
	in.evm.StateDB.SetTransientState(scope.Contract.Address(), slot, common.Hash(val.Bytes32()))
	return nil, nil
}

func opJump(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	pos := scope.Stack.pop()
	if !scope.Contract.validJumpdest(&pos) {
		return nil, ErrInvalidJump
	}
	*pc = pos.Uint64() - 1 // pc is incremented by the dispatch loop
	return nil, nil
}

func opJumpi(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	pos, cond := scope.Stack.pop(), scope.Stack.pop()
	if !cond.IsZero() {
		if !scope.Contract.validJumpdest(&pos) {
			return nil, ErrInvalidJump
		}
		*pc = pos.Uint64() - 1
	}
	return nil, nil
}

func opJumpdest(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	return nil, nil
}

func opPc(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(*pc))
	return nil, nil
}

func opGas(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(scope.Contract.Gas))
	return nil, nil
}

func opPush0(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int))
	return nil, nil
}

// opPush handles PUSH1..PUSH32: the operand's byte count is implicit in
// the opcode byte at *pc, read directly off the running code.
func opPush(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	code := scope.Contract.Code
	size := int(code[*pc]) - int(PUSH1) + 1
	start := *pc + 1
	end := start + uint64(size)
	if end > uint64(len(code)) {
		end = uint64(len(code))
	}
	var b [32]byte
	if start < uint64(len(code)) {
		copy(b[32-size:], code[start:end])
	}
	scope.Stack.push(new(uint256.Int).SetBytes(b[:]))
	*pc += uint64(size)
	return nil, nil
}

func opDup(n int) executionFunc {
	return func(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
		scope.Stack.dup(n)
		return nil, nil
	}
}

func opSwap(n int) executionFunc {
	return func(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
		scope.Stack.swap(n + 1)
		return nil, nil
	}
}

func opLog(size int) executionFunc {
	return func(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
		if in.evm.readOnly {
			return nil, ErrWriteProtection
		}
		mStart, mSize := scope.Stack.pop(), scope.Stack.pop()
		topics := make([]common.Hash, size)
		for i := 0; i < size; i++ {
			t := scope.Stack.pop()
			topics[i] = common.Hash(t.Bytes32())
		}
		d := scope.Memory.GetCopy(int64(mStart.Uint64()), int64(mSize.Uint64()))
		in.evm.StateDB.AddLog(&Log{
			Address: scope.Contract.Address(),
			Topics:  topics,
			Data:    d,
		})
		return nil, nil
	}
}

func opKeccak256(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.pop(), scope.Stack.peek()
	data := scope.Memory.GetPtr(int64(offset.Uint64()), int64(size.Uint64()))
	size.SetBytes(crypto.Keccak256(data))
	return nil, nil
}

func opAddress(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(scope.Contract.Address().Bytes()))
	return nil, nil
}

func opBalance(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.peek()
	addr := common.Address(slot.Bytes20())
	balance, ok := in.needBalance(addr)
	if !ok {
		return nil, nil
	}
	slot.Set(balance)
	return nil, nil
}

func opSelfBalance(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	balance, ok := in.needBalance(scope.Contract.Address())
	if !ok {
		return nil, nil
	}
	scope.Stack.push(new(uint256.Int).Set(balance))
	return nil, nil
}

func opOrigin(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(in.evm.TxContext.Origin.Bytes()))
	return nil, nil
}

func opCaller(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(scope.Contract.Caller().Bytes()))
	return nil, nil
}

func opCallValue(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).Set(scope.Contract.Value()))
	return nil, nil
}

func opCallDataLoad(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		x.SetBytes(getData(scope.Contract.Input, offset, 32))
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCallDataSize(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(len(scope.Contract.Input))))
	return nil, nil
}

func opCallDataCopy(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	memOffset, dataOffset, length := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOffset64 = ^uint64(0)
	}
	data := getData(scope.Contract.Input, dataOffset64, length.Uint64())
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opReturnDataSize(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(len(in.returnData))))
	return nil, nil
}

func opReturnDataCopy(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	memOffset, dataOffset, length := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return nil, ErrReturnDataOutOfBounds
	}
	end, overflow := new(uint256.Int).AddOverflow(&dataOffset, &length)
	if overflow || !end.IsUint64() || uint64(len(in.returnData)) < end.Uint64() {
		return nil, ErrReturnDataOutOfBounds
	}
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), in.returnData[offset64:end.Uint64()])
	return nil, nil
}

func opCodeSize(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(len(scope.Contract.Code))))
	return nil, nil
}

func opCodeCopy(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	memOffset, codeOffset, length := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	codeOffset64, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		codeOffset64 = ^uint64(0)
	}
	data := getData(scope.Contract.Code, codeOffset64, length.Uint64())
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opExtCodeSize(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.peek()
	addr := common.Address(slot.Bytes20())
	code, ok := in.needCode(addr)
	if !ok {
		return nil, nil
	}
	slot.SetUint64(uint64(len(code)))
	return nil, nil
}

func opExtCodeCopy(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	addrWord := scope.Stack.peek()
	addr := common.Address(addrWord.Bytes20())
	code, ok := in.needCode(addr)
	if !ok {
		return nil, nil
	}
	scope.Stack.pop()
	memOffset, codeOffset, length := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	codeOffset64, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		codeOffset64 = ^uint64(0)
	}
	data := getData(code, codeOffset64, length.Uint64())
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opExtCodeHash(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.peek()
	addr := common.Address(slot.Bytes20())
	if _, ok := in.needCode(addr); !ok {
		return nil, nil
	}
	if _, ok := in.needBalance(addr); !ok {
		return nil, nil
	}
	if _, ok := in.needNonce(addr); !ok {
		return nil, nil
	}
	if in.evm.StateDB.Empty(addr) {
		slot.Clear()
		return nil, nil
	}
	hash := in.evm.StateDB.GetCodeHash(addr)
	slot.SetBytes(hash.Bytes())
	return nil, nil
}

func opGasprice(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	v, _ := uint256.FromBig(in.evm.TxContext.GasPrice)
	scope.Stack.push(v)
	return nil, nil
}

func opBlockhash(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	num := scope.Stack.peek()
	if !num.IsUint64() {
		num.Clear()
		return nil, nil
	}
	n := num.Uint64()
	num.Clear()
	if in.evm.Context.GetHash == nil {
		return nil, nil
	}
	h := in.evm.Context.GetHash(n)
	num.SetBytes(h.Bytes())
	return nil, nil
}

func opCoinbase(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(in.evm.Context.Coinbase.Bytes()))
	return nil, nil
}

func opTimestamp(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(in.evm.Context.Time))
	return nil, nil
}

func opNumber(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	v, _ := uint256.FromBig(in.evm.Context.BlockNumber)
	scope.Stack.push(v)
	return nil, nil
}

func opDifficulty(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	if in.evm.Rules.IsMerge && in.evm.Context.Random != nil {
		scope.Stack.push(new(uint256.Int).SetBytes(in.evm.Context.Random.Bytes()))
		return nil, nil
	}
	if in.evm.Context.Difficulty == nil {
		scope.Stack.push(new(uint256.Int))
		return nil, nil
	}
	v, _ := uint256.FromBig(in.evm.Context.Difficulty)
	scope.Stack.push(v)
	return nil, nil
}

func opGasLimit(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(in.evm.Context.GasLimit))
	return nil, nil
}

func opChainID(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	v, _ := uint256.FromBig(in.evm.Rules.ChainID)
	scope.Stack.push(v)
	return nil, nil
}

func opBaseFee(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	base := in.evm.Context.BaseFee
	if base == nil {
		base = new(big.Int)
	}
	v, _ := uint256.FromBig(base)
	scope.Stack.push(v)
	return nil, nil
}

func opBlobBaseFee(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	fee := in.evm.Context.BlobBaseFee
	if fee == nil {
		fee = new(big.Int)
	}
	v, _ := uint256.FromBig(fee)
	scope.Stack.push(v)
	return nil, nil
}

func opBlobHash(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	idx := scope.Stack.peek()
	if idx.LtUint64(uint64(len(in.evm.TxContext.BlobHashes))) {
		h := in.evm.TxContext.BlobHashes[idx.Uint64()]
		idx.SetBytes(h.Bytes())
	} else {
		idx.Clear()
	}
	return nil, nil
}

func opStop(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	return nil, errStopExecution
}

func opReturn(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.pop(), scope.Stack.pop()
	ret := scope.Memory.GetCopy(int64(offset.Uint64()), int64(size.Uint64()))
	return ret, errStopExecution
}

func opRevert(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.pop(), scope.Stack.pop()
	ret := scope.Memory.GetCopy(int64(offset.Uint64()), int64(size.Uint64()))
	return ret, ErrExecutionReverted
}

func opInvalid(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	return nil, ErrInvalidOpCode
}

func opUndefined(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	return nil, ErrInvalidOpCode
}

// getData right-pads a slice read from data[start:start+size], clamping to
// data's bounds, matching go-ethereum's core/vm getData helper used by the
// *-COPY opcodes.
func getData(data []byte, start, size uint64) []byte {
	length := uint64(len(data))
	if start > length {
		start = length
	}
	end := start + size
	if end > length {
		end = length
	}
	return common.RightPadBytes(data[start:end], int(size))
}

func opCall(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	addrWord := scope.Stack.Back(1)
	addr := common.Address(addrWord.Bytes20())
	if _, ok := in.needCode(addr); !ok {
		return nil, nil
	}

	stack := scope.Stack
	gasArg := stack.pop()
	stack.pop() // addr, already read via Back(1)
	value := stack.pop()
	inOffset, inSize := stack.pop(), stack.pop()
	retOffset, retSize := stack.pop(), stack.pop()

	if in.evm.readOnly && !value.IsZero() {
		return nil, ErrWriteProtection
	}

	args := scope.Memory.GetCopy(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	gas, err := callGasForStack(in, scope, gasArg)
	if err != nil {
		return nil, err
	}
	if !scope.Contract.UseGas(gas) {
		return nil, ErrOutOfGas
	}
	if !value.IsZero() {
		gas += params.CallStipend
	}

	ret, returnGas, suspend, err := in.evm.Call(scope.Contract.Address(), addr, args, gas, &value)
	if suspend != nil {
		in.suspend = suspend
		scope.Contract.Gas += gas
		return nil, nil
	}
	if err != nil {
		stack.push(new(uint256.Int))
	} else {
		stack.push(uint256.NewInt(1))
	}
	scope.Contract.Gas += returnGas
	in.returnData = ret
	if err == nil || err == ErrExecutionReverted {
		scope.Memory.Set(retOffset.Uint64(), minU64(retSize.Uint64(), uint64(len(ret))), ret)
	}
	return nil, nil
}

func opCallCode(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	addrWord := scope.Stack.Back(1)
	addr := common.Address(addrWord.Bytes20())
	if _, ok := in.needCode(addr); !ok {
		return nil, nil
	}

	stack := scope.Stack
	gasArg := stack.pop()
	stack.pop() // addr, already read
	value := stack.pop()
	inOffset, inSize := stack.pop(), stack.pop()
	retOffset, retSize := stack.pop(), stack.pop()

	args := scope.Memory.GetCopy(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	gas, err := callGasForStack(in, scope, gasArg)
	if err != nil {
		return nil, err
	}
	if !scope.Contract.UseGas(gas) {
		return nil, ErrOutOfGas
	}
	if !value.IsZero() {
		gas += params.CallStipend
	}

	ret, returnGas, suspend, err := in.evm.CallCode(scope.Contract.Address(), addr, args, gas, &value)
	if suspend != nil {
		in.suspend = suspend
		scope.Contract.Gas += gas
		return nil, nil
	}
	if err != nil {
		stack.push(new(uint256.Int))
	} else {
		stack.push(uint256.NewInt(1))
	}
	scope.Contract.Gas += returnGas
	in.returnData = ret
	if err == nil || err == ErrExecutionReverted {
		scope.Memory.Set(retOffset.Uint64(), minU64(retSize.Uint64(), uint64(len(ret))), ret)
	}
	return nil, nil
}

func opDelegateCall(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	addrWord := scope.Stack.Back(1)
	addr := common.Address(addrWord.Bytes20())
	if _, ok := in.needCode(addr); !ok {
		return nil, nil
	}

	stack := scope.Stack
	gasArg := stack.pop()
	stack.pop()
	inOffset, inSize := stack.pop(), stack.pop()
	retOffset, retSize := stack.pop(), stack.pop()

	args := scope.Memory.GetCopy(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	gas, err := callGasForStack(in, scope, gasArg)
	if err != nil {
		return nil, err
	}
	if !scope.Contract.UseGas(gas) {
		return nil, ErrOutOfGas
	}

	ret, returnGas, suspend, err := in.evm.DelegateCall(scope.Contract.Caller(), scope.Contract.Value(), scope.Contract.Address(), addr, args, gas)
	if suspend != nil {
		in.suspend = suspend
		scope.Contract.Gas += gas
		return nil, nil
	}
	if err != nil {
		stack.push(new(uint256.Int))
	} else {
		stack.push(uint256.NewInt(1))
	}
	scope.Contract.Gas += returnGas
	in.returnData = ret
	if err == nil || err == ErrExecutionReverted {
		scope.Memory.Set(retOffset.Uint64(), minU64(retSize.Uint64(), uint64(len(ret))), ret)
	}
	return nil, nil
}

func opStaticCall(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	addrWord := scope.Stack.Back(1)
	addr := common.Address(addrWord.Bytes20())
	if _, ok := in.needCode(addr); !ok {
		return nil, nil
	}

	stack := scope.Stack
	gasArg := stack.pop()
	stack.pop()
	inOffset, inSize := stack.pop(), stack.pop()
	retOffset, retSize := stack.pop(), stack.pop()

	args := scope.Memory.GetCopy(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	gas, err := callGasForStack(in, scope, gasArg)
	if err != nil {
		return nil, err
	}
	if !scope.Contract.UseGas(gas) {
		return nil, ErrOutOfGas
	}

	ret, returnGas, suspend, err := in.evm.StaticCall(scope.Contract.Address(), addr, args, gas)
	if suspend != nil {
		in.suspend = suspend
		scope.Contract.Gas += gas
		return nil, nil
	}
	if err != nil {
		stack.push(new(uint256.Int))
	} else {
		stack.push(uint256.NewInt(1))
	}
	scope.Contract.Gas += returnGas
	in.returnData = ret
	if err == nil || err == ErrExecutionReverted {
		scope.Memory.Set(retOffset.Uint64(), minU64(retSize.Uint64(), uint64(len(ret))), ret)
	}
	return nil, nil
}

// callGasForStack applies the EIP-150 63/64 forwarding rule (callGas in
// gas.go) against the gas argument pushed on the stack for a CALL-family
// opcode, given the contract's gas remaining after its own base/memory
// charges (already deducted by the dispatch loop before execute runs).
func callGasForStack(in *Interpreter, scope *ScopeContext, gasArg uint256.Int) (uint64, error) {
	var requested uint64Wrap
	if gasArg.IsUint64() {
		requested = uint64Wrap{val: gasArg.Uint64(), valid: true}
	}
	return callGas(in.evm.Rules.IsEIP150, scope.Contract.Gas, 0, &requested)
}

func opCreate(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	return createImpl(pc, in, scope, false)
}

func opCreate2(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	return createImpl(pc, in, scope, true)
}

// createImpl backs both CREATE and CREATE2. The caller's own nonce (and,
// if the target address is already known to exist, its nonce/code) are
// confirmed resident before any stack operand is popped, so a Suspension
// raised here never leaves the frame's stack partially consumed.
func createImpl(pc *uint64, in *Interpreter, scope *ScopeContext, isCreate2 bool) ([]byte, error) {
	caller := scope.Contract.Address()
	nonce, ok := in.needNonce(caller)
	if !ok {
		return nil, nil
	}

	stack := scope.Stack
	var value, offset, size, saltWord uint256.Int
	value = *stack.Back(0)
	offset = *stack.Back(1)
	size = *stack.Back(2)
	if isCreate2 {
		saltWord = *stack.Back(3)
	}

	var target common.Address
	if isCreate2 {
		initCode := scope.Memory.GetPtr(int64(offset.Uint64()), int64(size.Uint64()))
		target = crypto.CreateAddress2(caller, saltWord.Bytes32(), crypto.Keccak256(initCode))
	} else {
		target = crypto.CreateAddress(caller, nonce)
	}
	if in.evm.StateDB.Exist(target) {
		if _, ok := in.needNonce(target); !ok {
			return nil, nil
		}
		if _, ok := in.needCode(target); !ok {
			return nil, nil
		}
	}

	// Operands confirmed resolvable; now it's safe to pop.
	if isCreate2 {
		stack.pop()
		stack.pop()
		stack.pop()
		stack.pop()
	} else {
		stack.pop()
		stack.pop()
		stack.pop()
	}

	if in.evm.readOnly && !value.IsZero() {
		return nil, ErrWriteProtection
	}

	input := scope.Memory.GetCopy(int64(offset.Uint64()), int64(size.Uint64()))
	gas := scope.Contract.Gas
	if in.evm.Rules.IsEIP150 {
		gas -= gas / 64
	}
	scope.Contract.UseGas(gas)

	var (
		ret     []byte
		addr    common.Address
		retGas  uint64
		suspend *Suspension
		callErr error
	)
	if isCreate2 {
		ret, addr, retGas, suspend, callErr = in.evm.Create2(caller, input, gas, &value, &saltWord)
	} else {
		ret, addr, retGas, suspend, callErr = in.evm.Create(caller, input, gas, &value)
	}
	if suspend != nil {
		in.suspend = suspend
		scope.Contract.Gas += gas
		return nil, nil
	}

	scope.Contract.Gas += retGas
	if callErr != nil {
		stack.push(new(uint256.Int))
	} else {
		stack.push(new(uint256.Int).SetBytes(addr.Bytes()))
	}
	if callErr == ErrExecutionReverted {
		in.returnData = ret
	} else {
		in.returnData = nil
	}
	return nil, nil
}

func opSelfdestruct(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	beneficiaryWord := scope.Stack.pop()
	beneficiary := common.Address(beneficiaryWord.Bytes20())
	balance := in.evm.StateDB.GetBalance(scope.Contract.Address())
	in.evm.StateDB.AddBalance(beneficiary, balance)
	in.evm.StateDB.SelfDestruct(scope.Contract.Address())
	return nil, errStopExecution
}

// opSelfdestruct6780 implements EIP-6780: SELFDESTRUCT only destroys the
// account (rather than merely transferring its balance) when the account
// was created earlier in the same transaction.
func opSelfdestruct6780(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	beneficiaryWord := scope.Stack.pop()
	beneficiary := common.Address(beneficiaryWord.Bytes20())
	self := scope.Contract.Address()
	balance := in.evm.StateDB.GetBalance(self)
	in.evm.StateDB.AddBalance(beneficiary, balance)
	if in.evm.StateDB.WasCreatedThisTx(self) {
		in.evm.StateDB.SelfDestruct(self)
	} else {
		in.evm.StateDB.SubBalance(self, balance)
	}
	return nil, errStopExecution
}
