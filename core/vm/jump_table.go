package vm

import "github.com/vmcore/suspendvm/params"

// executionFunc is the signature every opcode handler implements. Handlers
// that need external state call in.need* first and return (nil, nil)
// immediately on a miss, leaving in.suspend set for Run to pick up, per the
// read-then-commit discipline described in suspend.go.
type executionFunc func(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error)

// operation is one entry of the per-hardfork dispatch table, mirroring
// go-ethereum's core/vm/jump_table.go operation struct.
type operation struct {
	execute     executionFunc
	constantGas uint64
	dynamicGas  dynamicGasFunc
	minStack    int
	maxStack    int
	memorySize  func(stack *Stack) (uint64, error)
}

// JumpTable is a dense 256-entry dispatch table indexed directly by opcode
// byte; nil entries are undefined opcodes.
type JumpTable [256]*operation

func minSwapStack(n int) int { return minStack(n+1, n+1) }
func maxSwapStack(n int) int { return maxStack(n+1, n+1) }
func minDupStack(n int) int  { return minStack(n, n+1) }
func maxDupStack(n int) int  { return maxStack(n, n+1) }

func minStack(pops, push int) int { return pops }
func maxStack(pops, push int) int { return maxStackSize + pops - push }

func memSizeForPair(offsetIdx, sizeIdx int) func(*Stack) (uint64, error) {
	return func(stack *Stack) (uint64, error) { return memorySize(stack, offsetIdx, sizeIdx) }
}

// NewJumpTable builds the dispatch table for rules, starting from the
// Frontier baseline and layering each hardfork's changes on top, the same
// way go-ethereum's core/vm/jump_table.go constructs newFrontierInstructionSet
// through newCancunInstructionSet.
func NewJumpTable(rules params.Rules) *JumpTable {
	jt := newFrontierTable()
	if rules.IsHomestead {
		// DELEGATECALL introduced (EIP-7) at the pre-EIP-150 price;
		// enable150 reprices it.
		jt[DELEGATECALL] = &operation{execute: opDelegateCall, constantGas: 40, dynamicGas: gasCallLike(DELEGATECALL), minStack: minStack(6, 1), maxStack: maxStack(6, 1), memorySize: memCallMemSize(2, 3, 4, 5)}
	}
	if rules.IsEIP150 {
		enable150(jt)
	}
	if rules.IsEIP158 {
		enable158(jt)
	}
	if rules.IsByzantium {
		enableByzantium(jt)
	}
	if rules.IsConstantinople {
		enableConstantinople(jt)
	}
	if rules.IsIstanbul {
		enable1884(jt)
		enable1344(jt)
		enable2200(jt)
	}
	if rules.IsEIP2929 {
		enable2929(jt)
	}
	if rules.IsLondon {
		enable3529(jt)
		enable3198(jt)
	}
	if rules.IsEIP3855 {
		enable3855(jt)
	}
	if rules.IsEIP3860 {
		enable3860(jt)
	}
	if rules.IsEIP1153 {
		enable1153(jt)
	}
	if rules.IsEIP5656 {
		enable5656(jt)
	}
	if rules.IsEIP4844 {
		enable4844(jt)
	}
	if rules.IsEIP6780 {
		enable6780(jt)
	}
	return jt
}

func newFrontierTable() *JumpTable {
	jt := &JumpTable{}
	jt[STOP] = &operation{execute: opStop, constantGas: 0, minStack: minStack(0, 0), maxStack: maxStack(0, 0)}
	jt[ADD] = &operation{execute: opAdd, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[MUL] = &operation{execute: opMul, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[SUB] = &operation{execute: opSub, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[DIV] = &operation{execute: opDiv, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[SDIV] = &operation{execute: opSdiv, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[MOD] = &operation{execute: opMod, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[SMOD] = &operation{execute: opSmod, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[ADDMOD] = &operation{execute: opAddmod, constantGas: GasMidStep, minStack: minStack(3, 1), maxStack: maxStack(3, 1)}
	jt[MULMOD] = &operation{execute: opMulmod, constantGas: GasMidStep, minStack: minStack(3, 1), maxStack: maxStack(3, 1)}
	jt[EXP] = &operation{execute: opExp, dynamicGas: gasExp, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[SIGNEXTEND] = &operation{execute: opSignExtend, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[LT] = &operation{execute: opLt, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[GT] = &operation{execute: opGt, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[SLT] = &operation{execute: opSlt, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[SGT] = &operation{execute: opSgt, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[EQ] = &operation{execute: opEq, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[ISZERO] = &operation{execute: opIszero, constantGas: GasFastestStep, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	jt[AND] = &operation{execute: opAnd, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[OR] = &operation{execute: opOr, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[XOR] = &operation{execute: opXor, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[NOT] = &operation{execute: opNot, constantGas: GasFastestStep, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	jt[BYTE] = &operation{execute: opByte, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[KECCAK256] = &operation{execute: opKeccak256, constantGas: params.Keccak256Gas, dynamicGas: gasKeccak256, minStack: minStack(2, 1), maxStack: maxStack(2, 1), memorySize: memSizeForPair(0, 1)}
	jt[ADDRESS] = &operation{execute: opAddress, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[BALANCE] = &operation{execute: opBalance, constantGas: GasExtStep, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	jt[ORIGIN] = &operation{execute: opOrigin, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[CALLER] = &operation{execute: opCaller, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[CALLVALUE] = &operation{execute: opCallValue, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[CALLDATALOAD] = &operation{execute: opCallDataLoad, constantGas: GasFastestStep, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	jt[CALLDATASIZE] = &operation{execute: opCallDataSize, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[CALLDATACOPY] = &operation{execute: opCallDataCopy, constantGas: GasFastestStep, dynamicGas: gasMemoryCopyWords(params.CopyGas, 2), minStack: minStack(3, 0), maxStack: maxStack(3, 0), memorySize: memSizeForPair(0, 2)}
	jt[CODESIZE] = &operation{execute: opCodeSize, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[CODECOPY] = &operation{execute: opCodeCopy, constantGas: GasFastestStep, dynamicGas: gasMemoryCopyWords(params.CopyGas, 2), minStack: minStack(3, 0), maxStack: maxStack(3, 0), memorySize: memSizeForPair(0, 2)}
	jt[GASPRICE] = &operation{execute: opGasprice, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[EXTCODESIZE] = &operation{execute: opExtCodeSize, constantGas: 20, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	jt[EXTCODECOPY] = &operation{execute: opExtCodeCopy, constantGas: 20, dynamicGas: gasExtCodeCopy, minStack: minStack(4, 0), maxStack: maxStack(4, 0), memorySize: memSizeForPair(1, 3)}
	jt[BLOCKHASH] = &operation{execute: opBlockhash, constantGas: GasExtStep, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	jt[COINBASE] = &operation{execute: opCoinbase, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[TIMESTAMP] = &operation{execute: opTimestamp, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[NUMBER] = &operation{execute: opNumber, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[DIFFICULTY] = &operation{execute: opDifficulty, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[GASLIMIT] = &operation{execute: opGasLimit, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[POP] = &operation{execute: opPop, constantGas: 2, minStack: minStack(1, 0), maxStack: maxStack(1, 0)}
	jt[MLOAD] = &operation{execute: opMload, constantGas: GasFastestStep, dynamicGas: pureMemoryGas(nil), minStack: minStack(1, 1), maxStack: maxStack(1, 1), memorySize: func(s *Stack) (uint64, error) { return memUint(s.Back(0), 32) }}
	jt[MSTORE] = &operation{execute: opMstore, constantGas: GasFastestStep, dynamicGas: pureMemoryGas(nil), minStack: minStack(2, 0), maxStack: maxStack(2, 0), memorySize: func(s *Stack) (uint64, error) { return memUint(s.Back(0), 32) }}
	jt[MSTORE8] = &operation{execute: opMstore8, constantGas: GasFastestStep, dynamicGas: pureMemoryGas(nil), minStack: minStack(2, 0), maxStack: maxStack(2, 0), memorySize: func(s *Stack) (uint64, error) { return memUint(s.Back(0), 1) }}
	jt[SLOAD] = &operation{execute: opSload, constantGas: params.SloadGasEIP150, dynamicGas: gasSLoad, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	jt[SSTORE] = &operation{execute: opSstore, dynamicGas: gasSStore, minStack: minStack(2, 0), maxStack: maxStack(2, 0)}
	jt[JUMP] = &operation{execute: opJump, constantGas: GasMidStep, minStack: minStack(1, 0), maxStack: maxStack(1, 0)}
	jt[JUMPI] = &operation{execute: opJumpi, constantGas: 10, minStack: minStack(2, 0), maxStack: maxStack(2, 0)}
	jt[PC] = &operation{execute: opPc, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[MSIZE] = &operation{execute: opMsize, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[GAS] = &operation{execute: opGas, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[JUMPDEST] = &operation{execute: opJumpdest, constantGas: params.JumpdestGas, minStack: minStack(0, 0), maxStack: maxStack(0, 0)}

	for i := 0; i < 32; i++ {
		jt[PUSH1+OpCode(i)] = &operation{execute: opPush, constantGas: GasFastestStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	}
	for i := 0; i < 16; i++ {
		jt[DUP1+OpCode(i)] = &operation{execute: opDup(i + 1), constantGas: GasFastestStep, minStack: minDupStack(i + 1), maxStack: maxDupStack(i + 1)}
		jt[SWAP1+OpCode(i)] = &operation{execute: opSwap(i + 1), constantGas: GasFastestStep, minStack: minSwapStack(i + 1), maxStack: maxSwapStack(i + 1)}
	}
	for i := 0; i < 5; i++ {
		jt[LOG0+OpCode(i)] = &operation{execute: opLog(i), dynamicGas: gasLog(i), minStack: minStack(2+i, 0), maxStack: maxStack(2+i, 0), memorySize: memSizeForPair(0, 1)}
	}

	jt[CREATE] = &operation{execute: opCreate, constantGas: params.CreateGas, dynamicGas: gasCreate, minStack: minStack(3, 1), maxStack: maxStack(3, 1), memorySize: memSizeForPair(1, 2)}
	jt[CALL] = &operation{execute: opCall, constantGas: 40, dynamicGas: gasCallLike(CALL), minStack: minStack(7, 1), maxStack: maxStack(7, 1), memorySize: memCallMemSize(3, 4, 5, 6)}
	jt[CALLCODE] = &operation{execute: opCallCode, constantGas: 40, dynamicGas: gasCallLike(CALLCODE), minStack: minStack(7, 1), maxStack: maxStack(7, 1), memorySize: memCallMemSize(3, 4, 5, 6)}
	jt[RETURN] = &operation{execute: opReturn, dynamicGas: pureMemoryGas(nil), minStack: minStack(2, 0), maxStack: maxStack(2, 0), memorySize: memSizeForPair(0, 1)}
	jt[INVALID] = &operation{execute: opInvalid, minStack: minStack(0, 0), maxStack: maxStack(0, 0)}
	jt[SELFDESTRUCT] = &operation{execute: opSelfdestruct, constantGas: params.SelfdestructRefundGas / 8, dynamicGas: gasSelfdestruct, minStack: minStack(1, 0), maxStack: maxStack(1, 0)}
	return jt
}

func memUint(v interface{ Uint64() uint64 }, width uint64) (uint64, error) {
	off := v.Uint64()
	need := off + width
	if need < off {
		return 0, ErrGasUintOverflow
	}
	return need, nil
}

func memCallMemSize(inOffsetIdx, inSizeIdx, outOffsetIdx, outSizeIdx int) func(*Stack) (uint64, error) {
	return func(stack *Stack) (uint64, error) {
		in, err := memorySize(stack, inOffsetIdx, inSizeIdx)
		if err != nil {
			return 0, err
		}
		out, err := memorySize(stack, outOffsetIdx, outSizeIdx)
		if err != nil {
			return 0, err
		}
		if in > out {
			return in, nil
		}
		return out, nil
	}
}

func enable150(jt *JumpTable) {
	jt[EXTCODESIZE].constantGas = 700
	jt[EXTCODECOPY].constantGas = 700
	jt[BALANCE].constantGas = 400
	jt[SLOAD].constantGas = params.SloadGasEIP150
	jt[CALL].constantGas = 700
	jt[CALLCODE].constantGas = 700
	jt[SELFDESTRUCT].constantGas = params.SelfdestructGasEIP150
	jt[DELEGATECALL] = &operation{execute: opDelegateCall, constantGas: 700, dynamicGas: gasCallLike(DELEGATECALL), minStack: minStack(6, 1), maxStack: maxStack(6, 1), memorySize: memCallMemSize(2, 3, 4, 5)}
}

func enable158(jt *JumpTable) {
	// Empty-account pruning is enforced in StateDB.Finalise/Empty, not the
	// dispatch table; EXTCODEHASH arrives with Constantinople below.
}

func enableByzantium(jt *JumpTable) {
	jt[STATICCALL] = &operation{execute: opStaticCall, constantGas: 700, dynamicGas: gasCallLike(STATICCALL), minStack: minStack(6, 1), maxStack: maxStack(6, 1), memorySize: memCallMemSize(2, 3, 4, 5)}
	jt[RETURNDATASIZE] = &operation{execute: opReturnDataSize, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[RETURNDATACOPY] = &operation{execute: opReturnDataCopy, constantGas: GasFastestStep, dynamicGas: gasMemoryCopyWords(params.CopyGas, 2), minStack: minStack(3, 0), maxStack: maxStack(3, 0), memorySize: memSizeForPair(0, 2)}
	jt[REVERT] = &operation{execute: opRevert, dynamicGas: pureMemoryGas(nil), minStack: minStack(2, 0), maxStack: maxStack(2, 0), memorySize: memSizeForPair(0, 1)}
}

func enableConstantinople(jt *JumpTable) {
	jt[SHL] = &operation{execute: opShl, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[SHR] = &operation{execute: opShr, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[SAR] = &operation{execute: opSar, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	jt[EXTCODEHASH] = &operation{execute: opExtCodeHash, constantGas: 400, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	jt[CREATE2] = &operation{execute: opCreate2, constantGas: params.Create2Gas, dynamicGas: gasCreate2, minStack: minStack(4, 1), maxStack: maxStack(4, 1), memorySize: memSizeForPair(1, 2)}
}

func enable2929(jt *JumpTable) {
	jt[SLOAD].constantGas = 0
	jt[EXTCODECOPY].constantGas = params.WarmStorageReadCostEIP2929
	jt[EXTCODECOPY].dynamicGas = gasExtCodeCopy
	jt[EXTCODESIZE].constantGas = 0
	jt[EXTCODESIZE].dynamicGas = gasAccountCheck()
	jt[EXTCODEHASH].constantGas = 0
	jt[EXTCODEHASH].dynamicGas = gasAccountCheck()
	jt[BALANCE].constantGas = 0
	jt[BALANCE].dynamicGas = gasAccountCheck()
	jt[CALL].constantGas = 0
	jt[CALLCODE].constantGas = 0
	jt[DELEGATECALL].constantGas = 0
	jt[STATICCALL].constantGas = 0
	jt[SELFDESTRUCT].dynamicGas = gasSelfdestruct
}

func enable1153(jt *JumpTable) {
	jt[TLOAD] = &operation{execute: opTload, constantGas: params.WarmStorageReadCostEIP2929, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	jt[TSTORE] = &operation{execute: opTstore, constantGas: params.WarmStorageReadCostEIP2929, minStack: minStack(2, 0), maxStack: maxStack(2, 0)}
}

func enable3855(jt *JumpTable) {
	jt[PUSH0] = &operation{execute: opPush0, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
}

func enable3860(jt *JumpTable) {
	jt[CREATE].dynamicGas = gasCreate
	jt[CREATE2].dynamicGas = gasCreate2
}

func enable5656(jt *JumpTable) {
	jt[MCOPY] = &operation{execute: opMcopy, constantGas: GasFastestStep, dynamicGas: gasMcopy, minStack: minStack(3, 0), maxStack: maxStack(3, 0), memorySize: memMcopySize}
}

func memMcopySize(stack *Stack) (uint64, error) {
	dst, err := memorySize(stack, 0, 2)
	if err != nil {
		return 0, err
	}
	src, err := memorySize(stack, 1, 2)
	if err != nil {
		return 0, err
	}
	if dst > src {
		return dst, nil
	}
	return src, nil
}

func enable4844(jt *JumpTable) {
	jt[BLOBHASH] = &operation{execute: opBlobHash, constantGas: GasFastestStep, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	jt[BLOBBASEFEE] = &operation{execute: opBlobBaseFee, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
}

func enable6780(jt *JumpTable) {
	jt[SELFDESTRUCT].execute = opSelfdestruct6780
}
