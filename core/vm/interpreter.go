package vm

// Interpreter runs one Contract's bytecode to completion, to a REVERT/
// STOP/RETURN, or to a Suspension. Besides the jump table it holds only the
// pending Suspension and the last sub-call's return data; every Run call
// starts a fresh Stack and Memory at pc 0.
type Interpreter struct {
	evm        *EVM
	table      *JumpTable
	suspend    *Suspension
	returnData []byte
}

// NewInterpreter builds the per-hardfork dispatch table once for evm's
// configured Rules and returns an Interpreter bound to it.
func NewInterpreter(evm *EVM) *Interpreter {
	return &Interpreter{evm: evm, table: NewJumpTable(evm.Rules)}
}

// Run executes contract.Code starting at pc 0 and drives the fetch-decode-
// execute loop until STOP/RETURN/REVERT, an error, or a Suspension. There is
// no partial-frame continuation: a Suspension is resolved by the driver
// injecting the missing value into the shared SuspensionCache and replaying
// the call from its outermost entry point against a brand-new StateDB (see
// NewCachedStateDB) and a brand-new Contract. Because the cache only ever
// grows and every state mutation this package performs is a pure function
// of (code, input, cache contents), the replay reaches byte-for-byte the
// same point and this time finds the operand warm — the net effect is the
// single-step re-execution spec section 4.11 describes, without requiring
// the interpreter itself to snapshot and restore stack/memory/pc.
func (in *Interpreter) Run(contract *Contract, input []byte, isCreate bool) (ret []byte, suspend *Suspension, err error) {
	contract.Input = input
	in.suspend = nil

	mem := NewMemory()
	stack := newstack()
	defer returnStack(stack)

	var (
		op    OpCode
		pc    = uint64(0)
		scope = &ScopeContext{Memory: mem, Stack: stack, Contract: contract}
		res   []byte
	)

	for {
		if int(pc) >= len(contract.Code) {
			return nil, nil, nil
		}
		op = contract.GetOp(pc)
		operation := in.table[op]
		if operation == nil {
			return nil, nil, &StopError{op: op}
		}

		if sLen := stack.len(); sLen < operation.minStack {
			return nil, nil, &StackError{have: sLen, want: operation.minStack}
		} else if sLen > operation.maxStack {
			return nil, nil, &StackError{have: sLen, want: operation.maxStack, overflow: true}
		}

		if in.evm.readOnly && isStateMutatingOp(op) {
			return nil, nil, ErrWriteProtection
		}

		var memorySize uint64
		if operation.memorySize != nil {
			ms, ovErr := operation.memorySize(stack)
			if ovErr != nil {
				return nil, nil, ErrGasUintOverflow
			}
			memSizeWords := toWordSize(ms)
			memorySize = memSizeWords * 32
		}

		if !contract.UseGas(operation.constantGas) {
			return nil, nil, ErrOutOfGas
		}
		if operation.dynamicGas != nil {
			dynamicCost, gasErr := operation.dynamicGas(in, scope, memorySize)
			if in.suspend != nil {
				return nil, in.suspend, nil
			}
			if gasErr != nil {
				return nil, nil, gasErr
			}
			if !contract.UseGas(dynamicCost) {
				return nil, nil, ErrOutOfGas
			}
		}
		if memorySize > 0 {
			mem.Resize(memorySize)
		}

		res, err = operation.execute(&pc, in, scope)
		if in.suspend != nil {
			return nil, in.suspend, nil
		}
		if err != nil {
			if err == errStopExecution {
				return res, nil, nil
			}
			return res, nil, err
		}
		pc++
	}
}

// errStopExecution is returned by opStop/opReturn and the SELFDESTRUCT
// handlers to unwind the loop with a result (opRevert returns
// ErrExecutionReverted instead); it's translated to (res, nil, nil) by Run and never
// surfaces to callers.
var errStopExecution = newStopSentinel()

type stopSentinel struct{}

func (stopSentinel) Error() string { return "stop" }

func newStopSentinel() error { return stopSentinel{} }

// StopError reports execution reaching an undefined opcode byte.
type StopError struct{ op OpCode }

func (e *StopError) Error() string { return "invalid opcode: " + e.op.String() }

func isStateMutatingOp(op OpCode) bool {
	switch {
	case op == SSTORE, op == CREATE, op == CREATE2, op == SELFDESTRUCT, op == TSTORE:
		return true
	case op >= LOG0 && op <= LOG4:
		return true
	default:
		return false // CALL's value-transfer restriction is checked in opCall itself
	}
}
