package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vmcore/suspendvm/common"
	"github.com/vmcore/suspendvm/crypto"
	"github.com/vmcore/suspendvm/log"
	"github.com/vmcore/suspendvm/params"
)

// BlockContext carries block-level data the EVM consults but never
// mutates: the coinbase, gas limit, base fee, and the hash/transfer
// callbacks the Host supplies, mirroring go-ethereum's core/vm.BlockContext.
type BlockContext struct {
	CanTransfer func(StateDB, common.Address, *uint256.Int) bool
	Transfer    func(StateDB, common.Address, common.Address, *uint256.Int)
	GetHash     func(uint64) common.Hash

	Coinbase    common.Address
	GasLimit    uint64
	BlockNumber *big.Int
	Time        uint64
	Difficulty  *big.Int
	BaseFee     *big.Int
	BlobBaseFee *big.Int
	Random      *common.Hash
}

// TxContext carries transaction-level data: the origin, gas price, and the
// EIP-4844 blob versioned hashes attached to the transaction.
type TxContext struct {
	Origin     common.Address
	GasPrice   *big.Int
	BlobHashes []common.Hash
}

// EVM is the top-level dispatcher for Call/Create and their variants. One
// EVM is built per top-level invocation and is not safe for concurrent
// reuse, the same restriction go-ethereum documents on its EVM type.
type EVM struct {
	Context   BlockContext
	TxContext TxContext
	StateDB   StateDB
	Rules     params.Rules
	config    *params.ChainConfig

	interpreter *Interpreter
	depth       int
	readOnly    bool
	returnData  []byte

	Log log.Logger
}

// NewEVM constructs an EVM ready to run Call/Create against statedb.
func NewEVM(blockCtx BlockContext, txCtx TxContext, statedb StateDB, config *params.ChainConfig) *EVM {
	evm := &EVM{
		Context:   blockCtx,
		TxContext: txCtx,
		StateDB:   statedb,
		Rules:     config.Rules(),
		config:    config,
		Log:       log.Root(),
	}
	evm.interpreter = NewInterpreter(evm)
	return evm
}

func (evm *EVM) Interpreter() *Interpreter { return evm.interpreter }

// Call executes the code at addr's account with caller as msg.sender,
// transferring value along. It is the dispatcher for the top-level CALL
// and for the CALL opcode's recursive invocation.
func (evm *EVM) Call(caller common.Address, addr common.Address, input []byte, gas uint64, value *uint256.Int) (ret []byte, leftOverGas uint64, suspend *Suspension, err error) {
	if evm.depth > int(params.CallCreateDepth) {
		return nil, gas, nil, ErrDepth
	}
	if value.Sign() != 0 && !evm.Context.CanTransfer(evm.StateDB, caller, value) {
		return nil, gas, nil, ErrInsufficientBalance
	}

	if precompile, ok := PrecompiledContractForAddress(addr, evm.Rules); ok {
		snapshot := evm.StateDB.Snapshot()
		evm.Context.Transfer(evm.StateDB, caller, addr, value)
		out, remaining, perr := RunPrecompiledContract(precompile, input, gas)
		if perr != nil {
			evm.StateDB.RevertToSnapshot(snapshot)
			remaining = 0
		}
		return out, remaining, nil, perr
	}

	code, ok := evm.StateDB.GetCachedCode(addr)
	if !ok {
		return nil, gas, &Suspension{Kind: NeedCode, Address: addr}, nil
	}

	snapshot := evm.StateDB.Snapshot()
	if !evm.StateDB.Exist(addr) {
		if len(code) == 0 && value.Sign() == 0 {
			return nil, gas, nil, nil
		}
		evm.StateDB.CreateAccount(addr)
	}
	evm.Context.Transfer(evm.StateDB, caller, addr, value)
	evm.StateDB.AddressTouched(addr)

	contract := NewContract(caller, addr, value, gas)
	contract.SetCallCode(addr, evm.StateDB.GetCodeHash(addr), code)

	ret, suspend, err = evm.run(contract, input, false)
	if suspend != nil {
		return nil, gas, suspend, nil
	}
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.Gas = 0
		}
	}
	return ret, contract.Gas, nil, err
}

// CallCode behaves like Call except that it executes addr's code within
// caller's own storage context (state reads/writes go to caller).
func (evm *EVM) CallCode(caller common.Address, addr common.Address, input []byte, gas uint64, value *uint256.Int) (ret []byte, leftOverGas uint64, suspend *Suspension, err error) {
	if evm.depth > int(params.CallCreateDepth) {
		return nil, gas, nil, ErrDepth
	}
	if value.Sign() != 0 && !evm.Context.CanTransfer(evm.StateDB, caller, value) {
		return nil, gas, nil, ErrInsufficientBalance
	}

	if precompile, ok := PrecompiledContractForAddress(addr, evm.Rules); ok {
		out, remaining, perr := RunPrecompiledContract(precompile, input, gas)
		if perr != nil {
			remaining = 0
		}
		return out, remaining, nil, perr
	}

	code, ok := evm.StateDB.GetCachedCode(addr)
	if !ok {
		return nil, gas, &Suspension{Kind: NeedCode, Address: addr}, nil
	}
	snapshot := evm.StateDB.Snapshot()
	contract := NewContract(caller, caller, value, gas)
	contract.SetCallCode(addr, evm.StateDB.GetCodeHash(addr), code)

	ret, suspend, err = evm.run(contract, input, false)
	if suspend != nil {
		return nil, gas, suspend, nil
	}
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.Gas = 0
		}
	}
	return ret, contract.Gas, nil, err
}

// DelegateCall behaves like CallCode but additionally preserves the
// original caller and call value, as if the outer frame's code had been
// replaced in place.
func (evm *EVM) DelegateCall(originCaller common.Address, originValue *uint256.Int, self common.Address, addr common.Address, input []byte, gas uint64) (ret []byte, leftOverGas uint64, suspend *Suspension, err error) {
	if evm.depth > int(params.CallCreateDepth) {
		return nil, gas, nil, ErrDepth
	}
	if precompile, ok := PrecompiledContractForAddress(addr, evm.Rules); ok {
		out, remaining, perr := RunPrecompiledContract(precompile, input, gas)
		if perr != nil {
			remaining = 0
		}
		return out, remaining, nil, perr
	}

	code, ok := evm.StateDB.GetCachedCode(addr)
	if !ok {
		return nil, gas, &Suspension{Kind: NeedCode, Address: addr}, nil
	}
	snapshot := evm.StateDB.Snapshot()
	contract := NewContract(originCaller, self, originValue, gas).AsDelegate()
	contract.SetCallCode(addr, evm.StateDB.GetCodeHash(addr), code)

	ret, suspend, err = evm.run(contract, input, false)
	if suspend != nil {
		return nil, gas, suspend, nil
	}
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.Gas = 0
		}
	}
	return ret, contract.Gas, nil, err
}

// StaticCall behaves like Call but forbids any state-mutating opcode for
// the duration of the call and every call beneath it.
func (evm *EVM) StaticCall(caller common.Address, addr common.Address, input []byte, gas uint64) (ret []byte, leftOverGas uint64, suspend *Suspension, err error) {
	if evm.depth > int(params.CallCreateDepth) {
		return nil, gas, nil, ErrDepth
	}
	if precompile, ok := PrecompiledContractForAddress(addr, evm.Rules); ok {
		out, remaining, perr := RunPrecompiledContract(precompile, input, gas)
		if perr != nil {
			remaining = 0
		}
		return out, remaining, nil, perr
	}

	code, ok := evm.StateDB.GetCachedCode(addr)
	if !ok {
		return nil, gas, &Suspension{Kind: NeedCode, Address: addr}, nil
	}
	snapshot := evm.StateDB.Snapshot()
	contract := NewContract(caller, addr, new(uint256.Int), gas)
	contract.SetCallCode(addr, evm.StateDB.GetCodeHash(addr), code)

	wasReadOnly := evm.readOnly
	evm.readOnly = true
	ret, suspend, err = evm.run(contract, input, false)
	evm.readOnly = wasReadOnly
	if suspend != nil {
		return nil, gas, suspend, nil
	}
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.Gas = 0
		}
	}
	return ret, contract.Gas, nil, err
}

// create is the shared CREATE/CREATE2 implementation: derive the new
// address, check the collision/nonce/depth preconditions, then run
// initcode as a frame whose RETURN becomes the deployed code.
func (evm *EVM) create(caller common.Address, code []byte, gas uint64, value *uint256.Int, address common.Address) (ret []byte, newAddr common.Address, leftOverGas uint64, suspend *Suspension, err error) {
	if evm.depth > int(params.CallCreateDepth) {
		return nil, common.Address{}, gas, nil, ErrDepth
	}
	if !evm.Context.CanTransfer(evm.StateDB, caller, value) {
		return nil, common.Address{}, gas, nil, ErrInsufficientBalance
	}
	nonce, ok := evm.StateDB.GetCachedNonce(caller)
	if !ok {
		return nil, common.Address{}, gas, &Suspension{Kind: NeedNonce, Address: caller}, nil
	}
	if nonce+1 < nonce {
		return nil, common.Address{}, gas, nil, ErrNonceUintOverflow
	}
	evm.StateDB.SetNonce(caller, nonce+1)

	if evm.Rules.IsEIP3860 && uint64(len(code)) > params.MaxInitCodeSize {
		return nil, common.Address{}, gas, nil, ErrMaxInitCodeSizeExceeded
	}
	if evm.Rules.IsEIP3541 && len(code) >= 1 && code[0] == 0xef {
		return nil, common.Address{}, gas, nil, ErrInvalidCode
	}

	if evm.StateDB.Exist(address) {
		existingNonce, ok := evm.StateDB.GetCachedNonce(address)
		if !ok {
			return nil, common.Address{}, gas, &Suspension{Kind: NeedNonce, Address: address}, nil
		}
		existingCode, ok := evm.StateDB.GetCachedCode(address)
		if !ok {
			return nil, common.Address{}, gas, &Suspension{Kind: NeedCode, Address: address}, nil
		}
		if existingNonce != 0 || len(existingCode) != 0 {
			return nil, common.Address{}, gas, nil, ErrContractAddressCollision
		}
	}

	snapshot := evm.StateDB.Snapshot()
	evm.StateDB.CreateAccount(address)
	if evm.Rules.IsEIP158 {
		evm.StateDB.SetNonce(address, 1)
	}
	evm.Context.Transfer(evm.StateDB, caller, address, value)

	contract := NewContract(caller, address, value, gas)
	contract.SetCallCode(address, crypto.Keccak256Hash(code), code)

	ret, suspend, err = evm.run(contract, nil, true)
	if suspend != nil {
		return nil, common.Address{}, gas, suspend, nil
	}

	if err == nil {
		if evm.Rules.IsEIP158 && uint64(len(ret)) > params.MaxCodeSize {
			err = ErrMaxCodeSizeExceeded
		} else if evm.Rules.IsEIP3541 && len(ret) >= 1 && ret[0] == 0xef {
			err = ErrInvalidCode
		}
		if err == nil {
			createDataGas := uint64(len(ret)) * params.CreateDataGas
			if contract.UseGas(createDataGas) {
				evm.StateDB.SetCode(address, ret)
			} else {
				err = ErrCodeStoreOutOfGas
			}
		}
	}

	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.Gas = 0
		}
	}
	return ret, address, contract.Gas, nil, err
}

// Create deploys code at the CREATE-derived address (keccak256(rlp([sender,
// nonce]))[12:]).
func (evm *EVM) Create(caller common.Address, code []byte, gas uint64, value *uint256.Int) ([]byte, common.Address, uint64, *Suspension, error) {
	nonce, ok := evm.StateDB.GetCachedNonce(caller)
	if !ok {
		return nil, common.Address{}, gas, &Suspension{Kind: NeedNonce, Address: caller}, nil
	}
	addr := crypto.CreateAddress(caller, nonce)
	return evm.create(caller, code, gas, value, addr)
}

// Create2 deploys code at the CREATE2-derived address
// (keccak256(0xff ++ sender ++ salt ++ keccak256(code))[12:]).
func (evm *EVM) Create2(caller common.Address, code []byte, gas uint64, endowment *uint256.Int, salt *uint256.Int) ([]byte, common.Address, uint64, *Suspension, error) {
	addr := crypto.CreateAddress2(caller, salt.Bytes32(), crypto.Keccak256(code))
	return evm.create(caller, code, gas, endowment, addr)
}

// run enters the interpreter for one frame, tracking call depth and
// propagating a Suspension without unwinding any state the caller hasn't
// already snapshotted.
func (evm *EVM) run(contract *Contract, input []byte, isCreate bool) ([]byte, *Suspension, error) {
	evm.depth++
	defer func() { evm.depth-- }()
	return evm.interpreter.Run(contract, input, isCreate)
}
