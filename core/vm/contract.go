package vm

import (
	"github.com/holiman/uint256"

	"github.com/vmcore/suspendvm/common"
)

// Contract represents one frame of execution: the running code, its
// associated input data, and the remaining gas budget, following
// go-ethereum's core/vm/contract.go. CodeAddr and Address diverge for
// DELEGATECALL and CALLCODE, where code from one address runs in another
// account's context.
type Contract struct {
	CallerAddress common.Address
	caller        common.Address
	self          common.Address

	Code     []byte
	CodeHash common.Hash
	CodeAddr *common.Address
	Input    []byte

	Gas   uint64
	value *uint256.Int

	analysis []bool // bitmap of valid JUMPDEST positions for Code, lazily computed
}

// NewContract builds the frame for a call from caller into self with value
// and gas already allocated; the code to run is attached afterwards with
// SetCallCode.
func NewContract(caller, self common.Address, value *uint256.Int, gas uint64) *Contract {
	c := &Contract{CallerAddress: caller, caller: caller, self: self, Gas: gas}
	if value == nil {
		c.value = new(uint256.Int)
	} else {
		c.value = value
	}
	return c
}

func (c *Contract) validJumpdest(dest *uint256.Int) bool {
	udest, overflow := dest.Uint64WithOverflow()
	if overflow || udest >= uint64(len(c.Code)) {
		return false
	}
	if OpCode(c.Code[udest]) != JUMPDEST {
		return false
	}
	return c.isCode(udest)
}

// isCode reports whether udest is a genuine instruction start rather than
// a byte that only looks like JUMPDEST because it falls inside a PUSH
// immediate. The bitmap is computed on first use and memoized on the
// Contract, so it is built once per Contract.
func (c *Contract) isCode(udest uint64) bool {
	if c.analysis == nil {
		c.analysis = codeBitmap(c.Code)
	}
	return c.analysis[udest]
}

// codeBitmap marks every byte offset in code that begins a real
// instruction (as opposed to falling inside a PUSH's immediate operand).
func codeBitmap(code []byte) []bool {
	bitmap := make([]bool, len(code)+1)
	for pc := 0; pc < len(code); {
		bitmap[pc] = true
		op := OpCode(code[pc])
		if op.IsPush() {
			pc += 1 + op.PushSize()
		} else {
			pc++
		}
	}
	return bitmap
}

func (c *Contract) AsDelegate() *Contract {
	c.CallerAddress = c.caller
	return c
}

func (c *Contract) GetOp(n uint64) OpCode {
	if n < uint64(len(c.Code)) {
		return OpCode(c.Code[n])
	}
	return STOP
}

func (c *Contract) Caller() common.Address { return c.CallerAddress }
func (c *Contract) Address() common.Address { return c.self }
func (c *Contract) Value() *uint256.Int     { return c.value }

func (c *Contract) UseGas(gas uint64) bool {
	if c.Gas < gas {
		return false
	}
	c.Gas -= gas
	return true
}

func (c *Contract) SetCallCode(addr common.Address, hash common.Hash, code []byte) {
	c.Code = code
	c.CodeHash = hash
	c.CodeAddr = &addr
}

func (c *Contract) SetCodeOptionalHash(addr common.Address, code []byte, hash common.Hash) {
	c.Code = code
	c.CodeHash = hash
	c.CodeAddr = &addr
}

// ScopeContext groups the three pieces of state one instruction touches:
// the operand stack, linear memory, and the running Contract. It is what
// every opcode handler and dynamicGas function receives.
type ScopeContext struct {
	Memory   *Memory
	Stack    *Stack
	Contract *Contract
}
