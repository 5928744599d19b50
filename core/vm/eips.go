// Copyright 2019 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package vm

import "github.com/vmcore/suspendvm/params"

// EIP activators. Each function mutates a JumpTable in place, applied on
// top of the Frontier baseline by NewJumpTable in jump_table.go in
// ascending hardfork order. EIP-7692 (EOF) introduces a parallel bytecode
// container format and validation pass above plain opcode dispatch and is
// not modeled here.

// enable1884 adds SELFBALANCE and repriced SLOAD/BALANCE/EXTCODEHASH
// (Istanbul).
func enable1884(jt *JumpTable) {
	jt[SLOAD].constantGas = params.SloadGasEIP1884
	jt[BALANCE].constantGas = params.BalanceGasEIP1884
	jt[EXTCODEHASH].constantGas = params.ExtcodeHashGasEIP1884
	jt[SELFBALANCE] = &operation{execute: opSelfBalance, constantGas: GasFastStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
}

// enable1344 adds CHAINID (Istanbul).
func enable1344(jt *JumpTable) {
	jt[CHAINID] = &operation{execute: opChainID, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
}

// enable2200 switches SSTORE to EIP-2200 net-gas metering. gasSStore
// already branches on rules.IsEIP2200 directly; this activator is kept for
// symmetry with the rest of the set and as the place a future divergence
// in SSTORE's table entry would be made.
func enable2200(jt *JumpTable) {
	jt[SSTORE].dynamicGas = gasSStore
}

// enable3529 applies EIP-3529's reduced refund cap and removal of the
// SELFDESTRUCT refund; both are read directly off rules by gas.go's
// capRefund and gas_table.go's gasSelfdestruct, so there is nothing left
// to mutate on the table itself.
func enable3529(jt *JumpTable) {}

// enable3198 adds BASEFEE (London).
func enable3198(jt *JumpTable) {
	jt[BASEFEE] = &operation{execute: opBaseFee, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
}

// enable7516 would add BLOBBASEFEE ahead of full Cancun support; this
// module folds it into enable4844 alongside BLOBHASH since both ship in
// the same Cancun jump table constructed by NewJumpTable, and EIP-7516 is
// never activated independently of EIP-4844 in the schedule modeled here.
