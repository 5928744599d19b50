package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vmcore/suspendvm/common"
	"github.com/vmcore/suspendvm/params"
)

// newTestEVM builds an EVM over statedb for hf, wiring the same
// CanTransfer/Transfer balance-movement callbacks core/vm/runtime uses, so
// tests can exercise Call/Create without assembling a full runtime.Config.
func newTestEVM(statedb StateDB, hf params.Hardfork) *EVM {
	blockCtx := BlockContext{
		CanTransfer: func(db StateDB, addr common.Address, amount *uint256.Int) bool {
			return db.GetBalance(addr).Cmp(amount) >= 0
		},
		Transfer: func(db StateDB, from, to common.Address, amount *uint256.Int) {
			db.SubBalance(from, amount)
			db.AddBalance(to, amount)
		},
		GetHash:     func(n uint64) common.Hash { return common.Hash{} },
		BlockNumber: big.NewInt(1),
		BaseFee:     new(big.Int),
		BlobBaseFee: new(big.Int),
	}
	txCtx := TxContext{GasPrice: new(big.Int)}
	cfg := &params.ChainConfig{ChainID: big.NewInt(1), Hardfork: hf}
	return NewEVM(blockCtx, txCtx, statedb, cfg)
}
