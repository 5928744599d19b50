// Package runtime provides one-shot convenience wrappers — Execute, Call,
// and Create — around the suspendable EVM, for callers that don't want to
// assemble an EVM, StateDB, and call descriptor by hand. It follows
// go-ethereum's own core/vm/runtime package (Execute/Call/Create, Config,
// setDefaults), generalized here to drive the suspend/resume protocol to
// completion against a synchronous Host rather than assuming state is
// always resident.
package runtime

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vmcore/suspendvm/common"
	"github.com/vmcore/suspendvm/core/vm"
	"github.com/vmcore/suspendvm/params"
)

// Config mirrors go-ethereum's runtime.Config: the block/tx context fields
// an EVM needs, defaulted by setDefaults when left zero. State is the Host
// that answers each Suspension; one Host can be reused across several
// Execute/Call/Create invocations sharing the same backing data, while each
// invocation starts its own empty SuspensionCache.
type Config struct {
	ChainConfig *params.ChainConfig
	Origin      common.Address
	Coinbase    common.Address
	BlockNumber *big.Int
	Time        uint64
	Difficulty  *big.Int
	GasLimit    uint64
	GasPrice    *big.Int
	Value       *uint256.Int
	BaseFee     *big.Int
	BlobBaseFee *big.Int
	BlobHashes  []common.Hash
	Random      *common.Hash
	GetHashFn   func(n uint64) common.Hash

	State Host

	// MaxSuspensions bounds how many times a single Execute/Call/Create may
	// replay after a Suspension before giving up, guarding against a Host
	// that never answers a request (see ErrTooManySuspensions).
	MaxSuspensions int
}

func setDefaults(cfg *Config) {
	if cfg.ChainConfig == nil {
		cfg.ChainConfig = params.MainnetChainConfig()
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = 30_000_000
	}
	if cfg.GasPrice == nil {
		cfg.GasPrice = new(big.Int)
	}
	if cfg.Value == nil {
		cfg.Value = new(uint256.Int)
	}
	if cfg.BlockNumber == nil {
		cfg.BlockNumber = new(big.Int)
	}
	if cfg.Difficulty == nil {
		cfg.Difficulty = new(big.Int)
	}
	if cfg.BaseFee == nil {
		cfg.BaseFee = new(big.Int)
	}
	if cfg.BlobBaseFee == nil {
		cfg.BlobBaseFee = new(big.Int)
	}
	if cfg.GetHashFn == nil {
		cfg.GetHashFn = func(n uint64) common.Hash {
			return common.BytesToHash([]byte{byte(n)})
		}
	}
	if cfg.State == nil {
		cfg.State = NewTestHost()
	}
	if cfg.MaxSuspensions == 0 {
		cfg.MaxSuspensions = 10_000
	}
}

// ErrTooManySuspensions is returned when a call replays MaxSuspensions times
// without reaching a terminal Outcome, which only happens if the Host keeps
// answering requests the interpreter immediately asks for again (a Host bug)
// or genuinely never has the data (in which case the caller should treat
// this as a configuration error, not retry further).
var ErrTooManySuspensions = errors.New("runtime: exceeded max suspension replays")

func newEVM(cfg *Config, cache *vm.SuspensionCache) *vm.EVM {
	blockCtx := vm.BlockContext{
		CanTransfer: func(db vm.StateDB, addr common.Address, amount *uint256.Int) bool {
			return db.GetBalance(addr).Cmp(amount) >= 0
		},
		Transfer: func(db vm.StateDB, from, to common.Address, amount *uint256.Int) {
			db.SubBalance(from, amount)
			db.AddBalance(to, amount)
		},
		GetHash:     cfg.GetHashFn,
		Coinbase:    cfg.Coinbase,
		GasLimit:    cfg.GasLimit,
		BlockNumber: cfg.BlockNumber,
		Time:        cfg.Time,
		Difficulty:  cfg.Difficulty,
		BaseFee:     cfg.BaseFee,
		BlobBaseFee: cfg.BlobBaseFee,
		Random:      cfg.Random,
	}
	txCtx := vm.TxContext{
		Origin:     cfg.Origin,
		GasPrice:   cfg.GasPrice,
		BlobHashes: cfg.BlobHashes,
	}
	statedb := vm.NewCachedStateDB(cache)
	statedb.CreateAccount(cfg.Origin)
	statedb.SetNonce(cfg.Origin, hostNonce(cfg.State, cfg.Origin))
	statedb.AddBalance(cfg.Origin, hostBalance(cfg.State, cfg.Origin))
	return vm.NewEVM(blockCtx, txCtx, statedb, cfg.ChainConfig)
}

func hostBalance(h Host, addr common.Address) *uint256.Int {
	if v, ok := h.GetBalance(addr); ok {
		return v
	}
	return new(uint256.Int)
}

func hostNonce(h Host, addr common.Address) uint64 {
	v, _ := h.GetNonce(addr)
	return v
}

// attemptResult is the shared shape every retried call produces, whatever
// its kind (Call/Create). A Create additionally carries the new address.
type attemptResult struct {
	ret     []byte
	gas     uint64
	addr    common.Address
	suspend *vm.Suspension
	err     error
}

// runToCompletion repeatedly invokes attempt, feeding each Suspension it
// raises to host and replaying, per the resume model documented in
// core/vm/interpreter.go and DESIGN.md: the SuspensionCache only grows
// between attempts, so replaying from the top is a correct (if not minimal)
// implementation of "resume the deepest suspended frame".
func runToCompletion(cache *vm.SuspensionCache, host Host, maxAttempts int, attempt func() attemptResult) ([]byte, common.Address, uint64, error) {
	for i := 0; i < maxAttempts; i++ {
		res := attempt()
		if res.suspend == nil {
			return res.ret, res.addr, res.gas, res.err
		}
		if err := resolveFromHost(cache, host, res.suspend); err != nil {
			return nil, common.Address{}, 0, err
		}
	}
	return nil, common.Address{}, 0, ErrTooManySuspensions
}

func resolveFromHost(cache *vm.SuspensionCache, host Host, s *vm.Suspension) error {
	switch s.Kind {
	case vm.NeedStorage:
		v, _ := host.GetStorage(s.Address, s.Key)
		cache.SetState(s.Address, s.Key, v)
	case vm.NeedBalance:
		v, ok := host.GetBalance(s.Address)
		if !ok {
			v = new(uint256.Int)
		}
		cache.SetBalance(s.Address, v)
	case vm.NeedCode:
		v, _ := host.GetCode(s.Address)
		cache.SetCode(s.Address, v)
	case vm.NeedNonce:
		v, _ := host.GetNonce(s.Address)
		cache.SetNonce(s.Address, v)
	default:
		return errors.New("runtime: unknown suspension kind")
	}
	return nil
}

// Execute runs code as ephemeral bytecode: a fresh account at the address
// common.BytesToAddress([]byte("contract")) is given code and called with
// input, analogous to
// go-ethereum's runtime.Execute. Returns the RETURN/REVERT output and
// leftover gas.
func Execute(code, input []byte, cfg *Config) ([]byte, uint64, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	cache := vm.NewSuspensionCache(1 << 20)
	address := common.BytesToAddress([]byte("contract"))
	cache.SetCode(address, code)
	cache.SetNonce(address, 0)
	cache.SetBalance(address, new(uint256.Int))

	ret, _, gas, err := runToCompletion(cache, cfg.State, cfg.MaxSuspensions, func() attemptResult {
		evm := newEVM(cfg, cache)
		out, leftover, suspend, cerr := evm.Call(cfg.Origin, address, input, cfg.GasLimit, cfg.Value)
		return attemptResult{ret: out, gas: leftover, suspend: suspend, err: cerr}
	})
	return ret, gas, err
}

// Call invokes the code already deployed at address, resolving any account
// data the Host hasn't pre-seeded by querying cfg.State.
func Call(address common.Address, input []byte, cfg *Config) ([]byte, uint64, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)
	cache := vm.NewSuspensionCache(1 << 20)

	ret, _, gas, err := runToCompletion(cache, cfg.State, cfg.MaxSuspensions, func() attemptResult {
		evm := newEVM(cfg, cache)
		out, leftover, suspend, cerr := evm.Call(cfg.Origin, address, input, cfg.GasLimit, cfg.Value)
		return attemptResult{ret: out, gas: leftover, suspend: suspend, err: cerr}
	})
	return ret, gas, err
}

// Create deploys input as init code from cfg.Origin, returning the runtime
// code's RETURN output, the deployed address, and leftover gas.
func Create(input []byte, cfg *Config) ([]byte, common.Address, uint64, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)
	cache := vm.NewSuspensionCache(1 << 20)

	return runToCompletion(cache, cfg.State, cfg.MaxSuspensions, func() attemptResult {
		evm := newEVM(cfg, cache)
		out, addr, leftover, suspend, cerr := evm.Create(cfg.Origin, input, cfg.GasLimit, cfg.Value)
		return attemptResult{ret: out, gas: leftover, addr: addr, suspend: suspend, err: cerr}
	})
}
