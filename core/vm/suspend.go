package vm

import (
	"github.com/holiman/uint256"

	"github.com/vmcore/suspendvm/common"
)

// NeedKind identifies which category of external state a Suspension is
// waiting on. These four are the only categories the interpreter ever
// yields for; everything else (block context, gas, stack, memory) is
// either already resident in the Frame or supplied synchronously by the
// Host at call setup.
type NeedKind int

const (
	NeedStorage NeedKind = iota
	NeedBalance
	NeedCode
	NeedNonce
)

func (k NeedKind) String() string {
	switch k {
	case NeedStorage:
		return "storage"
	case NeedBalance:
		return "balance"
	case NeedCode:
		return "code"
	case NeedNonce:
		return "nonce"
	default:
		return "unknown"
	}
}

// Suspension describes exactly one missing piece of external state. Run
// returns a non-nil Suspension instead of an error or a result when the
// interpreter reaches an opcode whose operand is not present in the
// SuspensionCache. The instruction has not popped its operands when it
// suspends, and the attempt that raised it is abandoned: after the missing
// value is injected (Resolve), the driver replays the whole call from the
// top against a fresh CachedStateDB over the same cache, and the replay
// reaches the same instruction and this time hits the cache.
type Suspension struct {
	Kind    NeedKind
	Address common.Address
	Key     common.Hash // only meaningful when Kind == NeedStorage
}

// needStorage checks the cache for addr's slot key, recording a
// NeedStorage Suspension on interpreter in on a miss.
func (in *Interpreter) needStorage(addr common.Address, key common.Hash) (common.Hash, bool) {
	if v, ok := in.evm.StateDB.GetCachedState(addr, key); ok {
		return v, true
	}
	in.suspend = &Suspension{Kind: NeedStorage, Address: addr, Key: key}
	return common.Hash{}, false
}

func (in *Interpreter) needBalance(addr common.Address) (*uint256.Int, bool) {
	if v, ok := in.evm.StateDB.GetCachedBalance(addr); ok {
		return v, true
	}
	in.suspend = &Suspension{Kind: NeedBalance, Address: addr}
	return nil, false
}

func (in *Interpreter) needCode(addr common.Address) ([]byte, bool) {
	if v, ok := in.evm.StateDB.GetCachedCode(addr); ok {
		return v, true
	}
	in.suspend = &Suspension{Kind: NeedCode, Address: addr}
	return nil, false
}

func (in *Interpreter) needNonce(addr common.Address) (uint64, bool) {
	if v, ok := in.evm.StateDB.GetCachedNonce(addr); ok {
		return v, true
	}
	in.suspend = &Suspension{Kind: NeedNonce, Address: addr}
	return 0, false
}

// Resolve injects externally-fetched state into the StateDB's Suspension
// Cache so that re-running the frame can proceed past the point it
// suspended at. It is the driver-side half of the yield/resume protocol
// (spec section on resumption); the core never performs the fetch itself.
func (sdb *CachedStateDB) Resolve(s *Suspension, value any) {
	switch s.Kind {
	case NeedStorage:
		sdb.cache.SetState(s.Address, s.Key, value.(common.Hash))
	case NeedBalance:
		sdb.cache.SetBalance(s.Address, value.(*uint256.Int))
	case NeedCode:
		sdb.cache.SetCode(s.Address, value.([]byte))
	case NeedNonce:
		sdb.cache.SetNonce(s.Address, value.(uint64))
	}
}
