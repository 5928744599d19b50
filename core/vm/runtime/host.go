package runtime

import (
	"github.com/holiman/uint256"

	"github.com/vmcore/suspendvm/common"
)

// Host is the synchronous state source spec section 6 calls "Host interface
// (optional)": get_storage, get_balance, get_code, get_nonce. It is
// consulted only when the Suspension Cache misses (see resolveFromHost), so
// a Host never needs to distinguish "account doesn't exist" from "account
// has the zero value" — both answer with (zero value, false) or (zero
// value, true) interchangeably; runToCompletion treats a false ok the same
// as an explicit zero.
type Host interface {
	GetStorage(addr common.Address, slot common.Hash) (common.Hash, bool)
	GetBalance(addr common.Address) (*uint256.Int, bool)
	GetCode(addr common.Address) ([]byte, bool)
	GetNonce(addr common.Address) (uint64, bool)
}

// TestHost is a reference in-memory Host: a plain map-backed account store
// for tests and cmd/evmrun, the same role go-ethereum's runtime package
// fills with a real core/state.StateDB, simplified here since this module
// excludes trie/on-disk persistence by design.
type TestHost struct {
	balances map[common.Address]*uint256.Int
	nonces   map[common.Address]uint64
	codes    map[common.Address][]byte
	storage  map[common.Address]map[common.Hash]common.Hash
}

// NewTestHost returns an empty TestHost; every address starts with zero
// balance, zero nonce, no code, and all-zero storage.
func NewTestHost() *TestHost {
	return &TestHost{
		balances: make(map[common.Address]*uint256.Int),
		nonces:   make(map[common.Address]uint64),
		codes:    make(map[common.Address][]byte),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
	}
}

func (h *TestHost) SetBalance(addr common.Address, v *uint256.Int) { h.balances[addr] = v.Clone() }
func (h *TestHost) SetNonce(addr common.Address, n uint64)         { h.nonces[addr] = n }
func (h *TestHost) SetCode(addr common.Address, code []byte)       { h.codes[addr] = common.CopyBytes(code) }

func (h *TestHost) SetStorage(addr common.Address, slot, value common.Hash) {
	m, ok := h.storage[addr]
	if !ok {
		m = make(map[common.Hash]common.Hash)
		h.storage[addr] = m
	}
	m[slot] = value
}

func (h *TestHost) GetStorage(addr common.Address, slot common.Hash) (common.Hash, bool) {
	m, ok := h.storage[addr]
	if !ok {
		return common.Hash{}, true
	}
	v, ok := m[slot]
	if !ok {
		return common.Hash{}, true
	}
	return v, true
}

func (h *TestHost) GetBalance(addr common.Address) (*uint256.Int, bool) {
	if v, ok := h.balances[addr]; ok {
		return v.Clone(), true
	}
	return new(uint256.Int), true
}

func (h *TestHost) GetCode(addr common.Address) ([]byte, bool) {
	if v, ok := h.codes[addr]; ok {
		return v, true
	}
	return nil, true
}

func (h *TestHost) GetNonce(addr common.Address) (uint64, bool) {
	return h.nonces[addr], true
}
