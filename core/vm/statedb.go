package vm

import (
	"github.com/holiman/uint256"

	"github.com/vmcore/suspendvm/common"
	"github.com/vmcore/suspendvm/crypto"
)

// StateDB is the account/storage view the interpreter and EVM dispatcher
// operate against. It is satisfied by CachedStateDB; tests substitute a
// pre-seeded CachedStateDB rather than a separate fake, since the cache
// miss/hit behavior is itself load-bearing.
type StateDB interface {
	GetCachedState(addr common.Address, key common.Hash) (common.Hash, bool)
	GetCachedBalance(addr common.Address) (*uint256.Int, bool)
	GetCachedCode(addr common.Address) ([]byte, bool)
	GetCachedNonce(addr common.Address) (uint64, bool)

	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key, value common.Hash)
	GetCommittedState(addr common.Address, key common.Hash) common.Hash

	GetBalance(addr common.Address) *uint256.Int
	AddBalance(addr common.Address, amount *uint256.Int)
	SubBalance(addr common.Address, amount *uint256.Int)

	GetNonce(addr common.Address) uint64
	SetNonce(addr common.Address, nonce uint64)

	GetCode(addr common.Address) []byte
	SetCode(addr common.Address, code []byte)
	GetCodeHash(addr common.Address) common.Hash
	GetCodeSize(addr common.Address) int

	GetRefund() uint64
	AddRefund(gas uint64)
	SubRefund(gas uint64)

	Exist(addr common.Address) bool
	Empty(addr common.Address) bool
	CreateAccount(addr common.Address)

	SelfDestruct(addr common.Address)
	HasSelfDestructed(addr common.Address) bool
	WasCreatedThisTx(addr common.Address) bool

	AddressInAccessList(addr common.Address) bool
	SlotInAccessList(addr common.Address, slot common.Hash) (bool, bool)
	AddAddressToAccessList(addr common.Address)
	AddSlotToAccessList(addr common.Address, slot common.Hash)

	GetTransientState(addr common.Address, key common.Hash) common.Hash
	SetTransientState(addr common.Address, key, value common.Hash)

	AddLog(log *Log)
	Logs() []*Log

	AddressTouched(addr common.Address)

	Snapshot() int
	RevertToSnapshot(id int)

	Finalise()
}

type accountMeta struct {
	nonce   uint64
	balance *uint256.Int
	code    []byte
	// original holds each touched slot's value as first observed this call
	// (immutable thereafter); storage holds the current working value.
	// SSTORE's EIP-2200/3529 net-metering formula needs both to tell a
	// "dirty" write from a "clean" one.
	original map[common.Hash]common.Hash
	storage  map[common.Hash]common.Hash
}

// CachedStateDB is the StateDB implementation backed directly by a
// SuspensionCache: every read that would normally hit a trie instead hits
// the cache, and a miss is surfaced to the interpreter as a Suspension
// rather than resolved here. Writes are buffered in-process and journaled
// for revert; they are never written into the cache (which only Resolve and
// the driver fill), keeping "what the driver supplied" and "what this call
// wrote" cleanly separated.
type CachedStateDB struct {
	cache   *SuspensionCache
	accs    map[common.Address]*accountMeta
	journal *journal

	transient map[common.Address]map[common.Hash]common.Hash

	selfDestructed  map[common.Address]bool
	createdAccounts map[common.Address]bool
	touched         map[common.Address]bool

	accessList *accessList
	refund     uint64
	logs       []*Log
}

// NewCachedStateDB creates a StateDB over cache, ready for one top-level
// call. Callers share one SuspensionCache across independent calls (so a
// fetched balance or code blob isn't refetched) but construct a fresh
// CachedStateDB — and therefore a fresh journal, access list, and
// self-destruct set — per call.
func NewCachedStateDB(cache *SuspensionCache) *CachedStateDB {
	return &CachedStateDB{
		cache:           cache,
		accs:            make(map[common.Address]*accountMeta),
		journal:         newJournal(),
		transient:       make(map[common.Address]map[common.Hash]common.Hash),
		selfDestructed:  make(map[common.Address]bool),
		createdAccounts: make(map[common.Address]bool),
		touched:         make(map[common.Address]bool),
		accessList:      newAccessList(),
	}
}

func (s *CachedStateDB) acc(addr common.Address) *accountMeta {
	a, ok := s.accs[addr]
	if !ok {
		a = &accountMeta{
			balance:  new(uint256.Int),
			original: make(map[common.Hash]common.Hash),
			storage:  make(map[common.Hash]common.Hash),
		}
		s.accs[addr] = a
	}
	return a
}

// --- cache-miss-surfacing reads ---

// GetCachedState returns slot's current working value for this call,
// ensuring (and, on first touch, recording) its pre-call original from the
// SuspensionCache. A false return means the slot has never been supplied
// by the driver; the caller (Interpreter.needStorage) is responsible for
// turning that into a Suspension.
func (s *CachedStateDB) GetCachedState(addr common.Address, key common.Hash) (common.Hash, bool) {
	a := s.acc(addr)
	if v, ok := a.storage[key]; ok {
		return v, true
	}
	v, ok := s.cache.GetState(addr, key)
	if !ok {
		return common.Hash{}, false
	}
	a.original[key] = v
	a.storage[key] = v
	return v, true
}

func (s *CachedStateDB) GetCachedBalance(addr common.Address) (*uint256.Int, bool) {
	if a, ok := s.accs[addr]; ok {
		return a.balance.Clone(), true
	}
	return s.cache.GetBalance(addr)
}

func (s *CachedStateDB) GetCachedCode(addr common.Address) ([]byte, bool) {
	if a, ok := s.accs[addr]; ok && a.code != nil {
		return a.code, true
	}
	return s.cache.GetCode(addr)
}

func (s *CachedStateDB) GetCachedNonce(addr common.Address) (uint64, bool) {
	if a, ok := s.accs[addr]; ok {
		return a.nonce, true
	}
	return s.cache.GetNonce(addr)
}

// --- journaled mutation API; callers must have already confirmed presence
// via the Get*Cached methods (through Interpreter.need*) before calling any
// of the following, since a miss here would have nothing sensible to do. ---

// GetState returns slot's current working value. Only call after
// Interpreter.needStorage has confirmed the slot is resident.
func (s *CachedStateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	v, _ := s.GetCachedState(addr, key)
	return v
}

// GetCommittedState returns slot's value as of the start of this call.
// Only call after Interpreter.needStorage has confirmed the slot is
// resident (which also populates original).
func (s *CachedStateDB) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	a := s.acc(addr)
	if v, ok := a.original[key]; ok {
		return v
	}
	v, _ := s.GetCachedState(addr, key)
	return v
}

func (s *CachedStateDB) SetState(addr common.Address, key, value common.Hash) {
	prev := s.GetState(addr, key)
	if prev == value {
		return
	}
	s.journal.append(storageChange{addr: addr, key: key, prev: prev, had: true})
	s.setCachedState(addr, key, value)
}

func (s *CachedStateDB) setCachedState(addr common.Address, key, value common.Hash) {
	a := s.acc(addr)
	a.storage[key] = value
}

func (s *CachedStateDB) GetBalance(addr common.Address) *uint256.Int {
	v, _ := s.GetCachedBalance(addr)
	if v == nil {
		v = new(uint256.Int)
	}
	return v
}

func (s *CachedStateDB) setCachedBalance(addr common.Address, v *uint256.Int) {
	s.acc(addr).balance = v.Clone()
}

func (s *CachedStateDB) AddBalance(addr common.Address, amount *uint256.Int) {
	prev := s.GetBalance(addr)
	s.journal.append(balanceChange{addr: addr, prev: prev.Clone(), had: true})
	next := new(uint256.Int).Add(prev, amount)
	s.setCachedBalance(addr, next)
}

func (s *CachedStateDB) SubBalance(addr common.Address, amount *uint256.Int) {
	prev := s.GetBalance(addr)
	s.journal.append(balanceChange{addr: addr, prev: prev.Clone(), had: true})
	next := new(uint256.Int).Sub(prev, amount)
	s.setCachedBalance(addr, next)
}

func (s *CachedStateDB) GetNonce(addr common.Address) uint64 {
	v, _ := s.GetCachedNonce(addr)
	return v
}

func (s *CachedStateDB) setCachedNonce(addr common.Address, n uint64) { s.acc(addr).nonce = n }

func (s *CachedStateDB) SetNonce(addr common.Address, nonce uint64) {
	prev := s.GetNonce(addr)
	s.journal.append(nonceChange{addr: addr, prev: prev, had: true})
	s.setCachedNonce(addr, nonce)
}

func (s *CachedStateDB) GetCode(addr common.Address) []byte {
	v, _ := s.GetCachedCode(addr)
	return v
}

func (s *CachedStateDB) setCachedCode(addr common.Address, code []byte) { s.acc(addr).code = code }

func (s *CachedStateDB) SetCode(addr common.Address, code []byte) {
	prev := s.GetCode(addr)
	s.journal.append(codeChange{addr: addr, prev: prev, had: true})
	s.setCachedCode(addr, code)
}

func (s *CachedStateDB) GetCodeHash(addr common.Address) common.Hash {
	code := s.GetCode(addr)
	if len(code) == 0 {
		return common.EmptyCodeHash
	}
	return crypto.Keccak256Hash(code)
}

func (s *CachedStateDB) GetCodeSize(addr common.Address) int { return len(s.GetCode(addr)) }

func (s *CachedStateDB) GetRefund() uint64 { return s.refund }

func (s *CachedStateDB) AddRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	s.refund += gas
}

func (s *CachedStateDB) SubRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	if gas > s.refund {
		panic("refund counter below zero")
	}
	s.refund -= gas
}

func (s *CachedStateDB) Exist(addr common.Address) bool {
	_, known := s.accs[addr]
	if known {
		return true
	}
	if _, ok := s.cache.GetNonce(addr); ok {
		return true
	}
	if _, ok := s.cache.GetBalance(addr); ok {
		return true
	}
	if _, ok := s.cache.GetCode(addr); ok {
		return true
	}
	return false
}

func (s *CachedStateDB) Empty(addr common.Address) bool {
	return s.GetNonce(addr) == 0 && s.GetBalance(addr).IsZero() && s.GetCodeSize(addr) == 0
}

func (s *CachedStateDB) CreateAccount(addr common.Address) {
	s.journal.append(createdAccountChange{addr: addr})
	s.createdAccounts[addr] = true
	s.acc(addr)
}

func (s *CachedStateDB) SelfDestruct(addr common.Address) {
	prev := s.selfDestructed[addr]
	s.journal.append(selfDestructChange{addr: addr, prevDestroyed: prev})
	s.selfDestructed[addr] = true
	s.setCachedBalance(addr, new(uint256.Int))
}

func (s *CachedStateDB) HasSelfDestructed(addr common.Address) bool { return s.selfDestructed[addr] }

// WasCreatedThisTx reports whether CreateAccount(addr) was called during
// this call, the condition EIP-6780 uses to decide whether SELFDESTRUCT
// still deletes the account or merely sweeps its balance.
func (s *CachedStateDB) WasCreatedThisTx(addr common.Address) bool { return s.createdAccounts[addr] }

func (s *CachedStateDB) AddressInAccessList(addr common.Address) bool {
	return s.accessList.containsAddress(addr)
}

func (s *CachedStateDB) SlotInAccessList(addr common.Address, slot common.Hash) (bool, bool) {
	return s.accessList.containsSlot(addr, slot)
}

func (s *CachedStateDB) AddAddressToAccessList(addr common.Address) {
	if s.accessList.addAddress(addr) {
		s.journal.append(accessListAddAccountChange{addr: addr})
	}
}

func (s *CachedStateDB) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	addrNew, slotNew := s.accessList.addSlot(addr, slot)
	if addrNew {
		s.journal.append(accessListAddAccountChange{addr: addr})
	}
	if slotNew {
		s.journal.append(accessListAddSlotChange{addr: addr, slot: slot})
	}
}

func (s *CachedStateDB) GetTransientState(addr common.Address, key common.Hash) common.Hash {
	if m, ok := s.transient[addr]; ok {
		return m[key]
	}
	return common.Hash{}
}

func (s *CachedStateDB) SetTransientState(addr common.Address, key, value common.Hash) {
	prev := s.GetTransientState(addr, key)
	s.journal.append(transientStorageChange{addr: addr, key: key, prev: prev})
	s.setTransientState(addr, key, value)
}

func (s *CachedStateDB) setTransientState(addr common.Address, key, value common.Hash) {
	m, ok := s.transient[addr]
	if !ok {
		m = make(map[common.Hash]common.Hash)
		s.transient[addr] = m
	}
	m[key] = value
}

func (s *CachedStateDB) AddLog(log *Log) {
	s.journal.append(logChange{})
	s.logs = append(s.logs, log)
}

func (s *CachedStateDB) Logs() []*Log { return s.logs }

func (s *CachedStateDB) AddressTouched(addr common.Address) {
	if !s.touched[addr] {
		s.journal.append(touchChange{addr: addr})
		s.touched[addr] = true
	}
}

func (s *CachedStateDB) Snapshot() int { return s.journal.length() }

func (s *CachedStateDB) RevertToSnapshot(id int) { s.journal.revertTo(s, id) }

// Finalise applies EIP-161's empty-account pruning: any account touched
// during this call that ended up with zero nonce, zero balance, and no
// code is dropped rather than left as an explicit empty entry, matching
// go-ethereum's StateDB.Finalise under SpuriousDragon rules.
func (s *CachedStateDB) Finalise() {
	for addr := range s.touched {
		if s.Empty(addr) {
			delete(s.accs, addr)
		}
	}
}
