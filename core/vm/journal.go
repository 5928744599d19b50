package vm

import (
	"github.com/holiman/uint256"

	"github.com/vmcore/suspendvm/common"
)

// journalEntry is a single undoable mutation recorded by the StateDB's
// journal, mirroring go-ethereum's core/state/journal.go entry types but
// scoped to the subset of state this module tracks locally (balances,
// nonces, code, storage, transient storage, refund counter, logs,
// self-destructs, created-account marks, and access-list warmth).
type journalEntry interface {
	revert(s *CachedStateDB)
}

type (
	balanceChange struct {
		addr common.Address
		prev *uint256.Int
		had  bool
	}
	nonceChange struct {
		addr common.Address
		prev uint64
		had  bool
	}
	codeChange struct {
		addr common.Address
		prev []byte
		had  bool
	}
	storageChange struct {
		addr      common.Address
		key, prev common.Hash
		had       bool
	}
	transientStorageChange struct {
		addr      common.Address
		key, prev common.Hash
	}
	refundChange struct {
		prev uint64
	}
	touchChange struct {
		addr common.Address
	}
	selfDestructChange struct {
		addr        common.Address
		prevDestroyed bool
	}
	createdAccountChange struct {
		addr common.Address
	}
	logChange struct {
	}
	accessListAddAccountChange struct {
		addr common.Address
	}
	accessListAddSlotChange struct {
		addr common.Address
		slot common.Hash
	}
)

func (c balanceChange) revert(s *CachedStateDB) {
	if c.had {
		s.setCachedBalance(c.addr, c.prev)
	}
}

func (c nonceChange) revert(s *CachedStateDB) {
	if c.had {
		s.setCachedNonce(c.addr, c.prev)
	}
}

func (c codeChange) revert(s *CachedStateDB) {
	if c.had {
		s.setCachedCode(c.addr, c.prev)
	}
}

func (c storageChange) revert(s *CachedStateDB) {
	if c.had {
		s.setCachedState(c.addr, c.key, c.prev)
	}
}

func (c transientStorageChange) revert(s *CachedStateDB) {
	s.setTransientState(c.addr, c.key, c.prev)
}

func (c refundChange) revert(s *CachedStateDB) { s.refund = c.prev }

func (c touchChange) revert(s *CachedStateDB) {}

func (c selfDestructChange) revert(s *CachedStateDB) {
	if !c.prevDestroyed {
		delete(s.selfDestructed, c.addr)
	}
}

func (c createdAccountChange) revert(s *CachedStateDB) {
	delete(s.createdAccounts, c.addr)
}

func (c logChange) revert(s *CachedStateDB) {
	s.logs = s.logs[:len(s.logs)-1]
}

func (c accessListAddAccountChange) revert(s *CachedStateDB) {
	s.accessList.removeAddress(c.addr)
}

func (c accessListAddSlotChange) revert(s *CachedStateDB) {
	s.accessList.removeSlot(c.addr, c.slot)
}

// journal is an append-only undo log: Snapshot records the current length,
// RevertToSnapshot replays entries from the end back down to that length in
// reverse order. O(1) to snapshot, O(entries since) to revert.
type journal struct {
	entries []journalEntry
}

func newJournal() *journal { return &journal{} }

func (j *journal) append(e journalEntry) { j.entries = append(j.entries, e) }

func (j *journal) length() int { return len(j.entries) }

func (j *journal) revertTo(s *CachedStateDB, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].revert(s)
	}
	j.entries = j.entries[:snapshot]
}
