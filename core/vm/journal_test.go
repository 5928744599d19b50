package vm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/vmcore/suspendvm/common"
)

func freshStateDB() *CachedStateDB {
	return NewCachedStateDB(NewSuspensionCache(1 << 16))
}

// P3 (revert atomicity): reverting to a snapshot must restore balance,
// nonce, and storage exactly as they were, undoing entries in
// reverse order (LIFO), which matters when the same key is mutated twice
// inside the reverted span.
func TestJournalRevertRestoresPriorValues(t *testing.T) {
	addr := common.HexToAddress("0x01")
	slot := common.HexToHash("0x07")
	sdb := freshStateDB()

	sdb.AddBalance(addr, uint256.NewInt(100))
	sdb.SetNonce(addr, 1)
	sdb.SetState(addr, slot, common.HexToHash("0x63"))

	snap := sdb.Snapshot()

	sdb.AddBalance(addr, uint256.NewInt(50))
	sdb.SetNonce(addr, 2)
	sdb.SetState(addr, slot, common.HexToHash("0x64"))
	sdb.SetState(addr, slot, common.HexToHash("0x65")) // double-write within the span

	require.Equal(t, uint64(150), sdb.GetBalance(addr).Uint64())
	require.Equal(t, uint64(2), sdb.GetNonce(addr))

	sdb.RevertToSnapshot(snap)

	require.Equal(t, uint64(100), sdb.GetBalance(addr).Uint64())
	require.Equal(t, uint64(1), sdb.GetNonce(addr))
	require.Equal(t, common.HexToHash("0x63"), sdb.GetState(addr, slot))
}

func TestJournalCommitIsNoop(t *testing.T) {
	addr := common.HexToAddress("0x02")
	sdb := freshStateDB()

	snap := sdb.Snapshot()
	sdb.AddBalance(addr, uint256.NewInt(7))
	// "commit" in this design is simply never calling RevertToSnapshot for
	// this snapshot; the entries remain in the journal for any outer scope.
	require.Equal(t, uint64(7), sdb.GetBalance(addr).Uint64())
	require.Greater(t, sdb.Snapshot(), snap)
}

// P7: original_storage[k] is fixed at first observation and never changes
// for the rest of the call, even across further writes to k.
func TestOriginalStorageImmutableAfterFirstRead(t *testing.T) {
	addr := common.HexToAddress("0x03")
	slot := common.HexToHash("0x01")
	sdb := freshStateDB()
	sdb.cache.SetState(addr, slot, common.HexToHash("0x2a"))

	first := sdb.GetCommittedState(addr, slot)
	require.Equal(t, common.HexToHash("0x2a"), first)

	sdb.SetState(addr, slot, common.HexToHash("0x99"))
	sdb.SetState(addr, slot, common.HexToHash("0xaa"))

	require.Equal(t, common.HexToHash("0x2a"), sdb.GetCommittedState(addr, slot))
}

func TestSetStorageToZeroLeavesJournalEntryForRevert(t *testing.T) {
	addr := common.HexToAddress("0x04")
	slot := common.HexToHash("0x01")
	sdb := freshStateDB()
	sdb.cache.SetState(addr, slot, common.HexToHash("0x2a"))
	_ = sdb.GetState(addr, slot) // establish original

	snap := sdb.Snapshot()
	sdb.SetState(addr, slot, common.Hash{}) // I3: zero value is semantically absent
	require.True(t, sdb.GetState(addr, slot).IsZero())

	sdb.RevertToSnapshot(snap)
	require.Equal(t, common.HexToHash("0x2a"), sdb.GetState(addr, slot))
}
