package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmcore/suspendvm/common"
)

// P6 (Warm semantics): the first touch of an address or slot is cold; the
// second is warm, unless a revert discarded the first touch.
func TestAccessListAddressColdThenWarm(t *testing.T) {
	al := newAccessList()
	addr := common.HexToAddress("0xaa")

	require.True(t, al.addAddress(addr), "first touch is cold (newly added)")
	require.False(t, al.addAddress(addr), "second touch is warm (already present)")
	require.True(t, al.containsAddress(addr))
}

func TestAccessListSlotWarmsItsAddressToo(t *testing.T) {
	al := newAccessList()
	addr := common.HexToAddress("0xbb")
	slot := common.HexToHash("0x01")

	addrNew, slotNew := al.addSlot(addr, slot)
	require.True(t, addrNew)
	require.True(t, slotNew)

	addrNew, slotNew = al.addSlot(addr, slot)
	require.False(t, addrNew)
	require.False(t, slotNew)
}

// §9(a): a reverted sub-call's access-list additions are undone (EIP-2929's
// plain reading), so the slot is cold again afterward absent another touch.
func TestAccessListWarmthRevertsWithJournal(t *testing.T) {
	addr := common.HexToAddress("0xcc")
	slot := common.HexToHash("0x07")
	sdb := freshStateDB()

	snap := sdb.Snapshot()
	sdb.AddSlotToAccessList(addr, slot)
	present, warm := sdb.SlotInAccessList(addr, slot)
	require.True(t, present)
	require.True(t, warm)

	sdb.RevertToSnapshot(snap)
	present, warm = sdb.SlotInAccessList(addr, slot)
	require.False(t, present)
	require.False(t, warm)
}

func TestAccessListAddressSurvivesWhenAddedOutsideRevertedSpan(t *testing.T) {
	addr := common.HexToAddress("0xdd")
	sdb := freshStateDB()

	sdb.AddAddressToAccessList(addr) // warmed before the snapshot, e.g. by an outer CALL
	snap := sdb.Snapshot()
	sdb.AddRefund(1) // something else happens inside the span
	sdb.RevertToSnapshot(snap)

	require.True(t, sdb.AddressInAccessList(addr), "warmth predating the snapshot is untouched by its revert")
}
