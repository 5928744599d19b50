package vm

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/vmcore/suspendvm/common"
)

// slotKey identifies one storage slot within the warm-access set.
type slotKey struct {
	addr common.Address
	slot common.Hash
}

// accessList tracks EIP-2929/2930 warm addresses and storage slots for the
// lifetime of one top-level call, using generic sets from golang-set.
type accessList struct {
	addresses mapset.Set[common.Address]
	slots     mapset.Set[slotKey]
}

func newAccessList() *accessList {
	return &accessList{
		addresses: mapset.NewThreadUnsafeSet[common.Address](),
		slots:     mapset.NewThreadUnsafeSet[slotKey](),
	}
}

func (al *accessList) containsAddress(addr common.Address) bool {
	return al.addresses.Contains(addr)
}

func (al *accessList) containsSlot(addr common.Address, slot common.Hash) (addressPresent, slotPresent bool) {
	addressPresent = al.addresses.Contains(addr)
	slotPresent = al.slots.Contains(slotKey{addr, slot})
	return
}

// addAddress returns true if addr was newly added (cold -> warm).
func (al *accessList) addAddress(addr common.Address) bool {
	if al.addresses.Contains(addr) {
		return false
	}
	al.addresses.Add(addr)
	return true
}

// addSlot returns (addrNew, slotNew).
func (al *accessList) addSlot(addr common.Address, slot common.Hash) (bool, bool) {
	addrNew := al.addAddress(addr)
	key := slotKey{addr, slot}
	if al.slots.Contains(key) {
		return addrNew, false
	}
	al.slots.Add(key)
	return addrNew, true
}

func (al *accessList) removeAddress(addr common.Address) { al.addresses.Remove(addr) }

func (al *accessList) removeSlot(addr common.Address, slot common.Hash) {
	al.slots.Remove(slotKey{addr, slot})
}
