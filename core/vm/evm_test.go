package vm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/vmcore/suspendvm/common"
	"github.com/vmcore/suspendvm/crypto"
	"github.com/vmcore/suspendvm/params"
)

// Scenario 1: PUSH1 0x00 SLOAD STOP against an empty cache yields
// NeedStorage, and resuming with the injected value lets the same call
// complete, charging the cold SLOAD (P5).
func TestScenario1SloadSuspendThenResume(t *testing.T) {
	cache := NewSuspensionCache(1 << 16)
	contractAddr := common.HexToAddress("0xc0ffee")
	caller := common.HexToAddress("0x01")
	code := []byte{0x60, 0x00, 0x54, 0x00} // PUSH1 0x00, SLOAD, STOP
	cache.SetCode(contractAddr, code)

	sdb1 := NewCachedStateDB(cache)
	evm1 := newTestEVM(sdb1, params.Cancun)
	_, _, suspend, err := evm1.Call(caller, contractAddr, nil, 100000, new(uint256.Int))
	require.NoError(t, err)
	require.NotNil(t, suspend)
	require.Equal(t, NeedStorage, suspend.Kind)
	require.Equal(t, contractAddr, suspend.Address)
	require.Equal(t, common.Hash{}, suspend.Key) // slot 0

	sdb1.Resolve(suspend, common.HexToHash("0x2a")) // inject 42

	sdb2 := NewCachedStateDB(cache)
	evm2 := newTestEVM(sdb2, params.Cancun)
	ret, leftover, suspend2, err := evm2.Call(caller, contractAddr, nil, 100000, new(uint256.Int))
	require.NoError(t, err)
	require.Nil(t, suspend2)
	require.Empty(t, ret)

	wantUsed := GasFastestStep + params.ColdSloadCostEIP2929 // PUSH1 + cold SLOAD
	require.Equal(t, uint64(100000)-wantUsed, leftover)
}

// Scenario 2: a sub-call writes storage then REVERTs; the outer call still
// succeeds, the write is undone (P3), and the slot's warmth added inside
// the reverted frame is undone too, while the address warmed by the
// outer CALL itself survives (§9(a), P6).
func TestScenario2NestedRevertUndoesStorageAndSlotWarmth(t *testing.T) {
	cache := NewSuspensionCache(1 << 16)
	caller := common.HexToAddress("0x01")
	outerAddr := common.HexToAddress("0xaaaa")
	innerAddr := common.HexToAddress("0x0000000000000000000000000000000000cafe")
	slot := common.HexToHash("0x07")

	// inner: PUSH1 0x63 PUSH1 0x07 SSTORE PUSH1 0x00 PUSH1 0x00 REVERT
	innerCode := []byte{0x60, 0x63, 0x60, 0x07, 0x55, 0x60, 0x00, 0x60, 0x00, 0xfd}

	outerCode := buildCallBytecode(innerAddr, 100000)

	cache.SetCode(outerAddr, outerCode)
	cache.SetCode(innerAddr, innerCode)
	cache.SetState(innerAddr, slot, common.Hash{})

	sdb := NewCachedStateDB(cache)
	evm := newTestEVM(sdb, params.Cancun)
	_, _, suspend, err := evm.Call(caller, outerAddr, nil, 1_000_000, new(uint256.Int))
	require.NoError(t, err)
	require.Nil(t, suspend)

	require.True(t, sdb.GetState(innerAddr, slot).IsZero(), "revert undid the SSTORE")

	require.True(t, sdb.AddressInAccessList(innerAddr), "CALL itself warms its target regardless of the sub-call's outcome")
	_, slotWarm := sdb.SlotInAccessList(innerAddr, slot)
	require.False(t, slotWarm, "the slot's warmth, added inside the reverted frame, is undone")
}

// buildCallBytecode assembles PUSH1 0(retSize) PUSH1 0(retOffset)
// PUSH1 0(inSize) PUSH1 0(inOffset) PUSH1 0(value) PUSH20 target
// PUSH3 gas CALL STOP, matching opCall's pop order (gas, addr, value,
// inOffset, inSize, retOffset, retSize).
func buildCallBytecode(target common.Address, gas uint32) []byte {
	code := []byte{
		0x60, 0x00, // PUSH1 0 (retSize)
		0x60, 0x00, // PUSH1 0 (retOffset)
		0x60, 0x00, // PUSH1 0 (inSize)
		0x60, 0x00, // PUSH1 0 (inOffset)
		0x60, 0x00, // PUSH1 0 (value)
		0x73, // PUSH20
	}
	code = append(code, target.Bytes()...)
	code = append(code, 0x62, byte(gas>>16), byte(gas>>8), byte(gas)) // PUSH3 gas
	code = append(code, 0xf1)                                        // CALL
	code = append(code, 0x00)                                        // STOP
	return code
}

// Scenario 4: CREATE2's address derivation matches EIP-1014 byte-for-byte
// against an independently computed reference.
func TestScenario4Create2AddressMatchesEIP1014Derivation(t *testing.T) {
	cache := NewSuspensionCache(1 << 16)
	sender := common.HexToAddress("0x01")
	salt := uint256.NewInt(0)
	initcode := []byte{0x00}

	sdb := NewCachedStateDB(cache)
	evm := newTestEVM(sdb, params.Cancun)
	sdb.SetNonce(sender, 0)

	want := crypto.CreateAddress2(sender, salt.Bytes32(), crypto.Keccak256(initcode))

	_, addr, _, suspend, err := evm.Create2(sender, initcode, 100000, new(uint256.Int), salt)
	require.NoError(t, err)
	require.Nil(t, suspend)
	require.Equal(t, want, addr)
}

// Scenario 6: STATICCALL directly into code that executes SSTORE fails
// with ErrWriteProtection, caught by the interpreter's read-only check
// before the opcode ever runs, and the storage write never happens.
func TestScenario6StaticViolationFailsSubCallOnly(t *testing.T) {
	cache := NewSuspensionCache(1 << 16)
	caller := common.HexToAddress("0x01")
	targetAddr := common.HexToAddress("0xbeef")
	slot := common.HexToHash("0x01")

	// PUSH1 1 PUSH1 1 SSTORE STOP
	targetCode := []byte{0x60, 0x01, 0x60, 0x01, 0x55, 0x00}
	cache.SetCode(targetAddr, targetCode)
	cache.SetState(targetAddr, slot, common.Hash{})

	sdb := NewCachedStateDB(cache)
	evm := newTestEVM(sdb, params.Cancun)

	ret, leftover, suspend, err := evm.StaticCall(caller, targetAddr, nil, 100000)
	require.ErrorIs(t, err, ErrWriteProtection)
	require.Nil(t, suspend)
	require.Empty(t, ret)
	require.Equal(t, uint64(0), leftover, "all gas is consumed on a non-revert failure")
	require.True(t, sdb.GetState(targetAddr, slot).IsZero())
}

func TestStaticCallRejectsValueTransferThroughNestedCall(t *testing.T) {
	cache := NewSuspensionCache(1 << 16)
	caller := common.HexToAddress("0x01")
	targetAddr := common.HexToAddress("0xd00d")
	innerAddr := common.HexToAddress("0x1111")

	outerCode := buildCallWithValueBytecode(innerAddr, 50000, 1)
	cache.SetCode(targetAddr, outerCode)
	cache.SetCode(innerAddr, []byte{0x00})

	sdb := NewCachedStateDB(cache)
	evm := newTestEVM(sdb, params.Cancun)

	_, _, suspend, err := evm.StaticCall(caller, targetAddr, nil, 200000)
	require.ErrorIs(t, err, ErrWriteProtection)
	require.Nil(t, suspend)
}

func buildCallWithValueBytecode(target common.Address, gas uint32, value byte) []byte {
	code := []byte{
		0x60, 0x00, // retSize
		0x60, 0x00, // retOffset
		0x60, 0x00, // inSize
		0x60, 0x00, // inOffset
		0x60, value, // value
		0x73,
	}
	code = append(code, target.Bytes()...)
	code = append(code, 0x62, byte(gas>>16), byte(gas>>8), byte(gas))
	code = append(code, 0xf1, 0x00)
	return code
}
