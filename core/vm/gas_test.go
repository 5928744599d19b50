package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmcore/suspendvm/params"
)

// P8 / scenario 3: gas forwarded to any CALL never exceeds
// floor(available*63/64) once EIP-150 is active.
func TestCallGas63of64Rule(t *testing.T) {
	gas, err := callGas(true, 1_000_000, 0, &uint64Wrap{val: math.MaxUint64, valid: true})
	require.NoError(t, err)
	require.Equal(t, uint64(984375), gas) // floor(1_000_000 * 63/64)
}

func TestCallGasHonoursExplicitLowerRequest(t *testing.T) {
	gas, err := callGas(true, 1_000_000, 0, &uint64Wrap{val: 1000, valid: true})
	require.NoError(t, err)
	require.Equal(t, uint64(1000), gas)
}

func TestCallGasDeductsBaseBeforeApplyingTheRule(t *testing.T) {
	gas, err := callGas(true, 1_000_000, 40, &uint64Wrap{val: math.MaxUint64, valid: true})
	require.NoError(t, err)
	available := uint64(1_000_000 - 40)
	require.Equal(t, available-available/64, gas)
}

func TestIntrinsicGasBaseAndCalldata(t *testing.T) {
	rules := params.Rules{IsIstanbul: true}
	gas, err := IntrinsicGas(nil, false, rules)
	require.NoError(t, err)
	require.Equal(t, params.TxGas, gas)

	gas, err = IntrinsicGas([]byte{0x00, 0x01, 0x02}, false, rules)
	require.NoError(t, err)
	require.Equal(t, params.TxGas+params.TxDataZeroGas+2*params.TxDataNonZeroGasEIP2028, gas)
}

func TestIntrinsicGasContractCreation(t *testing.T) {
	rules := params.Rules{IsIstanbul: true, IsLondon: true, IsEIP3860: true}
	gas, err := IntrinsicGas([]byte{0x01, 0x02}, true, rules)
	require.NoError(t, err)
	want := params.TxGasContractCreation + 2*params.TxDataNonZeroGasEIP2028 + toWordSize(2)*params.InitCodeWordGas
	require.Equal(t, want, gas)
}

// P4: applied_refund = min(reported_refund, gas_used/5) post-London.
func TestRefundCapCancun(t *testing.T) {
	rules := params.Rules{IsEIP3529: true}
	require.Equal(t, uint64(20), capRefund(rules, 100, 30))
	require.Equal(t, uint64(10), capRefund(rules, 100, 10))
}

func TestRefundCapPreLondon(t *testing.T) {
	rules := params.Rules{}
	require.Equal(t, uint64(50), capRefund(rules, 100, 70))
}
