package params

// Gas cost constants, named and valued after go-ethereum's
// params/protocol_params.go, extended with the EIP-2929/2200/3529/3860
// constants activated in core/vm/eips.go.
const (
	TxGas                 uint64 = 21000 // Per transaction not creating a contract.
	TxGasContractCreation uint64 = 53000 // Per transaction that creates a contract.
	TxDataZeroGas         uint64 = 4     // Per zero byte of transaction data.
	TxDataNonZeroGasFrontier uint64 = 68
	TxDataNonZeroGasEIP2028  uint64 = 16 // Istanbul+

	TxAccessListAddressGas    uint64 = 2400 // EIP-2930
	TxAccessListStorageKeyGas uint64 = 1900 // EIP-2930

	CallCreateDepth uint64 = 1024 // Maximum call/create stack depth.

	SstoreSetGas   uint64 = 20000
	SstoreResetGas uint64 = 5000
	SstoreClearGas uint64 = 5000
	SstoreRefundGas uint64 = 15000

	SloadGasEIP150          uint64 = 200
	SloadGasEIP1884         uint64 = 800
	SloadGasEIP2200         uint64 = 800
	BalanceGasEIP1884       uint64 = 700
	ExtcodeHashGasEIP1884   uint64 = 700
	SstoreSentryGasEIP2200  uint64 = 2300
	SstoreSetGasEIP2200     uint64 = 20000
	SstoreResetGasEIP2200   uint64 = 5000
	SstoreClearsScheduleRefundEIP2200 uint64 = 15000

	// EIP-2929 cold/warm access costs.
	ColdAccountAccessCostEIP2929 uint64 = 2600
	ColdSloadCostEIP2929         uint64 = 2100
	WarmStorageReadCostEIP2929   uint64 = 100
	SstoreClearsScheduleRefundEIP3529 uint64 = 4800

	QuadCoeffDiv uint64 = 512
	MemoryGas    uint64 = 3

	LogGas      uint64 = 375
	LogTopicGas uint64 = 375
	LogDataGas  uint64 = 8

	Keccak256Gas     uint64 = 30
	Keccak256WordGas uint64 = 6
	CopyGas          uint64 = 3

	CreateGas         uint64 = 32000
	Create2Gas        uint64 = 32000
	CreateDataGas     uint64 = 200
	CallStipend       uint64 = 2300
	CallValueTransferGas uint64 = 9000
	CallNewAccountGas uint64 = 25000
	CallGasEIP150     uint64 = 700

	SelfdestructGasEIP150    uint64 = 5000
	SelfdestructRefundGas    uint64 = 24000
	CreateBySelfdestructGas  uint64 = 25000

	ExpGas          uint64 = 10
	ExpByteFrontier uint64 = 10
	ExpByteEIP158   uint64 = 50

	InitCodeWordGas uint64 = 2

	MaxCodeSize     = 24576
	MaxInitCodeSize = 2 * MaxCodeSize // EIP-3860

	// ECRECOVER, hash, and curve precompile costs.
	EcrecoverGas     uint64 = 3000
	Sha256Gas        uint64 = 60
	Sha256WordGas    uint64 = 12
	Ripemd160Gas     uint64 = 600
	Ripemd160WordGas uint64 = 120
	IdentityGas      uint64 = 15
	IdentityWordGas  uint64 = 3

	Bn256AddGasByzantium             uint64 = 500
	Bn256AddGasIstanbul              uint64 = 150
	Bn256ScalarMulGasByzantium       uint64 = 40000
	Bn256ScalarMulGasIstanbul        uint64 = 6000
	Bn256PairingBaseGasByzantium     uint64 = 100000
	Bn256PairingBaseGasIstanbul      uint64 = 45000
	Bn256PairingPerPointGasByzantium uint64 = 80000
	Bn256PairingPerPointGasIstanbul  uint64 = 34000

	Blake2FBaseGas uint64 = 0 // cost is entirely per-round, charged as rounds*1
	Blake2FPerRoundGas uint64 = 1

	PointEvaluationGas uint64 = 50000 // EIP-4844 POINT_EVALUATION precompile, fixed cost.

	JumpdestGas uint64 = 1
)
