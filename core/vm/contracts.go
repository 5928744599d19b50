package vm

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	gokzg4844 "github.com/crate-crypto/go-kzg-4844"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/ripemd160"

	"github.com/vmcore/suspendvm/common"
	"github.com/vmcore/suspendvm/crypto"
	"github.com/vmcore/suspendvm/params"
)

// PrecompiledContract is satisfied by each of the native contracts wired in
// at addresses 0x01-0x0a. RequiredGas is consulted before Run so a caller
// out of gas never pays for the computation.
type PrecompiledContract interface {
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
}

var (
	precompilesFrontier = map[common.Address]PrecompiledContract{
		common.BytesToAddress([]byte{1}): &ecrecoverPrecompile{},
		common.BytesToAddress([]byte{2}): &sha256Precompile{},
		common.BytesToAddress([]byte{3}): &ripemd160Precompile{},
		common.BytesToAddress([]byte{4}): &identityPrecompile{},
	}

	precompilesByzantium = map[common.Address]PrecompiledContract{
		common.BytesToAddress([]byte{1}): &ecrecoverPrecompile{},
		common.BytesToAddress([]byte{2}): &sha256Precompile{},
		common.BytesToAddress([]byte{3}): &ripemd160Precompile{},
		common.BytesToAddress([]byte{4}): &identityPrecompile{},
		common.BytesToAddress([]byte{5}): &modExpPrecompile{},
		common.BytesToAddress([]byte{6}): &bn256AddPrecompile{gas: params.Bn256AddGasByzantium},
		common.BytesToAddress([]byte{7}): &bn256ScalarMulPrecompile{gas: params.Bn256ScalarMulGasByzantium},
		common.BytesToAddress([]byte{8}): &bn256PairingPrecompile{baseGas: params.Bn256PairingBaseGasByzantium, perPointGas: params.Bn256PairingPerPointGasByzantium},
	}

	precompilesIstanbul = map[common.Address]PrecompiledContract{
		common.BytesToAddress([]byte{1}): &ecrecoverPrecompile{},
		common.BytesToAddress([]byte{2}): &sha256Precompile{},
		common.BytesToAddress([]byte{3}): &ripemd160Precompile{},
		common.BytesToAddress([]byte{4}): &identityPrecompile{},
		common.BytesToAddress([]byte{5}): &modExpPrecompile{},
		common.BytesToAddress([]byte{6}): &bn256AddPrecompile{gas: params.Bn256AddGasIstanbul},
		common.BytesToAddress([]byte{7}): &bn256ScalarMulPrecompile{gas: params.Bn256ScalarMulGasIstanbul},
		common.BytesToAddress([]byte{8}): &bn256PairingPrecompile{baseGas: params.Bn256PairingBaseGasIstanbul, perPointGas: params.Bn256PairingPerPointGasIstanbul},
		common.BytesToAddress([]byte{9}): &blake2FPrecompile{},
	}

	precompilesCancun = map[common.Address]PrecompiledContract{
		common.BytesToAddress([]byte{1}):    &ecrecoverPrecompile{},
		common.BytesToAddress([]byte{2}):    &sha256Precompile{},
		common.BytesToAddress([]byte{3}):    &ripemd160Precompile{},
		common.BytesToAddress([]byte{4}):    &identityPrecompile{},
		common.BytesToAddress([]byte{5}):    &modExpPrecompile{},
		common.BytesToAddress([]byte{6}):    &bn256AddPrecompile{gas: params.Bn256AddGasIstanbul},
		common.BytesToAddress([]byte{7}):    &bn256ScalarMulPrecompile{gas: params.Bn256ScalarMulGasIstanbul},
		common.BytesToAddress([]byte{8}):    &bn256PairingPrecompile{baseGas: params.Bn256PairingBaseGasIstanbul, perPointGas: params.Bn256PairingPerPointGasIstanbul},
		common.BytesToAddress([]byte{9}):    &blake2FPrecompile{},
		common.BytesToAddress([]byte{0x0a}): &kzgPointEvaluationPrecompile{},
	}
)

// PrecompiledContractForAddress resolves addr to its native implementation
// under rules' active hardfork, mirroring go-ethereum's per-fork precompile
// maps (PrecompiledContractsHomestead/Byzantium/Istanbul/Cancun). ECRECOVER,
// SHA256, RIPEMD160 and IDENTITY have been active since Frontier; BN256 and
// BLAKE2F and the KZG point evaluation contract are gated behind the forks
// that introduced them.
func PrecompiledContractForAddress(addr common.Address, rules params.Rules) (PrecompiledContract, bool) {
	var table map[common.Address]PrecompiledContract
	switch {
	case rules.IsCancun:
		table = precompilesCancun
	case rules.IsIstanbul:
		table = precompilesIstanbul
	case rules.IsByzantium:
		table = precompilesByzantium
	default:
		table = precompilesFrontier
	}
	p, ok := table[addr]
	return p, ok
}

// RunPrecompiledContract charges contract's required gas out of gas and
// runs it, returning the unspent gas alongside the output.
func RunPrecompiledContract(contract PrecompiledContract, input []byte, gas uint64) ([]byte, uint64, error) {
	gasCost := contract.RequiredGas(input)
	if gas < gasCost {
		return nil, 0, ErrOutOfGas
	}
	output, err := contract.Run(input)
	return output, gas - gasCost, err
}

// wordCount returns ceil(size/32), the unit most precompile gas schedules
// charge per input word.
func wordCount(size int) uint64 {
	return uint64((size + 31) / 32)
}

// rightPad returns data padded on the right with zero bytes to at least n
// bytes, matching the *-COPY opcodes' and precompiles' shared convention
// for reading past the end of a byte slice.
func rightPad(data []byte, n int) []byte {
	if len(data) >= n {
		return data
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}

// sliceOrZero extracts data[start:start+size], zero-filling whatever falls
// outside data's bounds.
func sliceOrZero(data []byte, start, size uint64) []byte {
	out := make([]byte, size)
	if start >= uint64(len(data)) {
		return out
	}
	end := start + size
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	copy(out, data[start:end])
	return out
}

// --- ECRECOVER, address 0x01 ---

type ecrecoverPrecompile struct{}

func (c *ecrecoverPrecompile) RequiredGas(input []byte) uint64 { return params.EcrecoverGas }

func (c *ecrecoverPrecompile) Run(input []byte) ([]byte, error) {
	input = rightPad(input, 128)

	v := new(big.Int).SetBytes(input[32:64])
	if v.BitLen() > 8 {
		return nil, nil
	}
	vByte := byte(v.Uint64())
	if vByte != 27 && vByte != 28 {
		return nil, nil
	}

	r := new(big.Int).SetBytes(input[64:96])
	s := new(big.Int).SetBytes(input[96:128])
	if !validateSignatureValues(r, s) {
		return nil, nil
	}

	sig := make([]byte, 65)
	rBytes, sBytes := r.Bytes(), s.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)
	sig[64] = vByte - 27

	pub, err := crypto.Ecrecover(input[:32], sig)
	if err != nil {
		return nil, nil
	}
	addr := crypto.Keccak256(pub[1:])
	out := make([]byte, 32)
	copy(out[12:], addr[12:])
	return out, nil
}

var (
	secp256k1N     = mustBigFromHex("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)
)

func mustBigFromHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("invalid hex constant: " + s)
	}
	return n
}

// validateSignatureValues enforces EIP-2's low-S rule in addition to the
// basic [1, n-1] range check, as go-ethereum's ecrecover precompile does
// unconditionally regardless of hardfork.
func validateSignatureValues(r, s *big.Int) bool {
	if r.Sign() <= 0 || r.Cmp(secp256k1N) >= 0 {
		return false
	}
	if s.Sign() <= 0 || s.Cmp(secp256k1N) >= 0 {
		return false
	}
	return s.Cmp(secp256k1HalfN) <= 0
}

// --- SHA256, address 0x02 ---

type sha256Precompile struct{}

func (c *sha256Precompile) RequiredGas(input []byte) uint64 {
	return params.Sha256Gas + params.Sha256WordGas*wordCount(len(input))
}

func (c *sha256Precompile) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

// --- RIPEMD160, address 0x03 ---

type ripemd160Precompile struct{}

func (c *ripemd160Precompile) RequiredGas(input []byte) uint64 {
	return params.Ripemd160Gas + params.Ripemd160WordGas*wordCount(len(input))
}

func (c *ripemd160Precompile) Run(input []byte) ([]byte, error) {
	h := ripemd160.New()
	h.Write(input)
	digest := h.Sum(nil)
	out := make([]byte, 32)
	copy(out[12:], digest)
	return out, nil
}

// --- IDENTITY, address 0x04 ---

type identityPrecompile struct{}

func (c *identityPrecompile) RequiredGas(input []byte) uint64 {
	return params.IdentityGas + params.IdentityWordGas*wordCount(len(input))
}

func (c *identityPrecompile) Run(input []byte) ([]byte, error) {
	out := make([]byte, len(input))
	copy(out, input)
	return out, nil
}

// --- MODEXP, address 0x05 (EIP-198/EIP-2565) ---

type modExpPrecompile struct{}

func (c *modExpPrecompile) RequiredGas(input []byte) uint64 {
	input = rightPad(input, 96)
	baseLen := new(big.Int).SetBytes(input[0:32])
	expLen := new(big.Int).SetBytes(input[32:64])
	modLen := new(big.Int).SetBytes(input[64:96])

	if !baseLen.IsUint64() || !expLen.IsUint64() || !modLen.IsUint64() {
		return ^uint64(0)
	}
	bLen, eLen, mLen := baseLen.Uint64(), expLen.Uint64(), modLen.Uint64()

	maxLen := bLen
	if mLen > maxLen {
		maxLen = mLen
	}
	words := (maxLen + 7) / 8
	multComplexity := words * words

	expHead := sliceOrZero(input[96:], bLen, minU64(eLen, 32))
	adjExpLen := adjustedExpLen(eLen, expHead)

	gas := multComplexity * maxU64(adjExpLen, 1) / 3
	if gas < 200 {
		gas = 200
	}
	return gas
}

func (c *modExpPrecompile) Run(input []byte) ([]byte, error) {
	input = rightPad(input, 96)
	baseLen := new(big.Int).SetBytes(input[0:32])
	expLen := new(big.Int).SetBytes(input[32:64])
	modLen := new(big.Int).SetBytes(input[64:96])

	if !baseLen.IsUint64() || !expLen.IsUint64() || !modLen.IsUint64() {
		return nil, errors.New("modexp: operand length overflow")
	}
	bLen, eLen, mLen := baseLen.Uint64(), expLen.Uint64(), modLen.Uint64()

	data := input[96:]
	base := new(big.Int).SetBytes(sliceOrZero(data, 0, bLen))
	exp := new(big.Int).SetBytes(sliceOrZero(data, bLen, eLen))
	mod := new(big.Int).SetBytes(sliceOrZero(data, bLen+eLen, mLen))

	if mod.Sign() == 0 {
		return make([]byte, mLen), nil
	}
	result := new(big.Int).Exp(base, exp, mod)
	out := result.Bytes()
	if uint64(len(out)) == mLen {
		return out, nil
	}
	padded := make([]byte, mLen)
	copy(padded[mLen-uint64(len(out)):], out)
	return padded, nil
}

func adjustedExpLen(expLen uint64, expHead []byte) uint64 {
	bitLen := new(big.Int).SetBytes(expHead).BitLen()
	var adj uint64
	if bitLen > 0 {
		adj = uint64(bitLen - 1)
	}
	if expLen > 32 {
		adj += 8 * (expLen - 32)
	}
	return adj
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// --- BN256ADD, address 0x06 (EIP-196) ---

type bn256AddPrecompile struct{ gas uint64 }

func (c *bn256AddPrecompile) RequiredGas(input []byte) uint64 { return c.gas }

func (c *bn256AddPrecompile) Run(input []byte) ([]byte, error) {
	input = rightPad(input, 128)
	p1, err := decodeG1(input[0:64])
	if err != nil {
		return nil, err
	}
	p2, err := decodeG1(input[64:128])
	if err != nil {
		return nil, err
	}
	var j1, j2, sum bn254.G1Jac
	j1.FromAffine(&p1)
	j2.FromAffine(&p2)
	sum.Set(&j1).AddAssign(&j2)
	var res bn254.G1Affine
	res.FromJacobian(&sum)
	return encodeG1(&res), nil
}

// --- BN256SCALARMUL, address 0x07 (EIP-196) ---

type bn256ScalarMulPrecompile struct{ gas uint64 }

func (c *bn256ScalarMulPrecompile) RequiredGas(input []byte) uint64 { return c.gas }

func (c *bn256ScalarMulPrecompile) Run(input []byte) ([]byte, error) {
	input = rightPad(input, 96)
	p, err := decodeG1(input[0:64])
	if err != nil {
		return nil, err
	}
	scalar := new(big.Int).SetBytes(input[64:96])
	var j, res bn254.G1Jac
	j.FromAffine(&p)
	res.ScalarMultiplication(&j, scalar)
	var out bn254.G1Affine
	out.FromJacobian(&res)
	return encodeG1(&out), nil
}

// --- BN256PAIRING, address 0x08 (EIP-197) ---

type bn256PairingPrecompile struct {
	baseGas     uint64
	perPointGas uint64
}

func (c *bn256PairingPrecompile) RequiredGas(input []byte) uint64 {
	return c.baseGas + c.perPointGas*uint64(len(input)/192)
}

func (c *bn256PairingPrecompile) Run(input []byte) ([]byte, error) {
	if len(input)%192 != 0 {
		return nil, errors.New("bn256 pairing: invalid input length")
	}
	out := make([]byte, 32)
	if len(input) == 0 {
		out[31] = 1
		return out, nil
	}

	k := len(input) / 192
	g1s := make([]bn254.G1Affine, 0, k)
	g2s := make([]bn254.G2Affine, 0, k)
	for i := 0; i < k; i++ {
		chunk := input[i*192 : (i+1)*192]
		p, err := decodeG1(chunk[0:64])
		if err != nil {
			return nil, err
		}
		q, err := decodeG2(chunk[64:192])
		if err != nil {
			return nil, err
		}
		if (p.X.IsZero() && p.Y.IsZero()) || (q.X.IsZero() && q.Y.IsZero()) {
			continue
		}
		if !q.IsInSubGroup() {
			return nil, errors.New("bn256 pairing: g2 point not in subgroup")
		}
		g1s = append(g1s, p)
		g2s = append(g2s, q)
	}

	ok := true
	if len(g1s) > 0 {
		var err error
		ok, err = bn254.PairingCheck(g1s, g2s)
		if err != nil {
			return nil, err
		}
	}
	if ok {
		out[31] = 1
	}
	return out, nil
}

func decodeG1(buf []byte) (bn254.G1Affine, error) {
	var p bn254.G1Affine
	p.X.SetBytes(buf[0:32])
	p.Y.SetBytes(buf[32:64])
	if p.X.IsZero() && p.Y.IsZero() {
		return p, nil
	}
	if !p.IsOnCurve() {
		return p, errors.New("bn256: invalid point not on curve")
	}
	return p, nil
}

func encodeG1(p *bn254.G1Affine) []byte {
	out := make([]byte, 64)
	xb := p.X.Bytes()
	yb := p.Y.Bytes()
	copy(out[0:32], xb[:])
	copy(out[32:64], yb[:])
	return out
}

// decodeG2 parses a 128-byte G2 point: x imaginary, x real, y imaginary, y
// real, each 32 bytes big-endian, matching go-ethereum's bn256 twist point
// encoding.
func decodeG2(buf []byte) (bn254.G2Affine, error) {
	var p bn254.G2Affine
	p.X.A1.SetBytes(buf[0:32])
	p.X.A0.SetBytes(buf[32:64])
	p.Y.A1.SetBytes(buf[64:96])
	p.Y.A0.SetBytes(buf[96:128])
	if p.X.IsZero() && p.Y.IsZero() {
		return p, nil
	}
	if !p.IsOnCurve() {
		return p, errors.New("bn256: invalid twist point not on curve")
	}
	return p, nil
}

// --- BLAKE2F, address 0x09 (EIP-152) ---

type blake2FPrecompile struct{}

func (c *blake2FPrecompile) RequiredGas(input []byte) uint64 {
	if len(input) != 213 {
		return 0
	}
	return params.Blake2FPerRoundGas * uint64(binary.BigEndian.Uint32(input[0:4]))
}

func (c *blake2FPrecompile) Run(input []byte) ([]byte, error) {
	if len(input) != 213 {
		return nil, errors.New("blake2f: invalid input length, expect 213 bytes")
	}
	if input[212] != 0 && input[212] != 1 {
		return nil, errors.New("blake2f: invalid final block indicator flag")
	}
	rounds := binary.BigEndian.Uint32(input[0:4])

	var h [8]uint64
	for i := 0; i < 8; i++ {
		h[i] = binary.LittleEndian.Uint64(input[4+i*8 : 12+i*8])
	}
	var m [16]uint64
	for i := 0; i < 16; i++ {
		m[i] = binary.LittleEndian.Uint64(input[68+i*8 : 76+i*8])
	}
	t0 := binary.LittleEndian.Uint64(input[196:204])
	t1 := binary.LittleEndian.Uint64(input[204:212])
	final := input[212] == 1

	blake2b.F(rounds, &h, m, [2]uint64{t0, t1}, final)

	out := make([]byte, 64)
	for i := 0; i < 8; i++ {
		binary.LittleEndian.PutUint64(out[i*8:(i+1)*8], h[i])
	}
	return out, nil
}

// --- POINT_EVALUATION, address 0x0a (EIP-4844) ---

const blobCommitmentVersionKZG = 0x01

type kzgPointEvaluationPrecompile struct{}

func (c *kzgPointEvaluationPrecompile) RequiredGas(input []byte) uint64 {
	return params.PointEvaluationGas
}

var (
	kzgCtx     *gokzg4844.Context
	kzgCtxOnce sync.Once
	kzgCtxErr  error
)

func kzgContext() (*gokzg4844.Context, error) {
	kzgCtxOnce.Do(func() {
		ts, err := gokzg4844.ParseTrustedSetupJSON(gokzg4844.TrustedSetupJSON)
		if err != nil {
			kzgCtxErr = err
			return
		}
		kzgCtx, kzgCtxErr = gokzg4844.NewContext4844(ts)
	})
	return kzgCtx, kzgCtxErr
}

// Run verifies a KZG opening proof: that committing to a blob polynomial
// with commitment yields y when evaluated at z, given proof. On success it
// returns the two constants the EVM spec requires as confirmation:
// FIELD_ELEMENTS_PER_BLOB and BLS_MODULUS.
func (c *kzgPointEvaluationPrecompile) Run(input []byte) ([]byte, error) {
	if len(input) != 192 {
		return nil, errors.New("kzg: invalid input length, expect 192 bytes")
	}
	versionedHash := input[0:32]
	z := input[32:64]
	y := input[64:96]
	commitment := input[96:144]
	proof := input[144:192]

	if versionedHash[0] != blobCommitmentVersionKZG {
		return nil, errors.New("kzg: invalid versioned hash version")
	}
	computed := sha256.Sum256(commitment)
	computed[0] = blobCommitmentVersionKZG
	if !bytesEqual(versionedHash, computed[:]) {
		return nil, errors.New("kzg: versioned hash does not match commitment")
	}

	ctx, err := kzgContext()
	if err != nil {
		return nil, err
	}
	var commitmentArr gokzg4844.KZGCommitment
	var proofArr gokzg4844.KZGProof
	var zArr, yArr gokzg4844.Scalar
	copy(commitmentArr[:], commitment)
	copy(proofArr[:], proof)
	copy(zArr[:], z)
	copy(yArr[:], y)

	if err := ctx.VerifyKZGProof(commitmentArr, zArr, yArr, proofArr); err != nil {
		return nil, errors.New("kzg: proof verification failed")
	}

	out := make([]byte, 64)
	fieldElementsPerBlob := big.NewInt(4096)
	blsModulus := mustBigFromHex("73eda753299d7d483339d80809a1d80553bda402fffe5bfeffffffff00000001")
	fb := fieldElementsPerBlob.Bytes()
	copy(out[32-len(fb):32], fb)
	mb := blsModulus.Bytes()
	copy(out[64-len(mb):64], mb)
	return out, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
