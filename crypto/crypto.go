// Package crypto wraps the hash and address-derivation primitives the
// interpreter needs: Keccak256 hashing, CREATE/CREATE2 address derivation,
// and ECDSA public key recovery for the ecrecover precompile, following
// go-ethereum's crypto package conventions.
package crypto

import (
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/vmcore/suspendvm/common"
)

// KeccakState wraps a Keccak256 hash, exposing both the standard hash.Hash
// interface and a Read method to avoid absorbing and squeezing it twice.
type KeccakState interface {
	Write(p []byte) (n int, err error)
	Read(p []byte) (n int, err error)
	Sum(b []byte) []byte
	Reset()
}

// NewKeccakState creates a new reusable Keccak256 hasher.
func NewKeccakState() KeccakState {
	return sha3.NewLegacyKeccak256().(KeccakState)
}

// Keccak256 returns the Keccak256 digest of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	h := NewKeccakState()
	for _, b := range data {
		h.Write(b)
	}
	out := make([]byte, 32)
	h.Read(out)
	return out
}

// Keccak256Hash returns the Keccak256 digest of the concatenation of data as
// a common.Hash.
func Keccak256Hash(data ...[]byte) (h common.Hash) {
	d := NewKeccakState()
	for _, b := range data {
		d.Write(b)
	}
	d.Read(h[:])
	return h
}

// rlpUint64 encodes x the way RLP would encode a uint64 for use inside
// CreateAddress: a single length-prefixed big-endian byte string with no
// leading zero byte.
func rlpUint64(x uint64) []byte {
	if x == 0 {
		return []byte{0x80}
	}
	var b [8]byte
	n := 8
	v := x
	for v > 0 {
		n--
		b[n] = byte(v)
		v >>= 8
	}
	body := b[n:]
	if len(body) == 1 && body[0] < 0x80 {
		return body
	}
	return append([]byte{0x80 + byte(len(body))}, body...)
}

// CreateAddress derives the address of a contract created via CREATE, i.e.
// keccak256(rlp([sender, nonce]))[12:].
func CreateAddress(sender common.Address, nonce uint64) common.Address {
	nb := rlpUint64(nonce)
	addrField := append([]byte{0x94}, sender.Bytes()...)
	payload := append(addrField, nb...)
	header := rlpListHeader(len(payload))
	data := append(header, payload...)
	return common.BytesToAddress(Keccak256(data)[12:])
}

func rlpListHeader(payloadLen int) []byte {
	if payloadLen < 56 {
		return []byte{0xc0 + byte(payloadLen)}
	}
	// Not required for the nonce range used in practice (20-byte address +
	// up to 9-byte nonce field never reaches the long-form list header),
	// but kept total for defensiveness against pathological nonces.
	var lenBytes []byte
	n := payloadLen
	for n > 0 {
		lenBytes = append([]byte{byte(n)}, lenBytes...)
		n >>= 8
	}
	return append([]byte{0xf7 + byte(len(lenBytes))}, lenBytes...)
}

// CreateAddress2 derives the address of a contract created via CREATE2, i.e.
// keccak256(0xff ++ sender ++ salt ++ keccak256(initCode))[12:].
func CreateAddress2(sender common.Address, salt [32]byte, initCodeHash []byte) common.Address {
	data := make([]byte, 0, 1+20+32+32)
	data = append(data, 0xff)
	data = append(data, sender.Bytes()...)
	data = append(data, salt[:]...)
	data = append(data, initCodeHash...)
	return common.BytesToAddress(Keccak256(data)[12:])
}

// Ecrecover recovers the uncompressed public key (65 bytes, 0x04 prefix)
// that produced sig over hash. sig is the 65-byte [R || S || V] encoding
// with V normalized to 0 or 1.
func Ecrecover(hash, sig []byte) ([]byte, error) {
	if len(sig) != 65 {
		return nil, errors.New("invalid signature length")
	}
	// decred's compact format puts the recovery header first: 27+recid,
	// followed by R || S, rather than Ethereum's R || S || V.
	var compact [65]byte
	compact[0] = sig[64] + 27
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact[:], hash)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}
