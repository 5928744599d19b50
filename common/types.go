// Package common holds the fixed-size byte types shared across the
// interpreter: 20-byte addresses and 32-byte hashes.
package common

import (
	"encoding/hex"
	"fmt"
)

const (
	AddressLength = 20
	HashLength    = 32
)

// Address represents the 20-byte address of an Ethereum account.
type Address [AddressLength]byte

// BytesToAddress returns Address with the value of b. If b is larger than
// len(h), b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// SetBytes sets the address to the value of b, left padded or cropped.
func (a *Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool { return a == Address{} }

// Cmp compares two addresses lexicographically.
func (a Address) Cmp(other Address) int {
	for i := range a {
		if a[i] != other[i] {
			if a[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Hash represents the 32-byte Keccak256 hash of arbitrary data, and is also
// used as the encoding of a 256-bit storage slot key or stored value.
type Hash [HashLength]byte

// BytesToHash returns Hash with the value of b, left padded or cropped.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

// EmptyCodeHash is the Keccak256 hash of the empty byte slice, i.e. the
// code hash of an account with no code.
var EmptyCodeHash = HexToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")

// EmptyRootHash is the known root hash of an empty trie, used to recognize
// accounts with empty storage.
var EmptyRootHash = HexToHash("0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

// HexToHash converts a hex string (with or without 0x prefix) into a Hash.
func HexToHash(s string) Hash {
	return BytesToHash(FromHex(s))
}

// HexToAddress converts a hex string into an Address.
func HexToAddress(s string) Address {
	return BytesToAddress(FromHex(s))
}

// FromHex decodes a 0x-prefixed (or bare) hex string, ignoring decode errors
// by returning whatever was successfully decoded up to the error.
func FromHex(s string) []byte {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}

// RightPadBytes right-pads data with zero bytes up to size. If data is
// already size bytes or longer, it is returned unmodified.
func RightPadBytes(data []byte, size int) []byte {
	if len(data) >= size {
		return data
	}
	out := make([]byte, size)
	copy(out, data)
	return out
}

// LeftPadBytes left-pads data with zero bytes up to size.
func LeftPadBytes(data []byte, size int) []byte {
	if len(data) >= size {
		return data
	}
	out := make([]byte, size)
	copy(out[size-len(data):], data)
	return out
}

// CopyBytes returns an independent copy of b.
func CopyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (a Address) Format(f fmt.State, c rune) {
	fmt.Fprintf(f, "%s", a.Hex())
}

func (h Hash) Format(f fmt.State, c rune) {
	fmt.Fprintf(f, "%s", h.Hex())
}
