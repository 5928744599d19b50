package vm

import (
	"encoding/binary"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/holiman/uint256"

	"github.com/vmcore/suspendvm/common"
)

// SuspensionCache is the local, driver-populated view of external state
// that the interpreter consults instead of performing any I/O itself.
// Entries are addressed by (account, field) or (account, slot); a miss
// means "not yet supplied", never "does not exist" — the zero value for
// an account that genuinely has no code, no balance, or an unset slot is
// recorded explicitly via Set*, the same way a real fetch would record it.
//
// Backed by VictoriaMetrics/fastcache, the same low-GC-pressure byte cache
// go-ethereum's trie/triedb layer uses for its clean-state cache: a single
// process-local lookaside buffer, not a persistent store.
type SuspensionCache struct {
	balances *fastcache.Cache
	nonces   *fastcache.Cache
	codes    *fastcache.Cache
	storage  *fastcache.Cache
}

// NewSuspensionCache allocates a cache sized in bytes, split evenly across
// the four state categories.
func NewSuspensionCache(maxBytes int) *SuspensionCache {
	each := maxBytes / 4
	if each < 1024 {
		each = 1024
	}
	return &SuspensionCache{
		balances: fastcache.New(each),
		nonces:   fastcache.New(each),
		codes:    fastcache.New(each),
		storage:  fastcache.New(each),
	}
}

func storageKey(addr common.Address, slot common.Hash) []byte {
	k := make([]byte, 0, 52)
	k = append(k, addr.Bytes()...)
	k = append(k, slot.Bytes()...)
	return k
}

func (c *SuspensionCache) GetBalance(addr common.Address) (*uint256.Int, bool) {
	b, ok := c.balances.HasGet(nil, addr.Bytes())
	if !ok {
		return nil, false
	}
	return new(uint256.Int).SetBytes(b), true
}

func (c *SuspensionCache) SetBalance(addr common.Address, v *uint256.Int) {
	b := v.Bytes()
	c.balances.Set(addr.Bytes(), b)
}

func (c *SuspensionCache) GetNonce(addr common.Address) (uint64, bool) {
	b, ok := c.nonces.HasGet(nil, addr.Bytes())
	if !ok || len(b) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(b), true
}

func (c *SuspensionCache) SetNonce(addr common.Address, n uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	c.nonces.Set(addr.Bytes(), b[:])
}

func (c *SuspensionCache) GetCode(addr common.Address) ([]byte, bool) {
	b, ok := c.codes.HasGet(nil, addr.Bytes())
	if !ok {
		return nil, false
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, true
}

func (c *SuspensionCache) SetCode(addr common.Address, code []byte) {
	c.codes.Set(addr.Bytes(), code)
}

func (c *SuspensionCache) GetState(addr common.Address, slot common.Hash) (common.Hash, bool) {
	b, ok := c.storage.HasGet(nil, storageKey(addr, slot))
	if !ok {
		return common.Hash{}, false
	}
	var h common.Hash
	copy(h[32-len(b):], b)
	return h, true
}

func (c *SuspensionCache) SetState(addr common.Address, slot, value common.Hash) {
	c.storage.Set(storageKey(addr, slot), value.Bytes())
}

// Reset discards every cached balance, nonce, code and storage entry.
func (c *SuspensionCache) Reset() {
	c.balances.Reset()
	c.nonces.Reset()
	c.codes.Reset()
	c.storage.Reset()
}
