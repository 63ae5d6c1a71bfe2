package keylock

import "sync"

// KeyLock serializes work per string key. The voucher issuer locks on the zone
// key so balance checks never race concurrent issuance, and the redemption
// engine locks on the voucher key so compare-and-debit is linearizable.
//
// Locks are never removed from the table; the key space here is bounded by the
// number of live aggregates.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an empty lock table
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use
func (k *KeyLock) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the mutex for key
func (k *KeyLock) Unlock(key string) {
	k.get(key).Unlock()
}

func (k *KeyLock) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}
