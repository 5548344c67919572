package locks

import "sync"

// KeyedMutex serializes operations per key: payments on the same booking,
// or a settlement batch on an instrument. Locks are created on first use
// and never evicted; the key space here (bookings, instruments) is small.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *KeyedMutex) Lock(key string) {
	k.get(key).Lock()
}

func (k *KeyedMutex) Unlock(key string) {
	k.get(key).Unlock()
}

// TryLock reports whether the lock for key was acquired without blocking.
func (k *KeyedMutex) TryLock(key string) bool {
	return k.get(key).TryLock()
}

func (k *KeyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}
