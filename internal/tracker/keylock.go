package tracker

import (
	"sync"

	"premiere/internal/alerts"
)

// KeyLocks serializes work on the same (user, title) key within a process.
type KeyLocks struct {
	mu    sync.Mutex
	locks map[alerts.Key]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyLocks returns an empty lock set.
func NewKeyLocks() *KeyLocks {
	return &KeyLocks{locks: make(map[alerts.Key]*keyLock)}
}

// Lock blocks until key is free and returns its release function.
func (k *KeyLocks) Lock(key alerts.Key) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyLock{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Len reports how many keys are currently held or awaited.
func (k *KeyLocks) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
