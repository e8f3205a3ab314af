package engine

import "sync"

// KeyedMutex hands out one mutex per int64 key, created on first use.
// Mutexes are never removed; keys are company and user ids, which are
// bounded by the data set.
type KeyedMutex struct {
	mu    sync.RWMutex
	locks map[int64]*sync.Mutex
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*sync.Mutex)}
}

func (k *KeyedMutex) get(key int64) *sync.Mutex {
	k.mu.RLock()
	m, ok := k.locks[key]
	k.mu.RUnlock()
	if ok {
		return m
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	// Double-check after acquiring write lock.
	if m, ok = k.locks[key]; ok {
		return m
	}
	m = &sync.Mutex{}
	k.locks[key] = m
	return m
}

// Lock acquires the mutex for key and returns its release function.
func (k *KeyedMutex) Lock(key int64) (unlock func()) {
	m := k.get(key)
	m.Lock()
	return m.Unlock
}

// Locks is the set of per-entity locks shared by every component that
// mutates market state. When both are needed, the company lock is always
// taken before the account lock.
type Locks struct {
	Companies *KeyedMutex
	Accounts  *KeyedMutex
}

// NewLocks creates empty company and account lock sets.
func NewLocks() *Locks {
	return &Locks{
		Companies: NewKeyedMutex(),
		Accounts:  NewKeyedMutex(),
	}
}
