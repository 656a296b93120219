//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import "sync"

// KeyedMutex hands out one mutex per key so work for different clients can
// proceed concurrently while work for the same client is serialized.
type KeyedMutex struct {
	locks sync.Map // key -> *sync.Mutex
}

func (k *KeyedMutex) get(key string) *sync.Mutex {
	lock, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Lock blocks until the key's mutex is held and returns its unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	mu := k.get(key)
	mu.Lock()
	return mu.Unlock
}

// TryLock acquires the key's mutex without blocking.
func (k *KeyedMutex) TryLock(key string) (func(), bool) {
	mu := k.get(key)
	if !mu.TryLock() {
		return nil, false
	}
	return mu.Unlock, true
}

// Forget drops the mutex for a key. Call it only once the key is gone for good.
func (k *KeyedMutex) Forget(key string) {
	k.locks.Delete(key)
}
