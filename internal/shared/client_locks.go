package shared

// ClientLocks holds the two per-client locks.
//
// The exchange lock covers a whole chat exchange, reply delay included, and
// the session transitions (sign-in, sign-out, sweep) that must not interleave
// with one. The state lock covers a single read-modify-write of stored
// client state and is never held across a delay. Always take exchange before
// state.
type ClientLocks struct {
	exchange KeyedMutex
	state    KeyedMutex
}

// TryLockExchange claims the client's exchange slot without blocking.
func (l *ClientLocks) TryLockExchange(clientID string) (func(), bool) {
	return l.exchange.TryLock(clientID)
}

// LockState serializes one update of the client's stored state.
func (l *ClientLocks) LockState(clientID string) func() {
	return l.state.Lock(clientID)
}

// LockSession waits for any exchange in flight and then holds both locks.
func (l *ClientLocks) LockSession(clientID string) func() {
	unlockExchange := l.exchange.Lock(clientID)
	unlockState := l.state.Lock(clientID)
	return func() {
		unlockState()
		unlockExchange()
	}
}

// Forget drops both locks for a client that is gone for good.
func (l *ClientLocks) Forget(clientID string) {
	l.exchange.Forget(clientID)
	l.state.Forget(clientID)
}
