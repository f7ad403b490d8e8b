package pthread

import (
	"sync"
	"sync/atomic"
)

// Mutex lifecycle states. The zero value is uninitialized, matching the
// POSIX rule that a mutex must be initialized before first use.
const (
	mutexUninit int32 = iota
	mutexIdle
	mutexLocked
	mutexDestroyed
)

// Mutex is a non-recursive lock with POSIX lifecycle semantics: it must
// be initialized before use, may not be destroyed while held, and may be
// reinitialized after Destroy.
type Mutex struct {
	mu    sync.Mutex
	state atomic.Int32
}

// Init prepares the mutex for use. Initializing a mutex that is already
// initialized reports EBUSY. A destroyed mutex may be initialized again.
func (m *Mutex) Init() int {
	if m.state.CompareAndSwap(mutexUninit, mutexIdle) ||
		m.state.CompareAndSwap(mutexDestroyed, mutexIdle) {
		return 0
	}
	return EBUSY
}

// Lock acquires the mutex, blocking until it is available. Locking an
// uninitialized or destroyed mutex reports EINVAL.
func (m *Mutex) Lock() int {
	if s := m.state.Load(); s != mutexIdle && s != mutexLocked {
		return EINVAL
	}
	m.mu.Lock()
	m.state.Store(mutexLocked)
	return 0
}

// Unlock releases the mutex. Unlocking a mutex that is not held reports
// EPERM.
func (m *Mutex) Unlock() int {
	if m.state.Load() != mutexLocked {
		return EPERM
	}
	m.state.Store(mutexIdle)
	m.mu.Unlock()
	return 0
}

// Destroy retires the mutex. Destroying a held mutex reports EBUSY,
// destroying one that was never initialized reports EINVAL.
func (m *Mutex) Destroy() int {
	if m.state.CompareAndSwap(mutexIdle, mutexDestroyed) {
		return 0
	}
	if m.state.Load() == mutexLocked {
		return EBUSY
	}
	return EINVAL
}
