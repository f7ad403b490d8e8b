package pthread

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// POSIX errno-style result codes, matching the values the engine's error
// paths compare against on Linux.
const (
	EPERM   = 1  // caller does not hold the lock
	ESRCH   = 3  // no such thread
	ENOMEM  = 12 // resources exhausted
	EBUSY   = 16 // object still in use
	EINVAL  = 22 // invalid or stale handle
	EDEADLK = 35 // operation would deadlock
)

// StartFunc is a thread entry point. The returned value is handed to
// whoever joins the thread.
type StartFunc func(arg any) any

// Thread is a handle to a joinable thread of execution.
//
// Handles obtained from Create may be joined exactly once. Handles
// obtained from Self on a goroutine this package did not create identify
// the caller for Equal comparisons but cannot be joined.
type Thread struct {
	id      uint64
	foreign bool

	mu     sync.Mutex
	joined bool
	ret    any
	done   chan struct{}
}

var (
	registryMu sync.Mutex
	registry   = make(map[uint64]*Thread)
)

// Create starts fn(arg) on a new OS-pinned thread and returns a joinable
// handle. It does not return until the new thread is running and
// registered, so a Self call inside fn always resolves to the returned
// handle.
func Create(fn StartFunc, arg any) (*Thread, int) {
	if fn == nil {
		return nil, EINVAL
	}
	t := &Thread{done: make(chan struct{})}
	started := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		id := goid()
		t.id = id
		registryMu.Lock()
		registry[id] = t
		registryMu.Unlock()
		close(started)

		ret := fn(arg)

		t.mu.Lock()
		t.ret = ret
		t.mu.Unlock()
		registryMu.Lock()
		delete(registry, id)
		registryMu.Unlock()
		close(t.done)
	}()
	<-started
	return t, 0
}

// Self returns a handle identifying the calling thread. Inside a thread
// started by Create it is the same handle Create returned. Elsewhere it
// is a comparison-only handle: Equal works, Join reports EINVAL.
func Self() *Thread {
	id := goid()
	registryMu.Lock()
	t, ok := registry[id]
	registryMu.Unlock()
	if ok {
		return t
	}
	return &Thread{id: id, foreign: true}
}

// Equal reports whether a and b identify the same thread.
func Equal(a, b *Thread) bool {
	return a != nil && b != nil && a.id == b.id
}

// Join blocks until t's entry function returns and yields its result.
//
// Joining yourself reports EDEADLK. Joining a thread that has already
// been joined, or a handle not produced by Create, reports EINVAL.
func Join(t *Thread) (any, int) {
	if t == nil || t.foreign {
		return nil, EINVAL
	}
	if t.id == goid() {
		return nil, EDEADLK
	}
	t.mu.Lock()
	if t.joined {
		t.mu.Unlock()
		return nil, EINVAL
	}
	t.joined = true
	t.mu.Unlock()

	<-t.done
	t.mu.Lock()
	ret := t.ret
	t.mu.Unlock()
	return ret, 0
}

// goid extracts the runtime's goroutine id from a stack header. Slow but
// only taken on Self and the Create/Join bookkeeping paths, which the
// engine hits a handful of times per connection.
func goid() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	// "goroutine 123 [running]:"
	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	if i := bytes.IndexByte(buf, ' '); i > 0 {
		buf = buf[:i]
	}
	id, err := strconv.ParseUint(string(buf), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
