package mqtt

import "sync"

// opKind identifies which facade operation a waiter belongs to.
type opKind int

const (
	opConnect opKind = iota
	opDisconnect
	opPublish
	opSubscribe
	opUnsubscribe
)

// result carries the resolution of a pending operation.
type result struct {
	// mid echoes the request id for publish acknowledgements.
	mid MessageID

	// rc is the reason code for connect/disconnect acknowledgements.
	rc int

	// granted is the broker-granted QoS for subscribe acknowledgements.
	granted byte

	// err is non-nil for cancellation, timeout and connection loss.
	err error
}

// waiter is the single-use resolution slot for one outstanding request.
// It is resolved exactly once, by the matching acknowledgement callback or
// by a cancellation path, whichever comes first; later resolutions are
// ignored.
type waiter struct {
	kind opKind
	done chan struct{}
	res  result
	once sync.Once
}

func newWaiter(kind opKind) *waiter {
	return &waiter{kind: kind, done: make(chan struct{})}
}

// resolve completes the waiter. Safe to call multiple times; only the
// first call wins.
func (w *waiter) resolve(res result) {
	w.once.Do(func() {
		w.res = res
		close(w.done)
	})
}

// pending correlates outstanding request ids with their waiters. Publish,
// subscribe and unsubscribe requests are keyed by the engine-assigned
// message id; connect and disconnect have no id and occupy dedicated slots
// (at most one of each may be outstanding).
//
// The table has its own lock and is safe for concurrent registration and
// resolution without any caller-side locking.
type pending struct {
	mu         sync.Mutex
	byID       map[MessageID]*waiter
	connect    *waiter
	disconnect *waiter
}

func newPending() *pending {
	return &pending{byID: make(map[MessageID]*waiter)}
}

// register issues an engine request and records its waiter in one step.
// The table lock is held across the issue call so the acknowledgement,
// which may fire on the worker as soon as the request is on the wire, can
// never observe the table without the entry ("win the race" against our
// own callback). issue runs with the lock held and must not touch the
// table.
func (p *pending) register(kind opKind, issue func() (MessageID, error)) (*waiter, MessageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mid, err := issue()
	if err != nil {
		return nil, 0, err
	}

	w := newWaiter(kind)
	p.byID[mid] = w
	return w, mid, nil
}

// registerConnect records the unique connect (or disconnect) waiter.
// Returns false if one is already outstanding.
func (p *pending) registerConnect(kind opKind) (*waiter, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w := newWaiter(kind)
	switch kind {
	case opDisconnect:
		if p.disconnect != nil {
			return nil, false
		}
		p.disconnect = w
	default:
		if p.connect != nil {
			return nil, false
		}
		p.connect = w
	}
	return w, true
}

// resolve completes and removes the waiter registered under mid. An
// unknown id is a no-op: the entry was cancelled, or the engine delivered
// a duplicate acknowledgement. Removal happens before resolution so a
// reused id can never match a stale entry.
func (p *pending) resolve(mid MessageID, res result) {
	p.mu.Lock()
	w, ok := p.byID[mid]
	if ok {
		delete(p.byID, mid)
	}
	p.mu.Unlock()

	if ok {
		w.resolve(res)
	}
}

// resolveConnect completes the outstanding connect waiter, if any.
func (p *pending) resolveConnect(res result) {
	p.mu.Lock()
	w := p.connect
	p.connect = nil
	p.mu.Unlock()

	if w != nil {
		w.resolve(res)
	}
}

// resolveDisconnect completes the outstanding disconnect waiter, if any.
func (p *pending) resolveDisconnect(res result) {
	p.mu.Lock()
	w := p.disconnect
	p.disconnect = nil
	p.mu.Unlock()

	if w != nil {
		w.resolve(res)
	}
}

// cancel removes the entry for mid and resolves it with err. Reports
// whether the entry was still present; false means the acknowledgement
// won the race and the waiter already holds the real result.
func (p *pending) cancel(mid MessageID, err error) bool {
	p.mu.Lock()
	w, ok := p.byID[mid]
	if ok {
		delete(p.byID, mid)
	}
	p.mu.Unlock()

	if ok {
		w.resolve(result{err: err})
	}
	return ok
}

// cancelConnect removes and resolves the connect waiter with err.
func (p *pending) cancelConnect(err error) bool {
	p.mu.Lock()
	w := p.connect
	p.connect = nil
	p.mu.Unlock()

	if w != nil {
		w.resolve(result{err: err})
		return true
	}
	return false
}

// cancelDisconnect removes and resolves the disconnect waiter with err.
func (p *pending) cancelDisconnect(err error) bool {
	p.mu.Lock()
	w := p.disconnect
	p.disconnect = nil
	p.mu.Unlock()

	if w != nil {
		w.resolve(result{err: err})
		return true
	}
	return false
}

// failAll resolves every outstanding operation with err and clears the
// table. Called on connection loss and on teardown.
func (p *pending) failAll(err error) {
	p.mu.Lock()
	waiters := make([]*waiter, 0, len(p.byID)+2)
	for _, w := range p.byID {
		waiters = append(waiters, w)
	}
	p.byID = make(map[MessageID]*waiter)
	if p.connect != nil {
		waiters = append(waiters, p.connect)
		p.connect = nil
	}
	if p.disconnect != nil {
		waiters = append(waiters, p.disconnect)
		p.disconnect = nil
	}
	p.mu.Unlock()

	for _, w := range waiters {
		w.resolve(result{err: err})
	}
}
