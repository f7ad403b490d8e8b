package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ConnState is the client's connection state.
type ConnState int32

// Connection states. Transitions happen only in response to facade calls
// or callback-driven events; see the state machine in Connect/Disconnect
// and the dispatcher.
const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateDisconnecting
)

// String returns a human-readable state name.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Client exposes a callback-driven Engine through awaitable operations.
//
// One Client owns one engine instance, one network worker, one pending
// operation table and one subscriber fan-out. The Client must not be
// copied; share the pointer.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Each blocking call suspends only its caller, never the worker.
type Client struct {
	engine Engine
	opts   Options

	// engineMu is the single serialisation point for every engine call.
	// The engine is not reentrant-safe across its own operations. Held by
	// the worker for the duration of each Loop iteration; callbacks fire
	// inside Loop and must never re-acquire it.
	engineMu sync.Mutex

	stateMu sync.RWMutex
	state   ConnState

	pending *pending
	fanout  *fanout

	// workerMu guards the worker lifecycle fields below.
	workerMu      sync.Mutex
	workerRunning bool
	stop          chan struct{}
	workerDone    chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

// NewClient wraps engine in a bridge configured by opts. The client takes
// exclusive ownership of the engine; no other code may invoke engine
// operations afterwards. Close releases it.
func NewClient(engine Engine, opts Options) *Client {
	c := &Client{
		engine:  engine,
		opts:    opts.withDefaults(),
		pending: newPending(),
		fanout:  newFanout(),
		closed:  make(chan struct{}),
	}
	engine.SetCallbacks(&dispatcher{c: c})
	return c
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// setState unconditionally moves to next.
func (c *Client) setState(next ConnState) {
	c.stateMu.Lock()
	c.state = next
	c.stateMu.Unlock()
}

// transition moves from one of the allowed states to next, reporting
// whether the move happened.
func (c *Client) transition(next ConnState, from ...ConnState) bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	for _, s := range from {
		if c.state == s {
			c.state = next
			return true
		}
	}
	return false
}

// isClosed reports whether Close has begun.
func (c *Client) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// await suspends the caller until w resolves or ctx ends. cancel is
// invoked on the caller-side abandonment path to remove the pending entry;
// it reports whether the entry was still registered. If the resolution won
// the race against cancellation, the resolved result is returned instead.
func (c *Client) await(ctx context.Context, w *waiter, cancel func(error) bool) (result, error) {
	select {
	case <-w.done:
		return w.res, w.res.err
	case <-ctx.Done():
	}

	abandonErr := ErrCancelled
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		abandonErr = ErrTimeout
	}

	if !cancel(abandonErr) {
		// The acknowledgement resolved the waiter first; honour it.
		<-w.done
		return w.res, w.res.err
	}
	return result{err: abandonErr}, abandonErr
}

// Close tears the client down: stops and joins the worker, cancels every
// pending operation, closes all subscriber streams, then destroys the
// engine. Safe to call more than once. Exactly this order: anything else
// risks callbacks firing into already-released correlation state.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)

		// Best-effort clean disconnect while the worker can still pump
		// the acknowledgement.
		if c.State() == StateConnected {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			_, _ = c.disconnectLocked(ctx)
			cancel()
		}

		c.stopWorker()
		c.pending.failAll(ErrClosed)
		c.fanout.closeAll()
		c.setState(StateDisconnected)

		c.engineMu.Lock()
		c.engine.Destroy()
		c.engineMu.Unlock()
	})
	return nil
}

// dispatcher adapts engine callbacks onto the client's correlation table
// and fan-out. Every method runs on the worker goroutine, synchronously
// from inside Engine.Loop, while the worker holds engineMu; nothing here
// may call back into the engine or block.
type dispatcher struct {
	c *Client
}

func (d *dispatcher) OnConnect(rc int) {
	c := d.c
	if rc == 0 {
		c.transition(StateConnected, StateConnecting)
	} else {
		c.transition(StateDisconnected, StateConnecting)
	}
	c.pending.resolveConnect(result{rc: rc})
}

func (d *dispatcher) OnDisconnect(rc int) {
	c := d.c
	c.setState(StateDisconnected)
	c.pending.resolveDisconnect(result{rc: rc})

	// Whatever was still in flight will never be acknowledged now.
	c.pending.failAll(ErrConnectionLost)
}

func (d *dispatcher) OnPublish(mid MessageID) {
	d.c.pending.resolve(mid, result{mid: mid})
}

func (d *dispatcher) OnSubscribe(mid MessageID, granted []byte) {
	res := result{mid: mid}
	if len(granted) > 0 {
		res.granted = granted[0]
	}
	if res.granted == SubscribeFailure {
		res.err = fmt.Errorf("%w: subscription refused", ErrRejected)
	}
	d.c.pending.resolve(mid, res)
}

func (d *dispatcher) OnUnsubscribe(mid MessageID) {
	d.c.pending.resolve(mid, result{mid: mid})
}

func (d *dispatcher) OnMessage(msg Message) {
	d.c.fanout.publish(msg)
}
