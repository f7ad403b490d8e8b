package mqtt

import (
	"context"
	"fmt"
	"time"
)

// Connect establishes a connection to the broker at host:port.
//
// The call suspends until the broker acknowledges the CONNECT (returning
// its reason code, 0 on success), the attempt fails, or the context ends.
// If ctx carries no deadline, Options.ConnectTimeout applies. On timeout a
// best-effort engine-level abort is issued and the client returns to the
// disconnected state.
//
// keepalive is the interval at which keepalive probes are sent; the engine
// may impose a minimum (libmosquitto requires at least 5s). bindAddress
// optionally pins the outgoing interface; empty means any.
//
// At most one connect attempt may be outstanding: a second call while one
// is pending fails fast with ErrConnectPending rather than queuing.
func (c *Client) Connect(ctx context.Context, host string, port int, keepalive time.Duration, bindAddress string) (int, error) {
	if c.isClosed() {
		return 0, ErrClosed
	}
	if host == "" {
		return 0, fmt.Errorf("%w: host cannot be empty", ErrEngine)
	}

	if !c.transition(StateConnecting, StateDisconnected) {
		return 0, fmt.Errorf("%w: client is %s", ErrConnectPending, c.State())
	}

	// The waiter must exist before the engine request is on the wire; the
	// CONNACK can fire on the worker as soon as Connect returns.
	w, ok := c.pending.registerConnect(opConnect)
	if !ok {
		c.transition(StateDisconnected, StateConnecting)
		return 0, ErrConnectPending
	}

	c.engineMu.Lock()
	err := c.engine.Connect(host, port, keepalive, bindAddress)
	c.engineMu.Unlock()
	if err != nil {
		c.pending.cancelConnect(err)
		c.transition(StateDisconnected, StateConnecting)
		return 0, fmt.Errorf("%w: %w", ErrEngine, err)
	}

	c.startWorker()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.ConnectTimeout)
		defer cancel()
	}

	res, err := c.await(ctx, w, func(abandonErr error) bool {
		if !c.pending.cancelConnect(abandonErr) {
			return false
		}
		// Abort the in-flight attempt as far as the engine allows.
		c.engineMu.Lock()
		_ = c.engine.Disconnect()
		c.engineMu.Unlock()
		c.transition(StateDisconnected, StateConnecting)
		return true
	})
	if err != nil {
		return 0, err
	}

	if res.rc != 0 {
		return res.rc, fmt.Errorf("%w: connect reason code %d", ErrRejected, res.rc)
	}
	return 0, nil
}

// Disconnect requests a clean disconnect and suspends until the engine
// reports the connection closed (returning the disconnect reason code) or
// the context ends. Operations still awaiting acknowledgement when the
// disconnect completes resolve with ErrConnectionLost.
func (c *Client) Disconnect(ctx context.Context) (int, error) {
	if c.isClosed() {
		return 0, ErrClosed
	}
	return c.disconnectLocked(ctx)
}

// disconnectLocked is Disconnect without the closed-client check, shared
// with the teardown path.
func (c *Client) disconnectLocked(ctx context.Context) (int, error) {
	if !c.transition(StateDisconnecting, StateConnected) {
		return 0, ErrNotConnected
	}

	w, ok := c.pending.registerConnect(opDisconnect)
	if !ok {
		return 0, ErrConnectPending
	}

	c.engineMu.Lock()
	err := c.engine.Disconnect()
	c.engineMu.Unlock()
	if err != nil {
		c.pending.cancelDisconnect(err)
		c.transition(StateConnected, StateDisconnecting)
		return 0, fmt.Errorf("%w: %w", ErrEngine, err)
	}

	res, err := c.await(ctx, w, func(abandonErr error) bool {
		return c.pending.cancelDisconnect(abandonErr)
	})
	if err != nil {
		return 0, err
	}
	return res.rc, nil
}
