package mqtt

import "time"

// startWorker launches the network worker if it is not already running.
// Called from Connect; the worker exits on Close, on deliberate
// disconnect, or when a connection failure is not (or no longer) being
// retried.
func (c *Client) startWorker() {
	c.workerMu.Lock()
	defer c.workerMu.Unlock()

	if c.workerRunning {
		return
	}
	c.workerRunning = true
	c.stop = make(chan struct{})
	c.workerDone = make(chan struct{})
	go c.worker(c.stop, c.workerDone)
}

// stopWorker signals the worker to stop and joins it. Only the teardown
// path calls this.
func (c *Client) stopWorker() {
	c.workerMu.Lock()
	if !c.workerRunning {
		c.workerMu.Unlock()
		return
	}
	stop, done := c.stop, c.workerDone
	c.workerMu.Unlock()

	close(stop)
	<-done
}

// worker drives the engine's blocking network loop. Each iteration may
// invoke callbacks synchronously; the dispatcher resolves waiters and
// feeds the fan-out without ever blocking this goroutine.
func (c *Client) worker(stop, done chan struct{}) {
	defer func() {
		c.workerMu.Lock()
		c.workerRunning = false
		c.workerMu.Unlock()
		close(done)
	}()

	for {
		select {
		case <-stop:
			return
		default:
		}

		// Callbacks delivered inside Loop may move the state (a lost
		// connection dispatches its disconnect before Loop returns), so
		// the pre-Loop state decides how to read a loop error.
		preState := c.State()
		c.engineMu.Lock()
		err := c.engine.Loop(c.opts.LoopTimeout)
		c.engineMu.Unlock()
		if err == nil {
			continue
		}

		if preState != StateConnected {
			// Requested disconnect or failed handshake; the waiter has
			// already been resolved. A later Connect starts a fresh
			// worker.
			return
		}

		if c.opts.Logger != nil {
			c.opts.Logger.Warn("network loop failed", "error", err)
		}
		c.setState(StateDisconnected)
		c.pending.failAll(ErrConnectionLost)

		if !c.opts.Reconnect.Enabled {
			return
		}
		if !c.reattach(stop) {
			return
		}
	}
}

// reattach runs the bounded-retry reconnect sequence: exponential delay
// from InitialDelay up to MaxDelay, giving up after MaxAttempts (0 retries
// forever). Each accepted reconnect drives the handshake itself, so the
// worker's main loop resumes only once the connection is restored.
func (c *Client) reattach(stop chan struct{}) bool {
	delay := c.opts.Reconnect.InitialDelay

	for attempt := 1; ; attempt++ {
		select {
		case <-stop:
			return false
		case <-time.After(delay):
		}

		c.setState(StateConnecting)
		c.engineMu.Lock()
		err := c.engine.Reconnect()
		c.engineMu.Unlock()
		if err == nil {
			switch c.driveHandshake(stop) {
			case handshakeUp:
				return true
			case handshakeStopped:
				return false
			}
			// handshakeFailed falls through as a failed attempt.
		}

		if c.opts.Logger != nil {
			c.opts.Logger.Warn("reconnect attempt failed",
				"attempt", attempt,
				"delay", delay,
				"error", err,
			)
		}
		c.setState(StateDisconnected)

		if max := c.opts.Reconnect.MaxAttempts; max > 0 && attempt >= max {
			if c.opts.Logger != nil {
				c.opts.Logger.Error("giving up on reconnection", "attempts", attempt)
			}
			return false
		}

		delay *= 2
		if delay > c.opts.Reconnect.MaxDelay {
			delay = c.opts.Reconnect.MaxDelay
		}
	}
}

type handshakeOutcome int

const (
	handshakeUp handshakeOutcome = iota
	handshakeFailed
	handshakeStopped
)

// driveHandshake loops the engine until the pending reconnect handshake
// settles: the connect callback moves the state out of Connecting, the
// loop reports an error, or the connect timeout elapses.
func (c *Client) driveHandshake(stop chan struct{}) handshakeOutcome {
	deadline := time.Now().Add(c.opts.ConnectTimeout)

	for c.State() == StateConnecting {
		select {
		case <-stop:
			return handshakeStopped
		default:
		}
		if time.Now().After(deadline) {
			return handshakeFailed
		}

		c.engineMu.Lock()
		err := c.engine.Loop(c.opts.LoopTimeout)
		c.engineMu.Unlock()
		if err != nil {
			return handshakeFailed
		}
	}

	if c.State() == StateConnected {
		return handshakeUp
	}
	return handshakeFailed
}
