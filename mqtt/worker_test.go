package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"
)

// =============================================================================
// Connection-Loss Tests
// =============================================================================

func TestLoopFailureDegradesToDisconnected(t *testing.T) {
	engine := newFakeEngine()
	client := newTestClient(t, engine, Options{})
	connect(t, client)

	engine.injectLoopError(errors.New("connection reset by peer"))

	waitFor(t, time.Second, func() bool { return client.State() == StateDisconnected },
		"state to degrade after loop failure")

	// Reconnection is disabled by default: the worker must have stopped,
	// and further operations fail fast.
	if _, err := client.Publish(context.Background(), "t", nil, QoSAtMostOnce, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() after loss error = %v, want ErrNotConnected", err)
	}
	if engine.reconnects() != 0 {
		t.Errorf("reconnect attempts = %d, want 0 when disabled", engine.reconnects())
	}
}

func TestLoopFailureResolvesPendingWithConnectionLost(t *testing.T) {
	engine := newFakeEngine()
	engine.autoSubAck = false
	client := newTestClient(t, engine, Options{})
	connect(t, client)

	subDone := make(chan error, 1)
	go func() {
		_, err := client.Subscribe(context.Background(), "test/#", QoSAtLeastOnce)
		subDone <- err
	}()

	waitFor(t, time.Second, func() bool { return engine.pendingSubscribes() == 1 }, "subscribe issued")

	engine.injectLoopError(errors.New("broken pipe"))

	select {
	case err := <-subDone:
		if !errors.Is(err, ErrConnectionLost) {
			t.Errorf("Subscribe() error = %v, want ErrConnectionLost", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Subscribe() still pending after connection loss")
	}
}

// =============================================================================
// Reconnection Tests
// =============================================================================

func TestReconnectRestoresConnection(t *testing.T) {
	engine := newFakeEngine()
	client := newTestClient(t, engine, Options{
		Reconnect: ReconnectOptions{
			Enabled:      true,
			InitialDelay: 5 * time.Millisecond,
			MaxDelay:     20 * time.Millisecond,
			MaxAttempts:  5,
		},
	})
	connect(t, client)

	engine.injectLoopError(errors.New("connection reset by peer"))

	// The connected state alone cannot distinguish "failure not yet
	// observed" from "reconnected", so also require the reconnect call.
	waitFor(t, 2*time.Second,
		func() bool { return engine.reconnects() > 0 && client.State() == StateConnected },
		"reconnection to restore the connected state")

	if engine.reconnects() == 0 {
		t.Error("engine.Reconnect() never called")
	}
}

func TestReconnectGivesUpAfterMaxAttempts(t *testing.T) {
	engine := newFakeEngine()
	engine.reconnectErr = errors.New("connection refused")
	client := newTestClient(t, engine, Options{
		Reconnect: ReconnectOptions{
			Enabled:      true,
			InitialDelay: time.Millisecond,
			MaxDelay:     2 * time.Millisecond,
			MaxAttempts:  3,
		},
	})
	connect(t, client)

	engine.injectLoopError(errors.New("connection reset by peer"))

	waitFor(t, 2*time.Second, func() bool { return engine.reconnects() == 3 },
		"reconnect attempts to be exhausted")

	// Give the worker a moment to settle, then confirm it stopped trying.
	time.Sleep(20 * time.Millisecond)
	if got := engine.reconnects(); got != 3 {
		t.Errorf("reconnect attempts = %d, want exactly 3", got)
	}
	if got := client.State(); got != StateDisconnected {
		t.Errorf("State() = %v, want %v after giving up", got, StateDisconnected)
	}
}

// A fresh Connect after the worker gave up must start a new worker and
// succeed.
func TestConnectAfterWorkerStopped(t *testing.T) {
	engine := newFakeEngine()
	client := newTestClient(t, engine, Options{})
	connect(t, client)

	engine.injectLoopError(errors.New("connection reset by peer"))
	waitFor(t, time.Second, func() bool { return client.State() == StateDisconnected },
		"state to degrade after loop failure")

	// The fake engine recovers on Reconnect only; clear the failure the
	// way a new dial would.
	engine.mu.Lock()
	engine.failLoop = nil
	engine.mu.Unlock()

	connect(t, client)
	if got := client.State(); got != StateConnected {
		t.Errorf("State() = %v, want %v after re-connect", got, StateConnected)
	}
}
