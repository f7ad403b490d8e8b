package mqtt

import (
	"sync"
	"time"
)

// fakeEngine is a scripted Engine for bridge tests. By default it behaves
// like a well-wired broker: connects succeed, subscriptions are granted at
// the requested QoS, publishes are acknowledged, disconnects complete.
// Tests toggle individual behaviours off to exercise failure paths.
//
// Events queue on a channel and are delivered one per Loop call, on the
// calling goroutine, matching the synchronous-from-Loop contract.
type fakeEngine struct {
	mu sync.Mutex

	cb      Callbacks
	events  chan func(Callbacks)
	nextMID MessageID

	// Behaviour toggles.
	connackRC      *int  // nil: never acknowledge connects
	autoPubAck     bool  // acknowledge QoS 1/2 publishes
	autoSubAck     bool  // acknowledge subscribes
	autoUnsubAck   bool  // acknowledge unsubscribes
	autoDisconnect bool  // acknowledge disconnects
	echo           bool  // loop published messages back as arrivals
	grantCap       byte  // granted QoS ceiling
	subFail        bool  // refuse subscriptions (0x80)
	connectErr     error // engine-rejects Connect
	publishErr     error // engine-rejects Publish
	reconnectErr   error // engine-rejects Reconnect
	failLoop       error // persistent Loop failure until Reconnect

	// Observations.
	connectCalls   int
	reconnectCalls int
	subscribeCalls int
	disconnects    int
	destroyed      bool
	host           string
	port           int
}

func newFakeEngine() *fakeEngine {
	rc := 0
	return &fakeEngine{
		events:         make(chan func(Callbacks), 256),
		connackRC:      &rc,
		autoPubAck:     true,
		autoSubAck:     true,
		autoUnsubAck:   true,
		autoDisconnect: true,
		grantCap:       QoSExactlyOnce,
	}
}

// fire queues an arbitrary event for delivery on the next Loop.
func (e *fakeEngine) fire(ev func(Callbacks)) {
	e.events <- ev
}

// injectLoopError makes every following Loop call fail until Reconnect.
func (e *fakeEngine) injectLoopError(err error) {
	e.mu.Lock()
	e.failLoop = err
	e.mu.Unlock()
}

// setNextMID forces the id of the next request, simulating engine-side id
// reuse after completion.
func (e *fakeEngine) setNextMID(mid MessageID) {
	e.mu.Lock()
	e.nextMID = mid - 1
	e.mu.Unlock()
}

func (e *fakeEngine) SetCallbacks(cb Callbacks) {
	e.mu.Lock()
	e.cb = cb
	e.mu.Unlock()
}

func (e *fakeEngine) Connect(host string, port int, keepalive time.Duration, bindAddress string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.connectCalls++
	e.host, e.port = host, port
	if e.connectErr != nil {
		return e.connectErr
	}
	if e.connackRC != nil {
		rc := *e.connackRC
		e.events <- func(cb Callbacks) { cb.OnConnect(rc) }
	}
	return nil
}

func (e *fakeEngine) Reconnect() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reconnectCalls++
	if e.reconnectErr != nil {
		return e.reconnectErr
	}
	e.failLoop = nil
	if e.connackRC != nil {
		rc := *e.connackRC
		e.events <- func(cb Callbacks) { cb.OnConnect(rc) }
	}
	return nil
}

func (e *fakeEngine) Disconnect() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.disconnects++
	if e.autoDisconnect {
		e.events <- func(cb Callbacks) { cb.OnDisconnect(0) }
	}
	return nil
}

func (e *fakeEngine) Publish(topic string, payload []byte, qos byte, retain bool) (MessageID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.publishErr != nil {
		return 0, e.publishErr
	}
	e.nextMID++
	mid := e.nextMID
	if e.autoPubAck && qos > QoSAtMostOnce {
		e.events <- func(cb Callbacks) { cb.OnPublish(mid) }
	}
	if e.echo {
		msg := Message{Topic: topic, Payload: payload, QoS: qos, Retained: false, ID: mid}
		e.events <- func(cb Callbacks) { cb.OnMessage(msg) }
	}
	return mid, nil
}

func (e *fakeEngine) Subscribe(filter string, qos byte) (MessageID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subscribeCalls++
	e.nextMID++
	mid := e.nextMID
	granted := qos
	if granted > e.grantCap {
		granted = e.grantCap
	}
	if e.subFail {
		granted = SubscribeFailure
	}
	if e.autoSubAck {
		e.events <- func(cb Callbacks) { cb.OnSubscribe(mid, []byte{granted}) }
	}
	return mid, nil
}

func (e *fakeEngine) Unsubscribe(filter string) (MessageID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextMID++
	mid := e.nextMID
	if e.autoUnsubAck {
		e.events <- func(cb Callbacks) { cb.OnUnsubscribe(mid) }
	}
	return mid, nil
}

func (e *fakeEngine) Loop(timeout time.Duration) error {
	e.mu.Lock()
	err := e.failLoop
	cb := e.cb
	e.mu.Unlock()

	if err != nil {
		return err
	}

	select {
	case ev := <-e.events:
		ev(cb)
	case <-time.After(timeout):
	}
	return nil
}

func (e *fakeEngine) Destroy() {
	e.mu.Lock()
	e.destroyed = true
	e.mu.Unlock()
}

func (e *fakeEngine) pendingSubscribes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subscribeCalls
}

func (e *fakeEngine) reconnects() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reconnectCalls
}
