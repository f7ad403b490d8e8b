package paho

import (
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-mosq/mqtt"
)

// rcConnectionLost is the reason code reported on an unexpected
// disconnect. Any nonzero value marks the loss as unrequested.
const rcConnectionLost = 7

// event is one queued callback invocation, delivered during Loop.
type event func(cb mqtt.Callbacks)

// Engine drives a paho client behind the synchronous engine contract.
type Engine struct {
	cfg Config

	cbMu sync.RWMutex
	cb   mqtt.Callbacks

	// mu guards the paho client, the saved dial parameters, the id
	// counter and lifecycle flags.
	mu        sync.Mutex
	client    pahomqtt.Client
	destroyed bool
	lastMID   mqtt.MessageID

	// qmu guards the event queue; ready wakes a parked Loop.
	qmu   sync.Mutex
	queue []event
	ready chan struct{}

	lostMu  sync.Mutex
	lostErr error
}

var _ mqtt.Engine = (*Engine)(nil)

// New creates an engine for the given session config. A missing client
// id is generated.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:   withClientID(cfg),
		ready: make(chan struct{}, 1),
	}
}

// SetCallbacks registers the event sink.
func (e *Engine) SetCallbacks(cb mqtt.Callbacks) {
	e.cbMu.Lock()
	e.cb = cb
	e.cbMu.Unlock()
}

// Connect starts an asynchronous connection attempt. The outcome is
// delivered as a connect event on a later Loop call.
func (e *Engine) Connect(host string, port int, keepalive time.Duration, bindAddress string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrDestroyed
	}

	opts := buildClientOptions(e.cfg, host, port, keepalive, bindAddress)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		e.enqueue(func(cb mqtt.Callbacks) { cb.OnConnect(0) })
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		e.setLost(fmt.Errorf("%w: %v", ErrConnectionLost, err))
		e.enqueue(func(cb mqtt.Callbacks) { cb.OnDisconnect(rcConnectionLost) })
	})

	e.clearLost()
	e.client = pahomqtt.NewClient(opts)
	e.watchConnect(e.client.Connect())
	return nil
}

// Reconnect re-dials using the client built by the previous Connect.
func (e *Engine) Reconnect() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrDestroyed
	}
	if e.client == nil {
		return ErrNotConnected
	}

	e.clearLost()
	e.watchConnect(e.client.Connect())
	return nil
}

// watchConnect turns a failed connect token into a connect event with
// the broker's refusal code. Success is reported by the paho on-connect
// handler instead.
func (e *Engine) watchConnect(token pahomqtt.Token) {
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			rc := connackCode(err)
			e.enqueue(func(cb mqtt.Callbacks) { cb.OnConnect(rc) })
		}
	}()
}

// Disconnect requests a clean disconnect; completion arrives as a
// disconnect event with reason 0.
func (e *Engine) Disconnect() error {
	e.mu.Lock()
	client := e.client
	destroyed := e.destroyed
	e.mu.Unlock()
	if destroyed {
		return ErrDestroyed
	}
	if client == nil {
		return ErrNotConnected
	}

	go func() {
		client.Disconnect(disconnectQuiesce)
		// The network loop has nothing left to drive; report that after
		// the disconnect event is delivered.
		e.setLost(ErrNotConnected)
		e.enqueue(func(cb mqtt.Callbacks) { cb.OnDisconnect(0) })
	}()
	return nil
}

// Publish enqueues a message. QoS 1/2 deliveries produce a publish event
// carrying the returned id once the broker acknowledges.
func (e *Engine) Publish(topic string, payload []byte, qos byte, retain bool) (mqtt.MessageID, error) {
	client, mid, err := e.nextOp()
	if err != nil {
		return 0, err
	}

	token := client.Publish(topic, qos, retain, payload)
	if qos == mqtt.QoSAtMostOnce {
		return mid, nil
	}
	go func() {
		token.Wait()
		if token.Error() != nil {
			// Loss is reported through the connection-lost path; the
			// waiter is failed there.
			return
		}
		e.enqueue(func(cb mqtt.Callbacks) { cb.OnPublish(mid) })
	}()
	return mid, nil
}

// Subscribe enqueues a subscription request. The granted QoS (or the
// refusal marker) arrives as a subscribe event with the returned id.
func (e *Engine) Subscribe(filter string, qos byte) (mqtt.MessageID, error) {
	client, mid, err := e.nextOp()
	if err != nil {
		return 0, err
	}

	token := client.Subscribe(filter, qos, func(_ pahomqtt.Client, m pahomqtt.Message) {
		msg := mqtt.Message{
			Topic:    m.Topic(),
			Payload:  m.Payload(),
			QoS:      m.Qos(),
			Retained: m.Retained(),
			ID:       mqtt.MessageID(m.MessageID()),
		}
		e.enqueue(func(cb mqtt.Callbacks) { cb.OnMessage(msg) })
	})
	go func() {
		token.Wait()
		granted := mqtt.SubscribeFailure
		if token.Error() == nil {
			if st, ok := token.(*pahomqtt.SubscribeToken); ok {
				granted = st.Result()[filter]
			}
		}
		e.enqueue(func(cb mqtt.Callbacks) { cb.OnSubscribe(mid, []byte{granted}) })
	}()
	return mid, nil
}

// Unsubscribe enqueues removal of a subscription.
func (e *Engine) Unsubscribe(filter string) (mqtt.MessageID, error) {
	client, mid, err := e.nextOp()
	if err != nil {
		return 0, err
	}

	token := client.Unsubscribe(filter)
	go func() {
		token.Wait()
		if token.Error() != nil {
			return
		}
		e.enqueue(func(cb mqtt.Callbacks) { cb.OnUnsubscribe(mid) })
	}()
	return mid, nil
}

// Loop waits up to timeout for queued events, delivers every queued
// event to the registered callbacks on the calling goroutine, then
// reports the sticky transport error if the connection has died.
func (e *Engine) Loop(timeout time.Duration) error {
	e.mu.Lock()
	destroyed := e.destroyed
	e.mu.Unlock()
	if destroyed {
		return ErrDestroyed
	}

	if !e.hasQueued() {
		timer := time.NewTimer(timeout)
		select {
		case <-e.ready:
		case <-timer.C:
		}
		timer.Stop()
	}

	for {
		batch := e.takeQueued()
		if len(batch) == 0 {
			break
		}
		e.cbMu.RLock()
		cb := e.cb
		e.cbMu.RUnlock()
		if cb == nil {
			continue
		}
		for _, fn := range batch {
			fn(cb)
		}
	}

	e.lostMu.Lock()
	err := e.lostErr
	e.lostMu.Unlock()
	return err
}

// Destroy tears the engine down. A live connection is dropped without
// ceremony.
func (e *Engine) Destroy() {
	e.mu.Lock()
	client := e.client
	e.client = nil
	e.destroyed = true
	e.mu.Unlock()

	if client != nil && client.IsConnectionOpen() {
		client.Disconnect(0)
	}
}

// nextOp validates that an operation can be issued and assigns its id.
func (e *Engine) nextOp() (pahomqtt.Client, mqtt.MessageID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return nil, 0, ErrDestroyed
	}
	if e.client == nil {
		return nil, 0, ErrNotConnected
	}
	e.lastMID++
	return e.client, e.lastMID, nil
}

func (e *Engine) enqueue(fn event) {
	e.qmu.Lock()
	e.queue = append(e.queue, fn)
	e.qmu.Unlock()
	select {
	case e.ready <- struct{}{}:
	default:
	}
}

func (e *Engine) hasQueued() bool {
	e.qmu.Lock()
	defer e.qmu.Unlock()
	return len(e.queue) > 0
}

func (e *Engine) takeQueued() []event {
	e.qmu.Lock()
	batch := e.queue
	e.queue = nil
	e.qmu.Unlock()
	return batch
}

// setLost records the sticky transport error Loop reports. The first
// cause wins until the next dial clears it.
func (e *Engine) setLost(err error) {
	e.lostMu.Lock()
	if e.lostErr == nil {
		e.lostErr = err
	}
	e.lostMu.Unlock()
}

func (e *Engine) clearLost() {
	e.lostMu.Lock()
	e.lostErr = nil
	e.lostMu.Unlock()
}
