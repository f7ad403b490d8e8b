package mqtt

import "time"

// MessageID identifies an in-flight request on the engine side. The engine
// assigns ids to publish/subscribe/unsubscribe requests and repeats them in
// the matching acknowledgement callback. Ids are unique only while the
// request is outstanding; the engine may reuse them afterwards.
type MessageID int

// Engine is the contract the bridge requires from the underlying MQTT
// engine. The engine is synchronous and callback-driven: its operations
// enqueue work, and progress (including every callback) happens inside
// Loop. Implementations live in engine/mosquitto (cgo libmosquitto) and
// engine/paho (pure Go).
//
// Implementations must be safe for the bridge's calling pattern: exactly
// one goroutine invokes a mutating operation at a time (the Client holds an
// exclusion lock around every call), and callbacks fire synchronously on
// whichever goroutine called Loop.
type Engine interface {
	// Connect starts an asynchronous connection attempt. The result is
	// reported via Callbacks.OnConnect once Loop has driven the handshake.
	// bindAddress optionally pins the outgoing interface; empty means any.
	Connect(host string, port int, keepalive time.Duration, bindAddress string) error

	// Reconnect re-dials using the parameters of the previous Connect.
	Reconnect() error

	// Disconnect requests a clean disconnect. Completion is reported via
	// Callbacks.OnDisconnect.
	Disconnect() error

	// Publish enqueues a message and returns the engine-assigned id.
	// For QoS 1/2 the id is echoed in Callbacks.OnPublish when the broker
	// acknowledges delivery.
	Publish(topic string, payload []byte, qos byte, retain bool) (MessageID, error)

	// Subscribe enqueues a subscription request for a topic filter and
	// returns the engine-assigned id, echoed in Callbacks.OnSubscribe.
	Subscribe(filter string, qos byte) (MessageID, error)

	// Unsubscribe enqueues removal of a subscription, echoed in
	// Callbacks.OnUnsubscribe.
	Unsubscribe(filter string) (MessageID, error)

	// Loop performs one bounded iteration of network I/O, invoking zero or
	// more callbacks synchronously before returning. A non-nil error means
	// the connection is unusable (socket error, broker gone).
	Loop(timeout time.Duration) error

	// SetCallbacks registers the event sink. Must be called before Connect
	// and must not be called from within a callback.
	SetCallbacks(cb Callbacks)

	// Destroy releases the engine instance. No other method may be called
	// afterwards.
	Destroy()
}

// Callbacks is the event sink an Engine delivers into. All methods are
// invoked synchronously from inside Engine.Loop, on the goroutine that
// called it; they must not block and must not call back into the Engine.
type Callbacks interface {
	// OnConnect reports the broker's CONNACK reason code; 0 is success.
	OnConnect(rc int)

	// OnDisconnect reports that the connection ended. rc 0 means the
	// disconnect was requested by the client; nonzero means it was
	// unexpected.
	OnDisconnect(rc int)

	// OnPublish acknowledges the publish with the given id.
	OnPublish(mid MessageID)

	// OnSubscribe acknowledges a subscription. granted holds the broker's
	// granted QoS per requested filter; 0x80 marks a refused filter.
	OnSubscribe(mid MessageID, granted []byte)

	// OnUnsubscribe acknowledges an unsubscribe request.
	OnUnsubscribe(mid MessageID)

	// OnMessage delivers an application message that matched one of the
	// client's subscriptions.
	OnMessage(msg Message)
}
