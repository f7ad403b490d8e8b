package mqtt

import "errors"

// Domain-specific errors for bridge operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when publish/subscribe/unsubscribe is
	// attempted while the client is not connected (or connecting).
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectPending is returned by Connect while another connect
	// attempt is still outstanding. Concurrent connects are not queued.
	ErrConnectPending = errors.New("mqtt: connect already in progress")

	// ErrEngine wraps a nonzero result from the engine call itself, before
	// any callback could fire (invalid argument, out of memory, ...).
	ErrEngine = errors.New("mqtt: engine rejected request")

	// ErrTimeout is returned when the caller's deadline elapsed while the
	// operation was awaiting its acknowledgement.
	ErrTimeout = errors.New("mqtt: operation timed out")

	// ErrCancelled is returned when the caller abandoned the wait before
	// the acknowledgement arrived.
	ErrCancelled = errors.New("mqtt: operation cancelled")

	// ErrConnectionLost is the resolution of every operation that was
	// still outstanding when the connection failed.
	ErrConnectionLost = errors.New("mqtt: connection lost")

	// ErrRejected is returned when the broker's acknowledgement carries a
	// nonzero reason code (connection refused, subscription refused).
	ErrRejected = errors.New("mqtt: request refused by broker")

	// ErrClosed is reported by subscriber streams once the client has been
	// closed and the stream's queue is drained, and by operations invoked
	// on a closed client.
	ErrClosed = errors.New("mqtt: client closed")

	// ErrInvalidQoS is returned when a QoS level outside 0..2 is given.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when an empty topic or filter is given.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
