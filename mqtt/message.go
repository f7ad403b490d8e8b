package mqtt

// QoS levels per the MQTT specification.
const (
	// QoSAtMostOnce is fire-and-forget: no acknowledgement exists.
	QoSAtMostOnce byte = 0

	// QoSAtLeastOnce guarantees delivery but may duplicate.
	QoSAtLeastOnce byte = 1

	// QoSExactlyOnce guarantees exactly-once delivery via a two-phase ack.
	QoSExactlyOnce byte = 2
)

// SubscribeFailure is the granted-QoS value a broker returns for a refused
// subscription.
const SubscribeFailure byte = 0x80

// Message is a received application message matching one or more of the
// client's subscription filters. Messages are immutable once constructed;
// every live subscriber stream receives its own copy of the struct (the
// payload bytes are shared and must not be mutated by consumers).
type Message struct {
	// Topic is the full topic the message was published to, with any
	// subscription wildcards expanded.
	Topic string

	// Payload is the opaque message body.
	Payload []byte

	// QoS is the level the message was delivered at.
	QoS byte

	// Retained reports whether this is a retained message replayed by the
	// broker at subscribe time.
	Retained bool

	// ID is the engine-assigned message id, 0 for QoS 0 messages.
	ID MessageID
}
