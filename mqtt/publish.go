package mqtt

import (
	"context"
	"fmt"
)

// Publish sends a message to the specified topic and returns the
// engine-assigned message id.
//
// At QoS 0 no acknowledgement exists and the call resolves as soon as the
// engine accepts the message. At QoS 1/2 the call suspends until the
// matching acknowledgement callback, cancellation, or connection loss.
//
// Publishing while disconnected fails immediately with ErrNotConnected;
// while a connect is still in flight the engine accepts and queues the
// message.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, qos byte, retain bool) (MessageID, error) {
	if topic == "" {
		return 0, ErrInvalidTopic
	}
	if qos > maxQoS {
		return 0, ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return 0, fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrEngine, len(payload), maxPayloadSize)
	}
	if c.isClosed() {
		return 0, ErrClosed
	}
	if s := c.State(); s != StateConnected && s != StateConnecting {
		return 0, ErrNotConnected
	}

	if qos == QoSAtMostOnce {
		c.engineMu.Lock()
		mid, err := c.engine.Publish(topic, payload, qos, retain)
		c.engineMu.Unlock()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrEngine, err)
		}
		return mid, nil
	}

	c.engineMu.Lock()
	w, mid, err := c.pending.register(opPublish, func() (MessageID, error) {
		return c.engine.Publish(topic, payload, qos, retain)
	})
	c.engineMu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEngine, err)
	}

	res, err := c.await(ctx, w, func(abandonErr error) bool {
		return c.pending.cancel(mid, abandonErr)
	})
	if err != nil {
		return 0, err
	}
	return res.mid, nil
}
