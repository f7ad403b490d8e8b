package mqtt

import (
	"context"
	"fmt"
)

// Subscribe establishes a subscription to topics matching filter and
// returns the broker-granted QoS level, which may be lower than requested
// but never higher.
//
// Filters can include MQTT wildcards:
//   - + (single-level): "sensor/+/temp" matches any middle segment
//   - # (multi-level): "test/#" matches everything under test
//
// Matching messages are delivered to every stream obtained from
// Subscriber. A refused subscription resolves with ErrRejected.
func (c *Client) Subscribe(ctx context.Context, filter string, qos byte) (byte, error) {
	if filter == "" {
		return 0, ErrInvalidTopic
	}
	if qos > maxQoS {
		return 0, ErrInvalidQoS
	}
	if c.isClosed() {
		return 0, ErrClosed
	}
	if s := c.State(); s != StateConnected && s != StateConnecting {
		return 0, ErrNotConnected
	}

	c.engineMu.Lock()
	w, mid, err := c.pending.register(opSubscribe, func() (MessageID, error) {
		return c.engine.Subscribe(filter, qos)
	})
	c.engineMu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEngine, err)
	}

	res, err := c.await(ctx, w, func(abandonErr error) bool {
		return c.pending.cancel(mid, abandonErr)
	})
	if err != nil {
		return res.granted, err
	}
	return res.granted, nil
}

// Unsubscribe removes a subscription and suspends until the broker
// acknowledges the removal. Messages already in flight may still be
// delivered.
func (c *Client) Unsubscribe(ctx context.Context, filter string) error {
	if filter == "" {
		return ErrInvalidTopic
	}
	if c.isClosed() {
		return ErrClosed
	}
	if s := c.State(); s != StateConnected && s != StateConnecting {
		return ErrNotConnected
	}

	c.engineMu.Lock()
	w, mid, err := c.pending.register(opUnsubscribe, func() (MessageID, error) {
		return c.engine.Unsubscribe(filter)
	})
	c.engineMu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEngine, err)
	}

	_, err = c.await(ctx, w, func(abandonErr error) bool {
		return c.pending.cancel(mid, abandonErr)
	})
	return err
}

// Subscriber returns a new, independent stream of messages matching the
// client's subscriptions. Any number of streams may be live at once; each
// receives every message. Streams created before a message arrives see it,
// later ones do not.
func (c *Client) Subscriber() *Stream {
	return c.fanout.stream()
}
