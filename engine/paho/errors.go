package paho

import (
	"errors"

	"github.com/eclipse/paho.mqtt.golang/packets"
)

var (
	// ErrNotConnected indicates an operation that needs a live session
	// was attempted before Connect.
	ErrNotConnected = errors.New("paho engine: not connected")

	// ErrDestroyed indicates use after Destroy.
	ErrDestroyed = errors.New("paho engine: destroyed")

	// ErrConnectionLost is what Loop returns after the transport died.
	ErrConnectionLost = errors.New("paho engine: connection lost")
)

// connackCode recovers the broker's CONNACK reason code from a paho
// connect error. Errors that never reached a CONNACK map to the
// library's network-error code.
func connackCode(err error) int {
	for code, cerr := range packets.ConnErrors {
		if cerr != nil && errors.Is(err, cerr) {
			return int(code)
		}
	}
	return int(packets.ErrNetworkError)
}
