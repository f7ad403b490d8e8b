package mqtt

import "time"

// Tuning constants.
const (
	// defaultLoopTimeout bounds a single engine loop iteration. Short
	// enough that stop and close requests are observed promptly.
	defaultLoopTimeout = 100 * time.Millisecond

	// defaultConnectTimeout applies to Connect when the caller's context
	// carries no deadline of its own.
	defaultConnectTimeout = 10 * time.Second

	// defaultReconnectInitialDelay is the first retry delay when
	// reconnection is enabled.
	defaultReconnectInitialDelay = 1 * time.Second

	// defaultReconnectMaxDelay caps the exponential retry delay.
	defaultReconnectMaxDelay = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// maxPayloadSize caps publish payloads at 1MB.
	maxPayloadSize = 1 << 20
)

// ReconnectOptions controls the worker's behaviour after the engine's loop
// iteration fails. Reconnection is off by default: the worker stops, and
// retrying is the caller's decision.
type ReconnectOptions struct {
	// Enabled turns on bounded-retry reconnection.
	Enabled bool

	// InitialDelay is the wait before the first retry. Doubles after each
	// failed attempt.
	InitialDelay time.Duration

	// MaxDelay caps the growing retry delay.
	MaxDelay time.Duration

	// MaxAttempts limits consecutive failed attempts before the worker
	// gives up. 0 means retry indefinitely.
	MaxAttempts int
}

// Logger is the minimal logging interface the bridge needs. Compatible
// with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures a Client. The zero value is usable: loop and connect
// timeouts fall back to defaults, reconnection is disabled and logging is
// off.
type Options struct {
	// LoopTimeout bounds one iteration of the engine's network loop.
	LoopTimeout time.Duration

	// ConnectTimeout bounds Connect when the caller's context has no
	// deadline.
	ConnectTimeout time.Duration

	// Reconnect configures automatic reconnection after connection loss.
	Reconnect ReconnectOptions

	// Logger receives worker-side warnings (loop failures, reconnect
	// attempts). Nil disables logging.
	Logger Logger
}

// withDefaults fills unset fields with default values.
func (o Options) withDefaults() Options {
	if o.LoopTimeout <= 0 {
		o.LoopTimeout = defaultLoopTimeout
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = defaultConnectTimeout
	}
	if o.Reconnect.InitialDelay <= 0 {
		o.Reconnect.InitialDelay = defaultReconnectInitialDelay
	}
	if o.Reconnect.MaxDelay <= 0 {
		o.Reconnect.MaxDelay = defaultReconnectMaxDelay
	}
	return o
}
