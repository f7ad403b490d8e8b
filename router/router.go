// Package router dispatches incoming MQTT messages to handler functions
// registered against topic patterns.
//
// Patterns use named segments instead of raw MQTT wildcards. A `:name`
// segment matches a single topic level and captures it as a parameter; a
// trailing `*name` segment captures all remaining levels. Registering a
// route subscribes to the equivalent MQTT filter:
//
//	sensor/:room/temp  subscribes  sensor/+/temp
//	event/*rest        subscribes  event/#
//
// Handlers receive a Request carrying the message and the bound
// parameters. Handler errors and panics are logged and never stop the
// dispatch loop.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-mosq/mqtt"
)

var (
	// ErrNoRoute indicates no registered pattern matches a topic.
	ErrNoRoute = errors.New("router: no route matches topic")

	// ErrBadPattern indicates a malformed route pattern.
	ErrBadPattern = errors.New("router: invalid pattern")

	// ErrDuplicateRoute indicates a pattern was registered twice.
	ErrDuplicateRoute = errors.New("router: pattern already registered")
)

// HandlerFunc processes one routed message.
type HandlerFunc func(ctx context.Context, req *Request) error

// Subscriber is the slice of the client facade the router needs.
// *mqtt.Client satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, filter string, qos byte) (byte, error)
}

// Receiver yields messages for the dispatch loop. *mqtt.Stream
// satisfies it.
type Receiver interface {
	Recv(ctx context.Context) (mqtt.Message, error)
}

// Logger receives handler failures. *logging.Logger and slog-style
// loggers satisfy it.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type segKind int

const (
	segLiteral segKind = iota
	segParam
	segTail
)

type segment struct {
	kind segKind
	// literal text for segLiteral, parameter name otherwise
	value string
}

type route struct {
	pattern  string
	filter   string
	segments []segment
	handler  HandlerFunc
}

// Router maps topic patterns to handlers and feeds them from a
// subscriber stream.
type Router struct {
	sub    Subscriber
	logger Logger
	qos    byte

	mu     sync.RWMutex
	routes []route
}

// New builds a router that subscribes through sub at the given QoS.
// logger may be nil.
func New(sub Subscriber, qos byte, logger Logger) *Router {
	return &Router{sub: sub, logger: logger, qos: qos}
}

// Route registers handler for pattern and subscribes to the matching
// MQTT filter. Patterns must be unique.
func (r *Router) Route(ctx context.Context, pattern string, handler HandlerFunc) error {
	if handler == nil {
		return fmt.Errorf("%w: nil handler for %q", ErrBadPattern, pattern)
	}
	segs, filter, err := parsePattern(pattern)
	if err != nil {
		return err
	}

	r.mu.Lock()
	for _, existing := range r.routes {
		if existing.pattern == pattern {
			r.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrDuplicateRoute, pattern)
		}
	}
	r.routes = append(r.routes, route{
		pattern:  pattern,
		filter:   filter,
		segments: segs,
		handler:  handler,
	})
	r.mu.Unlock()

	if _, err := r.sub.Subscribe(ctx, filter, r.qos); err != nil {
		r.mu.Lock()
		for i, existing := range r.routes {
			if existing.pattern == pattern {
				r.routes = append(r.routes[:i], r.routes[i+1:]...)
				break
			}
		}
		r.mu.Unlock()
		return fmt.Errorf("router: subscribe %q: %w", filter, err)
	}
	return nil
}

// Dispatch routes a single message to the first matching handler.
// Handler panics are recovered and returned as errors.
func (r *Router) Dispatch(ctx context.Context, msg mqtt.Message) error {
	r.mu.RLock()
	routes := r.routes
	r.mu.RUnlock()

	levels := strings.Split(msg.Topic, "/")
	for _, rt := range routes {
		params, ok := match(rt.segments, levels)
		if !ok {
			continue
		}
		return call(ctx, rt.handler, &Request{Message: msg, Params: params})
	}
	return fmt.Errorf("%w: %q", ErrNoRoute, msg.Topic)
}

// Run consumes messages from recv and dispatches each until the context
// is cancelled or the stream ends. Handler and routing errors are
// logged, not returned; only the terminal stream error comes back.
func (r *Router) Run(ctx context.Context, recv Receiver) error {
	for {
		msg, err := recv.Recv(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if err := r.Dispatch(ctx, msg); err != nil {
			r.logf("message dispatch failed", "topic", msg.Topic, "error", err)
		}
	}
}

func (r *Router) logf(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

func call(ctx context.Context, h HandlerFunc, req *Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("router: handler panic on %q: %v", req.Message.Topic, rec)
		}
	}()
	return h(ctx, req)
}

// parsePattern splits a pattern into matcher segments and derives the
// MQTT filter to subscribe. Parameter markers must occupy a whole
// level, and a tail capture must be the final level.
func parsePattern(pattern string) ([]segment, string, error) {
	if pattern == "" {
		return nil, "", fmt.Errorf("%w: empty pattern", ErrBadPattern)
	}
	levels := strings.Split(pattern, "/")
	segs := make([]segment, 0, len(levels))
	filter := make([]string, 0, len(levels))

	for i, level := range levels {
		switch {
		case strings.HasPrefix(level, ":"):
			name := level[1:]
			if name == "" {
				return nil, "", fmt.Errorf("%w: unnamed parameter in %q", ErrBadPattern, pattern)
			}
			segs = append(segs, segment{kind: segParam, value: name})
			filter = append(filter, "+")
		case strings.HasPrefix(level, "*"):
			name := level[1:]
			if name == "" {
				return nil, "", fmt.Errorf("%w: unnamed tail in %q", ErrBadPattern, pattern)
			}
			if i != len(levels)-1 {
				return nil, "", fmt.Errorf("%w: tail capture must be last in %q", ErrBadPattern, pattern)
			}
			segs = append(segs, segment{kind: segTail, value: name})
			filter = append(filter, "#")
		case strings.ContainsAny(level, ":*+#"):
			return nil, "", fmt.Errorf("%w: marker must span a whole level in %q", ErrBadPattern, pattern)
		default:
			segs = append(segs, segment{kind: segLiteral, value: level})
			filter = append(filter, level)
		}
	}
	return segs, strings.Join(filter, "/"), nil
}

// match binds topic levels against pattern segments. A nil map with
// ok=true means the route matched without parameters.
func match(segs []segment, levels []string) (Params, bool) {
	var params Params
	for i, seg := range segs {
		switch seg.kind {
		case segTail:
			if i >= len(levels) {
				return nil, false
			}
			if params == nil {
				params = make(Params, 1)
			}
			params[seg.value] = strings.Join(levels[i:], "/")
			return params, true
		case segParam:
			if i >= len(levels) {
				return nil, false
			}
			if params == nil {
				params = make(Params, len(segs))
			}
			params[seg.value] = levels[i]
		case segLiteral:
			if i >= len(levels) || levels[i] != seg.value {
				return nil, false
			}
		}
	}
	if len(levels) != len(segs) {
		return nil, false
	}
	return params, true
}
