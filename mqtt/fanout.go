package mqtt

import (
	"context"
	"sync"
)

// fanout broadcasts arriving messages to every live subscriber stream.
// Delivery is fan-out, not load-balancing: each stream receives each
// message. With zero live streams a message is dropped; nothing buffers
// for absent consumers.
type fanout struct {
	mu      sync.Mutex
	streams []*Stream
	closed  bool
}

func newFanout() *fanout {
	return &fanout{}
}

// stream creates and attaches a new subscriber endpoint. On a closed
// fanout the returned stream is already at end-of-stream.
func (f *fanout) stream() *Stream {
	s := &Stream{f: f, ready: make(chan struct{}, 1)}

	f.mu.Lock()
	if f.closed {
		s.closed = true
		close(s.ready)
	} else {
		f.streams = append(f.streams, s)
	}
	f.mu.Unlock()

	return s
}

// publish enqueues msg on every live stream. Never blocks: each stream's
// queue is unbounded, so a slow consumer accumulates messages rather than
// stalling delivery to the others or to the network worker.
func (f *fanout) publish(msg Message) {
	f.mu.Lock()
	streams := make([]*Stream, len(f.streams))
	copy(streams, f.streams)
	f.mu.Unlock()

	for _, s := range streams {
		s.push(msg)
	}
}

// closeAll detaches and closes every stream. Further stream() calls yield
// already-closed streams.
func (f *fanout) closeAll() {
	f.mu.Lock()
	streams := f.streams
	f.streams = nil
	f.closed = true
	f.mu.Unlock()

	for _, s := range streams {
		s.shutdown()
	}
}

// detach removes s from the broadcast set.
func (f *fanout) detach(s *Stream) {
	f.mu.Lock()
	for i, cur := range f.streams {
		if cur == s {
			f.streams = append(f.streams[:i], f.streams[i+1:]...)
			break
		}
	}
	f.mu.Unlock()
}

// Stream is one independent subscriber endpoint. Messages queue without
// bound until received; closing the owning Client closes every stream.
//
// A Stream is safe for concurrent use, though messages are handed to
// whichever Recv call gets there first.
type Stream struct {
	f *fanout

	mu     sync.Mutex
	queue  []Message
	closed bool

	// ready carries a wake-up hint to a blocked Recv. Capacity 1: the
	// receiver re-checks the queue on every wake, so one pending signal
	// covers any number of pushes.
	ready chan struct{}
}

// push appends msg to the queue and wakes a blocked receiver.
func (s *Stream) push(msg Message) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, msg)
	select {
	case s.ready <- struct{}{}:
	default:
	}
	s.mu.Unlock()
}

// Recv returns the next message, blocking until one arrives, the context
// ends, or the stream is closed. Messages queued before close are still
// delivered; once drained, Recv reports ErrClosed.
func (s *Stream) Recv(ctx context.Context) (Message, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			msg := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return msg, nil
		}
		closed := s.closed
		s.mu.Unlock()

		if closed {
			return Message{}, ErrClosed
		}

		select {
		case <-s.ready:
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

// TryRecv returns the next queued message without blocking. ok is false
// when the queue is empty; err is ErrClosed once the stream is closed and
// drained.
func (s *Stream) TryRecv() (msg Message, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) > 0 {
		msg = s.queue[0]
		s.queue = s.queue[1:]
		return msg, true, nil
	}
	if s.closed {
		return Message{}, false, ErrClosed
	}
	return Message{}, false, nil
}

// Len reports the number of queued messages.
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close detaches the stream from the client and discards queued messages.
// Subsequent Recv calls report ErrClosed.
func (s *Stream) Close() {
	s.f.detach(s)

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.queue = nil
		close(s.ready)
	}
	s.mu.Unlock()
}

// shutdown marks end-of-stream but keeps queued messages for draining.
// Used by the client's teardown path.
func (s *Stream) shutdown() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ready)
	}
	s.mu.Unlock()
}
