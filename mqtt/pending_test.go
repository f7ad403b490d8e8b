package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func issueMID(mid MessageID) func() (MessageID, error) {
	return func() (MessageID, error) { return mid, nil }
}

// =============================================================================
// Correlation Table Tests
// =============================================================================

func TestPendingResolve(t *testing.T) {
	p := newPending()

	w, mid, err := p.register(opPublish, issueMID(7))
	if err != nil {
		t.Fatalf("register() error = %v", err)
	}
	if mid != 7 {
		t.Fatalf("register() mid = %d, want 7", mid)
	}

	p.resolve(7, result{mid: 7})

	select {
	case <-w.done:
	default:
		t.Fatal("waiter not resolved")
	}
	if w.res.mid != 7 || w.res.err != nil {
		t.Errorf("result = %+v, want mid 7 and nil error", w.res)
	}
}

// An acknowledgement for an unknown id (duplicate, or late after
// cancellation) is silently dropped.
func TestPendingResolveUnknownIsNoOp(t *testing.T) {
	p := newPending()
	p.resolve(99, result{mid: 99})
}

// Resolution removes the entry immediately so a reused id cannot match a
// stale waiter.
func TestPendingEntryRemovedOnResolve(t *testing.T) {
	p := newPending()

	old, _, _ := p.register(opPublish, issueMID(3))
	p.resolve(3, result{mid: 3})

	fresh, _, _ := p.register(opPublish, issueMID(3))
	p.resolve(3, result{mid: 3})

	<-old.done
	<-fresh.done
	if fresh.res.err != nil {
		t.Errorf("fresh waiter error = %v, want nil", fresh.res.err)
	}
}

func TestPendingCancel(t *testing.T) {
	p := newPending()

	w, mid, _ := p.register(opSubscribe, issueMID(4))

	if !p.cancel(mid, ErrCancelled) {
		t.Fatal("cancel() = false, want true for registered entry")
	}
	if !errors.Is(w.res.err, ErrCancelled) {
		t.Errorf("cancelled waiter error = %v, want ErrCancelled", w.res.err)
	}

	// The entry is gone: a late ack is dropped, and cancel again reports
	// nothing to do.
	p.resolve(mid, result{mid: mid})
	if p.cancel(mid, ErrCancelled) {
		t.Error("second cancel() = true, want false")
	}
}

func TestPendingCancelLosesRaceToResolve(t *testing.T) {
	p := newPending()

	w, mid, _ := p.register(opPublish, issueMID(5))
	p.resolve(mid, result{mid: mid})

	if p.cancel(mid, ErrCancelled) {
		t.Fatal("cancel() = true after resolution, want false")
	}
	if w.res.err != nil {
		t.Errorf("waiter error = %v, want the real result preserved", w.res.err)
	}
}

func TestPendingConnectSlotUnique(t *testing.T) {
	p := newPending()

	if _, ok := p.registerConnect(opConnect); !ok {
		t.Fatal("first registerConnect() = false, want true")
	}
	if _, ok := p.registerConnect(opConnect); ok {
		t.Fatal("second registerConnect() = true, want false while outstanding")
	}

	p.resolveConnect(result{rc: 0})

	if _, ok := p.registerConnect(opConnect); !ok {
		t.Error("registerConnect() after resolution = false, want true")
	}
}

func TestPendingFailAll(t *testing.T) {
	p := newPending()

	w1, _, _ := p.register(opPublish, issueMID(1))
	w2, _, _ := p.register(opSubscribe, issueMID(2))
	wc, _ := p.registerConnect(opConnect)

	p.failAll(ErrConnectionLost)

	for i, w := range []*waiter{w1, w2, wc} {
		select {
		case <-w.done:
		default:
			t.Fatalf("waiter %d not resolved by failAll", i)
		}
		if !errors.Is(w.res.err, ErrConnectionLost) {
			t.Errorf("waiter %d error = %v, want ErrConnectionLost", i, w.res.err)
		}
	}
}

// A waiter resolves exactly once; later resolutions do not overwrite the
// first result.
func TestWaiterSingleResolution(t *testing.T) {
	w := newWaiter(opPublish)

	w.resolve(result{mid: 1})
	w.resolve(result{mid: 2, err: ErrCancelled})

	if w.res.mid != 1 || w.res.err != nil {
		t.Errorf("result = %+v, want first resolution to win", w.res)
	}
}

// Concurrent registration and resolution must be safe without external
// locking.
func TestPendingConcurrentAccess(t *testing.T) {
	p := newPending()

	var wg sync.WaitGroup
	waiters := make([]*waiter, 0, 50)
	for i := 0; i < 50; i++ {
		mid := MessageID(i + 1)
		w, _, err := p.register(opPublish, issueMID(mid))
		if err != nil {
			t.Fatalf("register(%d) error = %v", mid, err)
		}
		waiters = append(waiters, w)

		// Resolution and cancellation race; exactly one consumes the
		// entry, the other must be a harmless no-op.
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.resolve(mid, result{mid: mid})
		}()
		go func() {
			defer wg.Done()
			p.cancel(mid, ErrCancelled)
		}()
	}
	wg.Wait()

	for i, w := range waiters {
		select {
		case <-w.done:
		case <-time.After(time.Second):
			t.Fatalf("waiter %d never resolved", i)
		}
	}
}
