package quadbench

import (
	"context"
	"sync"
)

// CountDownLatch lets one goroutine wait until a fixed number of others have
// signalled completion. Once the count reaches zero it stays there.
type CountDownLatch struct {
	mu    sync.Mutex
	count int
	zero  chan struct{}
}

// NewCountDownLatch returns a latch that opens after count calls to CountDown.
// A count of zero (or less) yields a latch that is already open.
func NewCountDownLatch(count int) *CountDownLatch {
	l := &CountDownLatch{count: max(count, 0), zero: make(chan struct{})}
	if l.count == 0 {
		close(l.zero)
	}
	return l
}

// CountDown decrements the count, opening the latch when it reaches zero.
// Extra calls after that are no-ops.
func (l *CountDownLatch) CountDown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count == 0 {
		return
	}
	l.count--
	if l.count == 0 {
		close(l.zero)
	}
}

// Count returns the number of outstanding CountDown calls.
func (l *CountDownLatch) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Done returns a channel that is closed when the latch opens.
func (l *CountDownLatch) Done() <-chan struct{} { return l.zero }

// Await blocks until the latch opens or ctx is cancelled, in which case it
// returns an error wrapping ErrInterrupted.
func (l *CountDownLatch) Await(ctx context.Context) error {
	select {
	case <-l.zero:
		return nil
	case <-ctx.Done():
		return interrupted(ctx.Err())
	}
}
