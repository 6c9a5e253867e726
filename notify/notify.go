// Package notify decouples transfer completion detection from consumer
// notification.
//
// Completion callbacks run on transport progress goroutines, which must
// never be blocked by consumer-side work. The aggregation layer decides
// *that* a transfer finished and schedules the fact here; a notifier
// thread (or any caller of DrainAndNotify) decides *where* delivery
// work runs.
package notify

import (
	"context"
	"sync"

	"github.com/justapithecus/tram/types"
)

// Future surfaces one transfer's terminal status to a consumer.
// Resolved at most once.
type Future struct {
	mu     sync.Mutex
	status types.Status
	err    error
	done   chan struct{}
}

// NewFuture creates an unresolved future.
func NewFuture() *Future {
	return &Future{status: types.StatusInProgress, done: make(chan struct{})}
}

// Resolve records the terminal status. Calls after the first are
// ignored.
func (f *Future) Resolve(status types.Status, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status.Terminal() {
		return
	}
	f.status = status
	f.err = err
	close(f.done)
}

// Done returns a channel closed when the future resolves.
func (f *Future) Done() <-chan struct{} { return f.done }

// Status returns the current status snapshot.
func (f *Future) Status() types.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Err returns the terminal error, if any.
func (f *Future) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Await blocks until the future resolves or ctx is done.
func (f *Future) Await(ctx context.Context) (types.Status, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.status, f.err
	case <-ctx.Done():
		return types.StatusInProgress, ctx.Err()
	}
}

// pending is one scheduled notification.
type pending struct {
	future *Future
	status types.Status
	err    error
}

// Notifier is a producer/consumer queue between progress goroutines and
// the notification path.
type Notifier struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []pending
	ready  bool
	closed bool
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	n := &Notifier{}
	n.cond = sync.NewCond(&n.mu)
	return n
}

// Schedule queues a future for resolution. It never blocks beyond the
// queue lock, so it is safe to call from completion callbacks.
func (n *Notifier) Schedule(f *Future, status types.Status, err error) {
	n.mu.Lock()
	n.queue = append(n.queue, pending{future: f, status: status, err: err})
	n.ready = true
	n.mu.Unlock()
	n.cond.Signal()
}

// DrainAndNotify swaps the queue out under the lock, then resolves the
// swapped-out batch outside it. Delivery running outside the lock means
// a resolution callback may re-enter Schedule without deadlocking.
// Returns the number of notifications delivered.
func (n *Notifier) DrainAndNotify() int {
	n.mu.Lock()
	batch := n.queue
	n.queue = nil
	n.ready = false
	n.mu.Unlock()

	for _, p := range batch {
		p.future.Resolve(p.status, p.err)
	}
	return len(batch)
}

// Run drains the queue until ctx is done or the notifier is closed.
// Intended as the body of a dedicated notifier goroutine.
func (n *Notifier) Run(ctx context.Context) {
	stop := context.AfterFunc(ctx, n.Close)
	defer stop()

	for {
		n.mu.Lock()
		for !n.ready && !n.closed {
			n.cond.Wait()
		}
		closed := n.closed
		n.mu.Unlock()

		n.DrainAndNotify()
		if closed {
			return
		}
	}
}

// Close wakes Run and makes it return after a final drain.
func (n *Notifier) Close() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	n.cond.Broadcast()
}
