// Package multipart implements the multi-part transfer protocol per
// PROTOCOL.md.
//
// A transfer moves an a-priori-unknown number of variable-sized frames
// as one logical message over a tag-addressed transport. The sender
// chunks frame descriptors into chained header segments (wire package)
// and submits every segment and frame as an independent asynchronous
// sub-request; the receiver discovers the frame list by chasing the
// header chain, allocates a buffer per descriptor, and posts a receive
// into each. A per-request mutex aggregates the independent sub-request
// completions into exactly one terminal transition.
package multipart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justapithecus/tram/alloc"
	"github.com/justapithecus/tram/log"
	"github.com/justapithecus/tram/metrics"
	"github.com/justapithecus/tram/notify"
	"github.com/justapithecus/tram/transport"
	"github.com/justapithecus/tram/types"
	"github.com/justapithecus/tram/wire"
)

// SubKind distinguishes the two sub-request flavors.
type SubKind int

const (
	// SubHeader is a header segment operation.
	SubHeader SubKind = iota
	// SubFrame is a data frame operation.
	SubFrame
)

// SubRequest pairs one outstanding transport operation with its payload
// and completion state. Frame sub-requests on the receive side own
// their buffer until the caller takes it via Request.Buffers.
type SubRequest struct {
	Kind SubKind
	// Index is the frame slot for SubFrame, or the segment ordinal for
	// SubHeader.
	Index int
	// Handle is the transport's handle for this operation.
	Handle transport.Handle
	// payload backs header segments; it must outlive the async
	// operation, so the sub-request owns it.
	payload []byte
	// buffer backs receive-side frames.
	buffer *alloc.Buffer
	// completed flips once the completion callback ran.
	completed bool
}

// Request is one logical multi-part transfer.
//
// One mutex guards the sub-request list, the completion counter and the
// status together, so a poll never sees a torn combination of the
// three. Completion callbacks arrive on transport goroutines; the
// terminal transition happens exactly once, under that mutex.
type Request struct {
	direction types.Direction
	tag       transport.Tag
	id        string
	ep        transport.Endpoint
	codec     wire.Codec
	allocator alloc.Allocator
	notifier  *notify.Notifier
	future    *notify.Future
	collector *metrics.Collector
	logger    *log.Logger

	mu             sync.Mutex
	subs           []*SubRequest
	totalFrames    int
	completedCount int
	status         types.Status
	err            error
	filled         bool
	// receive side only: frame descriptors in header chain order, and
	// the buffers filled by frame receives, slot-aligned.
	kinds   []types.MemoryKind
	sizes   []uint64
	buffers []*alloc.Buffer

	done chan struct{}
}

type options struct {
	codec     wire.Codec
	allocator alloc.Allocator
	notifier  *notify.Notifier
	collector *metrics.Collector
	logger    *log.Logger
}

// Option configures a Request.
type Option func(*options)

// WithLogger attaches a structured logger. Transfers log at debug level.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAllocator sets the frame buffer allocator used on receive.
// Defaults to alloc.Host.
func WithAllocator(a alloc.Allocator) Option {
	return func(o *options) { o.allocator = a }
}

// WithNotifier routes the terminal notification through n instead of
// resolving the request's future inline on the transport goroutine.
func WithNotifier(n *notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.collector = c }
}

// WithSegmentCapacity overrides the header segment descriptor capacity.
// Both peers of a transfer must agree on it.
func WithSegmentCapacity(capacity int) Option {
	return func(o *options) { o.codec = wire.Codec{Capacity: capacity} }
}

func newRequest(direction types.Direction, ep transport.Endpoint, tag transport.Tag, opts []Option) *Request {
	o := options{codec: wire.Default, allocator: alloc.Host{}, logger: log.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.NewString()
	return &Request{
		direction: direction,
		tag:       tag,
		id:        id,
		ep:        ep,
		codec:     o.codec,
		allocator: o.allocator,
		notifier:  o.notifier,
		future:    notify.NewFuture(),
		collector: o.collector,
		logger: o.logger.With(
			zap.String("transfer_id", id),
			zap.Stringer("tag", tag),
			zap.Stringer("direction", direction),
		),
		status: types.StatusInProgress,
		done:   make(chan struct{}),
	}
}

// ID returns the transfer's unique identifier.
func (r *Request) ID() string { return r.id }

// Tag returns the transport tag shared by every sub-operation.
func (r *Request) Tag() transport.Tag { return r.tag }

// Direction returns the transfer direction, fixed at construction.
func (r *Request) Direction() types.Direction { return r.direction }

// Status returns the current status. Non-blocking and race-free against
// concurrent completion callbacks.
func (r *Request) Status() types.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Err returns the terminal error, or nil while in progress or after Ok.
func (r *Request) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Done returns a channel closed on the terminal transition.
func (r *Request) Done() <-chan struct{} { return r.done }

// Future returns the caller-facing future resolved at the terminal
// transition (through the notifier when one is attached).
func (r *Request) Future() *notify.Future { return r.future }

// Buffers returns the received frame buffers in frame order. Only valid
// on a receive request that reached Ok; ownership transfers to the
// caller. Calling it on a send request fails with ErrInvalidOperation.
func (r *Request) Buffers() ([]*alloc.Buffer, error) {
	if r.direction != types.DirRecv {
		return nil, fmt.Errorf("%w: buffers of a %s transfer", types.ErrInvalidOperation, r.direction)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != types.StatusOK {
		return nil, fmt.Errorf("%w: transfer status is %s", types.ErrInvalidOperation, r.status)
	}
	return r.buffers, nil
}

// Wait blocks until the transfer reaches a terminal status or ctx is
// done. When the endpoint is in manual progress mode, Wait pumps
// completions on the calling goroutine; otherwise it just parks.
// Returns nil on Ok, the terminal error otherwise.
func (r *Request) Wait(ctx context.Context) error {
	if p, ok := r.ep.(transport.Pumper); ok && p.Manual() {
		for {
			select {
			case <-r.done:
				return r.Err()
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err := p.Pump(ctx); err != nil {
				return err
			}
		}
	}

	select {
	case <-r.done:
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// addSub appends a sub-request. Panics if the request is already
// filled; no sub-request may be added past that point.
func (r *Request) addSub(s *SubRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.filled {
		panic("multipart: sub-request added after fill")
	}
	r.subs = append(r.subs, s)
}

// markFilled declares the sub-request set complete and re-evaluates the
// terminal condition: frames completing while later ones were still
// being posted must not trigger early, and a zero-frame transfer must
// still terminate.
func (r *Request) markFilled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filled = true
	r.maybeFinishLocked()
}

// frameCompleted is the aggregation step shared by both directions,
// invoked from a transport goroutine once per frame sub-request.
func (r *Request) frameCompleted(s *SubRequest, c transport.Completion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.completed = true
	if c.Status != transport.StatusOK {
		r.failLocked(completionError(c))
		return
	}
	r.completedCount++
	r.maybeFinishLocked()
}

// headerCompleted records a header sub-request outcome. Header
// completions do not count toward the frame total, but their failures
// feed the same error path as frame failures so a lost segment cannot
// go unobserved.
func (r *Request) headerCompleted(s *SubRequest, c transport.Completion) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.completed = true
	if c.Status != transport.StatusOK {
		r.failLocked(completionError(c))
		return false
	}
	return true
}

// maybeFinishLocked fires the Ok transition when every frame the
// transfer will ever have has completed. Caller holds r.mu.
func (r *Request) maybeFinishLocked() {
	if r.status.Terminal() {
		return
	}
	if r.filled && r.completedCount == r.totalFrames {
		r.finishLocked(types.StatusOK, nil)
	}
}

// failLocked records the first non-OK outcome. Later completions are
// still counted but never override the status. Caller holds r.mu.
func (r *Request) failLocked(status types.Status, err error) {
	if r.status.Terminal() {
		return
	}
	r.finishLocked(status, err)
}

// finishLocked performs the terminal transition exactly once. Caller
// holds r.mu and has verified the status is not yet terminal.
func (r *Request) finishLocked(status types.Status, err error) {
	r.status = status
	r.err = err
	close(r.done)

	switch status {
	case types.StatusOK:
		r.collector.IncTransferOK()
	case types.StatusCanceled:
		r.collector.IncTransferCanceled()
	default:
		r.collector.IncTransferError()
	}

	if r.notifier != nil {
		r.notifier.Schedule(r.future, status, err)
	} else {
		r.future.Resolve(status, err)
	}

	if err != nil {
		r.logger.Debug("transfer finished", zap.Stringer("status", status), zap.Error(err))
		return
	}
	r.logger.Debug("transfer finished",
		zap.Stringer("status", status),
		zap.Int("frames", r.totalFrames),
	)
}

// completionError maps a non-OK transport completion onto the protocol
// error taxonomy.
func completionError(c transport.Completion) (types.Status, error) {
	if c.Status == transport.StatusCanceled {
		if c.Err != nil {
			return types.StatusCanceled, fmt.Errorf("%w: %v", types.ErrCanceled, c.Err)
		}
		return types.StatusCanceled, types.ErrCanceled
	}
	if c.Err != nil && errors.Is(c.Err, types.ErrTransport) {
		return types.StatusError, c.Err
	}
	if c.Err != nil {
		return types.StatusError, fmt.Errorf("%w: %v", types.ErrTransport, c.Err)
	}
	return types.StatusError, types.ErrTransport
}
