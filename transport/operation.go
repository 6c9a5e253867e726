package transport

import (
	"context"
	"sync"
)

// Operation is the Handle implementation shared by the transport
// backends in this repo. It pairs a posted buffer with its completion
// state and guarantees the callback fires at most once.
type Operation struct {
	buf []byte
	cb  CompletionFunc

	mu   sync.Mutex
	done bool
	comp Completion
}

// NewOperation creates an operation over buf with an optional callback.
func NewOperation(buf []byte, cb CompletionFunc) *Operation {
	return &Operation{buf: buf, cb: cb}
}

// Buf returns the buffer the operation was posted with.
func (o *Operation) Buf() []byte { return o.buf }

// Done implements Handle.
func (o *Operation) Done() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

// Completion implements Handle.
func (o *Operation) Completion() Completion {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.comp
}

// Complete records the outcome and invokes the callback. Calls after
// the first are ignored.
func (o *Operation) Complete(comp Completion) {
	o.mu.Lock()
	if o.done {
		o.mu.Unlock()
		return
	}
	o.done = true
	o.comp = comp
	cb := o.cb
	o.mu.Unlock()
	if cb != nil {
		cb(comp)
	}
}

// delivery is a completed operation awaiting callback delivery.
type delivery struct {
	op   *Operation
	comp Completion
}

// Dispatcher serializes completion callback delivery onto a single
// progress path: a background goroutine, or the goroutine calling Pump
// when constructed in manual mode. Backends enqueue completions from
// wherever they detect them; callers only ever observe callbacks from
// the dispatcher's delivery goroutine.
type Dispatcher struct {
	manual bool

	mu      sync.Mutex
	pending []delivery
	closed  bool

	notifyCh chan struct{}
	closedCh chan struct{}
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher. In background mode (manual=false)
// a delivery goroutine starts immediately.
func NewDispatcher(manual bool) *Dispatcher {
	d := &Dispatcher{
		manual:   manual,
		notifyCh: make(chan struct{}, 1),
		closedCh: make(chan struct{}),
	}
	if !manual {
		d.wg.Add(1)
		go d.deliverLoop()
	}
	return d
}

// Manual reports whether callers must drive delivery through Pump.
func (d *Dispatcher) Manual() bool { return d.manual }

// Enqueue schedules op's completion for delivery. Never blocks beyond
// the queue lock.
func (d *Dispatcher) Enqueue(op *Operation, comp Completion) {
	d.mu.Lock()
	d.pending = append(d.pending, delivery{op: op, comp: comp})
	d.mu.Unlock()
	select {
	case d.notifyCh <- struct{}{}:
	default:
	}
}

// Pump delivers the next batch of callbacks on the calling goroutine.
// Blocks until at least one callback ran, the dispatcher closes, or ctx
// is done. Only valid in manual mode.
func (d *Dispatcher) Pump(ctx context.Context) error {
	if !d.manual {
		return ErrBackgroundProgress
	}
	for {
		if batch := d.take(); len(batch) > 0 {
			deliverBatch(batch)
			return nil
		}
		select {
		case <-d.notifyCh:
		case <-d.closedCh:
			if batch := d.take(); len(batch) > 0 {
				deliverBatch(batch)
				return nil
			}
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close drains the queue and stops the delivery goroutine. Safe to call
// more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.closedCh)
	d.wg.Wait()
}

func (d *Dispatcher) take() []delivery {
	d.mu.Lock()
	batch := d.pending
	d.pending = nil
	d.mu.Unlock()
	return batch
}

func (d *Dispatcher) deliverLoop() {
	defer d.wg.Done()
	for {
		if batch := d.take(); len(batch) > 0 {
			deliverBatch(batch)
			continue
		}
		select {
		case <-d.notifyCh:
		case <-d.closedCh:
			deliverBatch(d.take())
			return
		}
	}
}

func deliverBatch(batch []delivery) {
	for _, del := range batch {
		del.op.Complete(del.comp)
	}
}
