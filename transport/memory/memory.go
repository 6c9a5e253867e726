// Package memory implements an in-process tag-matched transport pair.
//
// A pair cross-connects two endpoints: a send on one side matches a
// posted receive on the other, or queues until one is posted. Each
// endpoint delivers completion callbacks either from a background
// delivery goroutine (ModeBackground) or on the goroutine that calls
// Pump (ModeManual). The mode is selected once per pair.
//
// Used by tests and by `tram bench` as a loopback transport.
package memory

import (
	"context"
	"sync"

	"github.com/justapithecus/tram/transport"
)

// Mode selects how an endpoint delivers completion callbacks.
type Mode int

const (
	// ModeBackground runs a delivery goroutine per endpoint.
	ModeBackground Mode = iota
	// ModeManual delivers callbacks only from Pump.
	ModeManual
)

// Endpoint is one side of an in-process pair.
type Endpoint struct {
	peer       *Endpoint
	dispatcher *transport.Dispatcher

	mu      sync.Mutex
	closed  bool
	posted  map[transport.Tag][]*transport.Operation
	backlog map[transport.Tag][][]byte
}

var _ transport.Endpoint = (*Endpoint)(nil)
var _ transport.Pumper = (*Endpoint)(nil)

// NewPair creates two cross-connected endpoints sharing one delivery mode.
func NewPair(mode Mode) (*Endpoint, *Endpoint) {
	a := newEndpoint(mode)
	b := newEndpoint(mode)
	a.peer, b.peer = b, a
	return a, b
}

func newEndpoint(mode Mode) *Endpoint {
	return &Endpoint{
		dispatcher: transport.NewDispatcher(mode == ModeManual),
		posted:     make(map[transport.Tag][]*transport.Operation),
		backlog:    make(map[transport.Tag][][]byte),
	}
}

// SendAsync matches buf against the peer's posted receives for tag, or
// queues a copy until one is posted. The send itself completes as soon
// as the payload is handed to the peer.
func (e *Endpoint) SendAsync(buf []byte, tag transport.Tag, cb transport.CompletionFunc) (transport.Handle, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, transport.ErrClosed
	}
	e.mu.Unlock()

	o := transport.NewOperation(buf, cb)
	sendComp := transport.Completion{Status: transport.StatusOK, N: len(buf)}

	peer := e.peer
	peer.mu.Lock()
	switch {
	case peer.closed:
		sendComp = transport.Completion{Status: transport.StatusError, Err: transport.ErrClosed}
	case len(peer.posted[tag]) > 0:
		r := peer.posted[tag][0]
		peer.posted[tag] = peer.posted[tag][1:]
		if len(peer.posted[tag]) == 0 {
			delete(peer.posted, tag)
		}
		peer.dispatcher.Enqueue(r, matchInto(r.Buf(), buf))
	default:
		queued := make([]byte, len(buf))
		copy(queued, buf)
		peer.backlog[tag] = append(peer.backlog[tag], queued)
	}
	peer.mu.Unlock()

	e.dispatcher.Enqueue(o, sendComp)
	return o, nil
}

// RecvAsync posts a receive into buf for tag, matching a queued message
// immediately when one is waiting.
func (e *Endpoint) RecvAsync(buf []byte, tag transport.Tag, cb transport.CompletionFunc) (transport.Handle, error) {
	o := transport.NewOperation(buf, cb)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, transport.ErrClosed
	}
	if msgs := e.backlog[tag]; len(msgs) > 0 {
		msg := msgs[0]
		e.backlog[tag] = msgs[1:]
		if len(e.backlog[tag]) == 0 {
			delete(e.backlog, tag)
		}
		e.mu.Unlock()
		e.dispatcher.Enqueue(o, matchInto(buf, msg))
		return o, nil
	}
	e.posted[tag] = append(e.posted[tag], o)
	e.mu.Unlock()
	return o, nil
}

// matchInto copies msg into dst and builds the receive completion.
// A message larger than the posted buffer fails the receive.
func matchInto(dst, msg []byte) transport.Completion {
	if len(msg) > len(dst) {
		return transport.Completion{
			Status: transport.StatusError,
			Err:    transport.ErrTruncated,
		}
	}
	copy(dst, msg)
	return transport.Completion{Status: transport.StatusOK, N: len(msg)}
}

// Close fails every posted receive with StatusCanceled and stops the
// delivery goroutine after the queue drains.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	canceled := transport.Completion{Status: transport.StatusCanceled, Err: transport.ErrClosed}
	for _, ops := range e.posted {
		for _, o := range ops {
			e.dispatcher.Enqueue(o, canceled)
		}
	}
	e.posted = map[transport.Tag][]*transport.Operation{}
	e.backlog = map[transport.Tag][][]byte{}
	e.mu.Unlock()

	e.dispatcher.Close()
	return nil
}

// Manual implements transport.Pumper.
func (e *Endpoint) Manual() bool { return e.dispatcher.Manual() }

// Pump implements transport.Pumper: it delivers the next batch of
// completion callbacks on the calling goroutine.
func (e *Endpoint) Pump(ctx context.Context) error {
	return e.dispatcher.Pump(ctx)
}
