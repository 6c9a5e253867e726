// Package tcp implements a tag-addressed endpoint over a TCP stream.
//
// Each message travels as one length-prefixed msgpack envelope carrying
// the tag and the payload; see PROTOCOL.md. The endpoint's reader
// goroutine matches inbound envelopes against posted receives (queuing
// unexpected ones per tag), and a single dispatcher goroutine delivers
// every completion callback, so callbacks never run on a caller's
// goroutine.
package tcp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/justapithecus/tram/log"
	"github.com/justapithecus/tram/transport"
)

// Frame size constants per PROTOCOL.md.
const (
	// MaxFrameSize is the maximum envelope frame size (64 MiB),
	// including length prefix.
	MaxFrameSize = 64 * 1024 * 1024
	// MaxPayloadSize is the maximum envelope size (MaxFrameSize - 4 bytes).
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
)

// Envelope is the wire record wrapping one tagged message.
type Envelope struct {
	// Tag addresses the message to a posted receive on the peer.
	Tag uint64 `msgpack:"tag"`
	// Payload is the message body (header segment or frame bytes).
	Payload []byte `msgpack:"payload"`
}

// FrameErrorKind classifies envelope framing errors.
type FrameErrorKind int

const (
	// FrameErrorPartial indicates a truncated or incomplete frame.
	FrameErrorPartial FrameErrorKind = iota
	// FrameErrorTooLarge indicates a frame exceeding MaxFrameSize.
	FrameErrorTooLarge
	// FrameErrorDecode indicates a msgpack decoding error.
	FrameErrorDecode
)

// FrameError represents an envelope framing error. Framing errors are
// fatal for the connection: the byte stream can no longer be trusted.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// outgoing is one queued envelope awaiting the writer goroutine.
type outgoing struct {
	frame []byte
	op    *transport.Operation
	n     int
}

// Endpoint is a tag-addressed endpoint over one TCP connection.
type Endpoint struct {
	conn       net.Conn
	logger     *log.Logger
	dispatcher *transport.Dispatcher

	mu      sync.Mutex
	closed  bool
	posted  map[transport.Tag][]*transport.Operation
	backlog map[transport.Tag][][]byte
	sendQ   []outgoing

	sendCh    chan struct{}
	closedCh  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ transport.Endpoint = (*Endpoint)(nil)

// Option configures an Endpoint.
type Option func(*Endpoint)

// WithLogger attaches a logger to the endpoint.
func WithLogger(logger *log.Logger) Option {
	return func(e *Endpoint) { e.logger = logger }
}

// Dial connects to addr and returns an endpoint over the connection.
func Dial(addr string, opts ...Option) (*Endpoint, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp: dial %s: %w", addr, err)
	}
	return NewEndpoint(conn, opts...), nil
}

// NewEndpoint wraps an established connection. The endpoint owns the
// connection from here on.
func NewEndpoint(conn net.Conn, opts ...Option) *Endpoint {
	e := &Endpoint{
		conn:       conn,
		dispatcher: transport.NewDispatcher(false),
		posted:     make(map[transport.Tag][]*transport.Operation),
		backlog:    make(map[transport.Tag][][]byte),
		sendCh:     make(chan struct{}, 1),
		closedCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.wg.Add(2)
	go e.readLoop()
	go e.writeLoop()
	return e
}

// SendAsync encodes buf into an envelope and queues it for the writer
// goroutine. The operation completes once the envelope is on the wire.
func (e *Endpoint) SendAsync(buf []byte, tag transport.Tag, cb transport.CompletionFunc) (transport.Handle, error) {
	frame, err := encodeEnvelope(tag, buf)
	if err != nil {
		return nil, err
	}

	o := transport.NewOperation(buf, cb)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, transport.ErrClosed
	}
	e.sendQ = append(e.sendQ, outgoing{frame: frame, op: o, n: len(buf)})
	e.mu.Unlock()

	select {
	case e.sendCh <- struct{}{}:
	default:
	}
	return o, nil
}

// RecvAsync posts a receive into buf for tag. An already-arrived
// unexpected message for the tag matches immediately.
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

// Close tears the connection down. Posted receives complete with
// StatusCanceled; queued sends complete with StatusError.
func (e *Endpoint) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.failPendingLocked(transport.Completion{Status: transport.StatusCanceled, Err: transport.ErrClosed})
		e.mu.Unlock()

		close(e.closedCh)
		err = e.conn.Close()
		e.wg.Wait()
		e.dispatcher.Close()
	})
	return err
}

// failPendingLocked fails every posted receive and queued send.
func (e *Endpoint) failPendingLocked(comp transport.Completion) {
	for _, ops := range e.posted {
		for _, o := range ops {
			e.dispatcher.Enqueue(o, comp)
		}
	}
	e.posted = map[transport.Tag][]*transport.Operation{}
	for _, out := range e.sendQ {
		e.dispatcher.Enqueue(out.op, transport.Completion{Status: transport.StatusError, Err: transport.ErrClosed})
	}
	e.sendQ = nil
}

// readLoop is the endpoint's inbound progress goroutine.
func (e *Endpoint) readLoop() {
	defer e.wg.Done()
	for {
		env, err := readEnvelope(e.conn)
		if err != nil {
			e.readFailed(err)
			return
		}
		e.deliver(env)
	}
}

// readFailed fails all outstanding operations after a read error.
// A clean EOF after the peer finished is not worth logging.
func (e *Endpoint) readFailed(err error) {
	e.mu.Lock()
	wasClosed := e.closed
	e.closed = true
	e.failPendingLocked(transport.Completion{Status: transport.StatusError, Err: err})
	e.mu.Unlock()

	if !wasClosed && !errors.Is(err, io.EOF) {
		e.logger.Warn("connection read failed", zap.Error(err))
	}
}

// deliver matches one inbound envelope against posted receives.
func (e *Endpoint) deliver(env *Envelope) {
	tag := transport.Tag(env.Tag)

	e.mu.Lock()
	if ops := e.posted[tag]; len(ops) > 0 {
		o := ops[0]
		e.posted[tag] = ops[1:]
		if len(e.posted[tag]) == 0 {
			delete(e.posted, tag)
		}
		e.mu.Unlock()
		e.dispatcher.Enqueue(o, matchInto(o.Buf(), env.Payload))
		return
	}
	e.backlog[tag] = append(e.backlog[tag], env.Payload)
	e.mu.Unlock()
}

// writeLoop drains the send queue onto the connection.
func (e *Endpoint) writeLoop() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		batch := e.sendQ
		e.sendQ = nil
		e.mu.Unlock()

		for _, out := range batch {
			if _, err := e.conn.Write(out.frame); err != nil {
				e.dispatcher.Enqueue(out.op, transport.Completion{Status: transport.StatusError, Err: err})
				continue
			}
			e.dispatcher.Enqueue(out.op, transport.Completion{Status: transport.StatusOK, N: out.n})
		}

		select {
		case <-e.sendCh:
		case <-e.closedCh:
			return
		}
	}
}

func matchInto(dst, msg []byte) transport.Completion {
	if len(msg) > len(dst) {
		return transport.Completion{Status: transport.StatusError, Err: transport.ErrTruncated}
	}
	copy(dst, msg)
	return transport.Completion{Status: transport.StatusOK, N: len(msg)}
}

// encodeEnvelope builds a length-prefixed msgpack frame.
func encodeEnvelope(tag transport.Tag, payload []byte) ([]byte, error) {
	body, err := msgpack.Marshal(&Envelope{Tag: uint64(tag), Payload: payload})
	if err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to encode envelope", Err: err}
	}
	if len(body) > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("envelope size %d exceeds maximum %d", len(body), MaxPayloadSize),
		}
	}
	frame := make([]byte, LengthPrefixSize+len(body))
	binary.BigEndian.PutUint32(frame[:LengthPrefixSize], uint32(len(body)))
	copy(frame[LengthPrefixSize:], body)
	return frame, nil
}

// readEnvelope reads a single length-prefixed envelope from r.
func readEnvelope(r io.Reader) (*Envelope, error) {
	var lengthBuf [LengthPrefixSize]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &FrameError{Kind: FrameErrorPartial, Msg: "failed to read length prefix", Err: err}
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("envelope size %d exceeds maximum %d", payloadSize, MaxPayloadSize),
		}
	}

	body := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, &FrameError{Kind: FrameErrorPartial, Msg: "failed to read envelope body", Err: err}
	}

	var env Envelope
	if err := msgpack.Unmarshal(body, &env); err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode envelope", Err: err}
	}
	return &env, nil
}
