// Package redis implements a tag-addressed endpoint over Redis lists.
//
// Each tag maps to one list key under a configurable prefix. Sends RPUSH
// payloads onto the tag's list; a per-tag consumer goroutine BLPOPs them
// off in arrival order and matches posted receives. Redis preserves list
// order, so the per-tag FIFO the protocol needs comes for free.
//
// Useful when the two workers cannot reach each other directly but share
// a broker.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/justapithecus/tram/log"
	"github.com/justapithecus/tram/transport"
)

// DefaultPrefix namespaces tag list keys.
const DefaultPrefix = "tram"

// popTimeout bounds each BLPOP so consumers notice endpoint shutdown.
const popTimeout = 500 * time.Millisecond

// Config configures a Redis endpoint.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Prefix namespaces the tag list keys (default: tram).
	Prefix string
}

// outgoing is one queued payload awaiting the sender goroutine.
type outgoing struct {
	key string
	msg []byte
	op  *transport.Operation
}

// Endpoint is a tag-addressed endpoint backed by Redis lists.
type Endpoint struct {
	client     *goredis.Client
	prefix     string
	logger     *log.Logger
	dispatcher *transport.Dispatcher

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	closed    bool
	posted    map[transport.Tag][]*transport.Operation
	backlog   map[transport.Tag][][]byte
	consumers map[transport.Tag]bool
	sendQ     []outgoing

	sendCh    chan struct{}
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

// New creates an endpoint from the given config.
func New(cfg Config, opts ...Option) (*Endpoint, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis endpoint requires a URL")
	}
	redisOpts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis endpoint: invalid URL: %w", err)
	}
	return NewWithClient(goredis.NewClient(redisOpts), cfg.Prefix, opts...), nil
}

// NewWithClient wraps an existing client. The endpoint owns the client
// from here on. Used directly by tests running against miniredis.
func NewWithClient(client *goredis.Client, prefix string, opts ...Option) *Endpoint {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Endpoint{
		client:     client,
		prefix:     prefix,
		dispatcher: transport.NewDispatcher(false),
		ctx:        ctx,
		cancel:     cancel,
		posted:     make(map[transport.Tag][]*transport.Operation),
		backlog:    make(map[transport.Tag][][]byte),
		consumers:  make(map[transport.Tag]bool),
		sendCh:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.wg.Add(1)
	go e.sendLoop()
	return e
}

// key maps a tag to its list key.
func (e *Endpoint) key(tag transport.Tag) string {
	return fmt.Sprintf("%s:msg:%s", e.prefix, tag)
}

// SendAsync queues buf for the sender goroutine, which RPUSHes payloads
// in submission order. The operation completes once the push succeeds.
func (e *Endpoint) SendAsync(buf []byte, tag transport.Tag, cb transport.CompletionFunc) (transport.Handle, error) {
	o := transport.NewOperation(buf, cb)
	msg := make([]byte, len(buf))
	copy(msg, buf)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, transport.ErrClosed
	}
	e.sendQ = append(e.sendQ, outgoing{key: e.key(tag), msg: msg, op: o})
	e.mu.Unlock()

	select {
	case e.sendCh <- struct{}{}:
	default:
	}
	return o, nil
}

// RecvAsync posts a receive into buf for tag and ensures a consumer
// goroutine is draining the tag's list.
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
	if !e.consumers[tag] {
		e.consumers[tag] = true
		e.wg.Add(1)
		go e.consumeLoop(tag)
	}
	e.mu.Unlock()
	return o, nil
}

// Close cancels consumers, fails posted receives with StatusCanceled,
// and releases the client.
func (e *Endpoint) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		canceled := transport.Completion{Status: transport.StatusCanceled, Err: transport.ErrClosed}
		for _, ops := range e.posted {
			for _, o := range ops {
				e.dispatcher.Enqueue(o, canceled)
			}
		}
		e.posted = map[transport.Tag][]*transport.Operation{}
		for _, out := range e.sendQ {
			e.dispatcher.Enqueue(out.op, transport.Completion{Status: transport.StatusError, Err: transport.ErrClosed})
		}
		e.sendQ = nil
		e.mu.Unlock()

		e.cancel()
		e.wg.Wait()
		e.dispatcher.Close()
		err = e.client.Close()
	})
	return err
}

// sendLoop drains the send queue, pushing payloads in submission order.
func (e *Endpoint) sendLoop() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		batch := e.sendQ
		e.sendQ = nil
		e.mu.Unlock()

		for _, out := range batch {
			if err := e.client.RPush(e.ctx, out.key, out.msg).Err(); err != nil {
				e.logger.Warn("redis push failed", zap.String("key", out.key), zap.Error(err))
				e.dispatcher.Enqueue(out.op, transport.Completion{Status: transport.StatusError, Err: err})
				continue
			}
			e.dispatcher.Enqueue(out.op, transport.Completion{Status: transport.StatusOK, N: len(out.msg)})
		}

		select {
		case <-e.sendCh:
		case <-e.ctx.Done():
			return
		}
	}
}

// consumeLoop is the per-tag progress goroutine: it pops payloads off
// the tag's list in order and matches them to posted receives.
func (e *Endpoint) consumeLoop(tag transport.Tag) {
	defer e.wg.Done()
	key := e.key(tag)
	for {
		if e.ctx.Err() != nil {
			return
		}
		vals, err := e.client.BLPop(e.ctx, popTimeout, key).Result()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				continue
			}
			if e.ctx.Err() != nil {
				return
			}
			e.logger.Warn("redis pop failed", zap.String("key", key), zap.Error(err))
			continue
		}
		// BLPop returns [key, value].
		if len(vals) != 2 {
			continue
		}
		e.deliver(tag, []byte(vals[1]))
	}
}

// deliver matches one popped payload against posted receives for tag.
func (e *Endpoint) deliver(tag transport.Tag, msg []byte) {
	e.mu.Lock()
	if ops := e.posted[tag]; len(ops) > 0 {
		o := ops[0]
		e.posted[tag] = ops[1:]
		if len(e.posted[tag]) == 0 {
			delete(e.posted, tag)
		}
		e.mu.Unlock()
		e.dispatcher.Enqueue(o, matchInto(o.Buf(), msg))
		return
	}
	e.backlog[tag] = append(e.backlog[tag], msg)
	e.mu.Unlock()
}

func matchInto(dst, msg []byte) transport.Completion {
	if len(msg) > len(dst) {
		return transport.Completion{Status: transport.StatusError, Err: transport.ErrTruncated}
	}
	copy(dst, msg)
	return transport.Completion{Status: transport.StatusOK, N: len(msg)}
}
