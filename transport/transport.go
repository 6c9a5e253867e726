// Package transport defines the tag-addressed asynchronous transport
// boundary consumed by the multipart protocol.
//
// A transport matches a sender's message to a receiver's posted operation
// by tag. Implementations own a progress path (usually a goroutine) from
// which completion callbacks are invoked; the core never assumes which
// goroutine that is. Implementations in this repo: transport/memory
// (in-process pair), transport/tcp (stream peer), transport/redis
// (list-backed broker).
package transport

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
)

// Tag is the transport-level address matching a send to a posted receive.
// Every sub-operation of one multi-part transfer shares one tag.
type Tag uint64

func (t Tag) String() string { return fmt.Sprintf("%016x", uint64(t)) }

// DeriveTag hashes the given parts into a tag. Both peers derive the
// same tag from the same parts (e.g. a shared transfer name).
func DeriveTag(parts ...string) Tag {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return Tag(h.Sum64())
}

// Status is the outcome of one asynchronous sub-operation.
type Status int

const (
	// StatusOK means the operation completed successfully.
	StatusOK Status = iota
	// StatusCanceled means the transport canceled the operation.
	StatusCanceled
	// StatusError means the operation failed.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCanceled:
		return "canceled"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Completion reports the terminal state of one sub-operation.
type Completion struct {
	// Status is the operation outcome.
	Status Status
	// N is the number of payload bytes transferred.
	N int
	// Err carries detail for non-OK statuses.
	Err error
}

// CompletionFunc is invoked at most once per sub-operation, from a
// transport-controlled goroutine. Callbacks for different operations may
// run concurrently or in arbitrary relative order; implementations must
// not block for long inside a callback.
type CompletionFunc func(Completion)

// Handle identifies one outstanding or completed sub-operation.
type Handle interface {
	// Done reports whether the operation has completed.
	Done() bool
	// Completion returns the operation outcome; only meaningful once
	// Done reports true.
	Completion() Completion
}

// Endpoint is a point-to-point tag-addressed transport.
// Buffers passed to SendAsync and RecvAsync must stay valid until the
// completion callback fires.
type Endpoint interface {
	// SendAsync submits an asynchronous send of buf under tag.
	// cb may be nil when the caller does not track the completion.
	SendAsync(buf []byte, tag Tag, cb CompletionFunc) (Handle, error)
	// RecvAsync posts an asynchronous receive into buf for tag. The
	// operation completes once a matching message arrives; a message
	// larger than buf fails the operation with StatusError.
	RecvAsync(buf []byte, tag Tag, cb CompletionFunc) (Handle, error)
	// Close tears the endpoint down. Outstanding operations complete
	// with StatusCanceled.
	Close() error
}

// ErrClosed is returned when submitting to a closed endpoint.
var ErrClosed = errors.New("transport: endpoint closed")

// ErrTruncated fails a receive whose posted buffer is smaller than the
// matched message.
var ErrTruncated = errors.New("transport: message exceeds posted buffer")

// ErrBackgroundProgress is returned by Pump when the endpoint runs its
// own progress goroutine and must not be pumped by callers.
var ErrBackgroundProgress = errors.New("transport: endpoint progresses in background")

// Pumper is implemented by endpoints that support caller-driven
// progress. Blocking-wait and background-progress are mutually exclusive
// configurations selected once per endpoint, not per transfer.
type Pumper interface {
	// Manual reports whether the endpoint requires caller-driven pumps.
	Manual() bool
	// Pump delivers pending completion callbacks on the calling
	// goroutine, blocking until at least one callback ran or ctx is
	// done. Returns ErrBackgroundProgress when Manual is false.
	Pump(ctx context.Context) error
}
