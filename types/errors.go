package types

import "errors"

// Sentinel errors for the transfer protocol. Wrap with %w so callers can
// classify failures with errors.Is regardless of which layer produced them.
var (
	// ErrInvalidArgument indicates malformed caller input, detected before
	// any transport submission (no partial side effects).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidOperation indicates a direction-mismatched call, e.g. a
	// receive-only operation invoked on a send transfer.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrMalformedHeader indicates a header segment that failed structural
	// validation on decode.
	ErrMalformedHeader = errors.New("malformed header")

	// ErrCanceled indicates a transport-reported cancellation.
	ErrCanceled = errors.New("canceled")

	// ErrTransport indicates any other non-OK transport completion.
	ErrTransport = errors.New("transport error")

	// ErrAllocation indicates the buffer allocator could not satisfy a
	// frame allocation.
	ErrAllocation = errors.New("allocation failure")
)
