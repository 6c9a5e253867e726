// Package types defines core domain types for the tram transfer protocol.
//
//nolint:revive // types is a common Go package naming convention
package types

import "fmt"

// MemoryKind classifies where a frame's bytes live. The allocator on the
// receiving side needs the kind to satisfy a frame receive correctly.
type MemoryKind uint8

const (
	// MemoryHost is ordinary process heap memory.
	MemoryHost MemoryKind = 0
	// MemoryDevice is accelerator-resident memory, served by a
	// kind-specific allocator registered at the receiving worker.
	MemoryDevice MemoryKind = 1
)

// Valid reports whether k is a known memory kind.
func (k MemoryKind) Valid() bool {
	return k == MemoryHost || k == MemoryDevice
}

func (k MemoryKind) String() string {
	switch k {
	case MemoryHost:
		return "host"
	case MemoryDevice:
		return "device"
	default:
		return fmt.Sprintf("memory_kind(%d)", uint8(k))
	}
}

// ParseMemoryKind parses a memory kind name as used in CLI flags and
// store manifests.
func ParseMemoryKind(s string) (MemoryKind, error) {
	switch s {
	case "host":
		return MemoryHost, nil
	case "device":
		return MemoryDevice, nil
	default:
		return 0, fmt.Errorf("%w: unknown memory kind %q", ErrInvalidArgument, s)
	}
}

// Direction fixes whether a transfer sends or receives. Immutable after
// construction; wrong-direction operations fail with ErrInvalidOperation.
type Direction int

const (
	// DirSend is the sending side of a transfer.
	DirSend Direction = iota
	// DirRecv is the receiving side of a transfer.
	DirRecv
)

func (d Direction) String() string {
	switch d {
	case DirSend:
		return "send"
	case DirRecv:
		return "recv"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Status is the lifecycle state of a transfer. It transitions from
// StatusInProgress to exactly one terminal value and never changes again.
type Status int

const (
	// StatusInProgress means the transfer has outstanding sub-operations.
	StatusInProgress Status = iota
	// StatusOK means every frame completed successfully.
	StatusOK
	// StatusCanceled means the transport canceled a sub-operation.
	StatusCanceled
	// StatusError means a sub-operation failed; the first failure wins.
	StatusError
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s != StatusInProgress
}

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
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
