// Package alloc provides frame buffer allocation by memory kind.
//
// The receiving side of a transfer learns each frame's kind and size
// from the header segments and asks an Allocator for a matching buffer
// before posting the frame receive. Host memory is plain heap; device
// kinds are served by whatever allocator the worker registers.
package alloc

import (
	"fmt"
	"sync/atomic"

	"github.com/justapithecus/tram/types"
)

// Buffer is one allocated frame buffer. Exclusively owned by its holder
// until explicitly transferred.
type Buffer struct {
	// Kind is the memory kind the buffer was allocated as.
	Kind types.MemoryKind
	// Data is the backing storage.
	Data []byte
}

// Size returns the buffer's byte length.
func (b *Buffer) Size() uint64 { return uint64(len(b.Data)) }

// Allocator satisfies frame buffer requests.
type Allocator interface {
	// Allocate returns a buffer of the given kind and size, or an error
	// wrapping types.ErrAllocation.
	Allocate(kind types.MemoryKind, size uint64) (*Buffer, error)
}

// Host allocates plain heap buffers. It accepts any kind tag, because a
// worker without device memory still needs to land device-kind frames
// somewhere addressable.
type Host struct{}

// Allocate implements Allocator.
func (Host) Allocate(kind types.MemoryKind, size uint64) (*Buffer, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown memory kind %d", types.ErrAllocation, kind)
	}
	return &Buffer{Kind: kind, Data: make([]byte, size)}, nil
}

// Registry dispatches allocations to kind-specific allocators.
type Registry struct {
	allocators map[types.MemoryKind]Allocator
}

// NewRegistry creates a registry with Host serving host-kind frames.
// Additional kinds are added with Register.
func NewRegistry() *Registry {
	return &Registry{allocators: map[types.MemoryKind]Allocator{
		types.MemoryHost: Host{},
	}}
}

// Register routes a kind to the given allocator, replacing any prior
// registration.
func (r *Registry) Register(kind types.MemoryKind, a Allocator) {
	r.allocators[kind] = a
}

// Allocate implements Allocator.
func (r *Registry) Allocate(kind types.MemoryKind, size uint64) (*Buffer, error) {
	a, ok := r.allocators[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no allocator registered for kind %s", types.ErrAllocation, kind)
	}
	return a.Allocate(kind, size)
}

// Limited caps the total bytes an inner allocator may hand out.
type Limited struct {
	inner Allocator
	max   int64
	used  atomic.Int64
}

// NewLimited wraps inner with a byte budget.
func NewLimited(inner Allocator, maxBytes int64) *Limited {
	return &Limited{inner: inner, max: maxBytes}
}

// Allocate implements Allocator, failing once the budget is exhausted.
func (l *Limited) Allocate(kind types.MemoryKind, size uint64) (*Buffer, error) {
	if newUsed := l.used.Add(int64(size)); newUsed > l.max {
		l.used.Add(-int64(size))
		return nil, fmt.Errorf("%w: %d bytes requested, %d of %d in use",
			types.ErrAllocation, size, newUsed-int64(size), l.max)
	}
	return l.inner.Allocate(kind, size)
}

// Release returns budget after a buffer is freed or handed off.
func (l *Limited) Release(size uint64) {
	l.used.Add(-int64(size))
}
