// Package wire implements the header segment codec per PROTOCOL.md.
//
// A multi-part transfer is announced by one or more fixed-size header
// segments, each describing up to Codec.Capacity upcoming frames and
// chaining to the next segment via a continuation flag. The segment size
// is statically known: the receiver must post the header receive before
// it knows anything about the message.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/justapithecus/tram/types"
)

// HeaderFramesSize is the frame descriptor capacity of one header segment.
const HeaderFramesSize = 100

// Segment layout constants. All multi-byte fields are big-endian
// (network byte order).
const (
	// flagSize is the continuation flag width (1 byte, 0 or 1).
	flagSize = 1
	// countSize is the frame count width (uint32).
	countSize = 4
	// kindSize is one memory kind tag width (uint8).
	kindSize = 1
	// sizeSize is one frame size width (uint64).
	sizeSize = 8
)

// DefaultSegmentSize is the encoded size of one header segment at the
// default capacity.
const DefaultSegmentSize = flagSize + countSize + HeaderFramesSize*(kindSize+sizeSize)

// Header is one decoded header segment.
//
// Invariant: len(Kinds) == len(Sizes) == frame count. The encoded form
// always occupies the full segment size regardless of frame count;
// descriptor slots beyond the frame count are present but ignored.
type Header struct {
	// Next is true when another header segment follows before frame
	// data begins.
	Next bool
	// Kinds holds one memory kind tag per described frame.
	Kinds []types.MemoryKind
	// Sizes holds the byte length of each described frame.
	Sizes []uint64
}

// FrameCount returns the number of frames this segment describes.
func (h *Header) FrameCount() int { return len(h.Kinds) }

// Codec encodes and decodes header segments at a fixed descriptor
// capacity. Both peers of a transfer must use the same capacity.
type Codec struct {
	// Capacity is the maximum frame descriptors per segment (>= 1).
	Capacity int
}

// Default is the codec at the protocol's standard capacity.
var Default = Codec{Capacity: HeaderFramesSize}

// SegmentSize returns the fixed encoded size of one header segment.
func (c Codec) SegmentSize() int {
	return flagSize + countSize + c.Capacity*(kindSize+sizeSize)
}

// SegmentCount returns the number of header segments needed to describe
// totalFrames frames. A zero-frame transfer still needs one segment so
// the receiver can terminate.
func (c Codec) SegmentCount(totalFrames int) int {
	if totalFrames == 0 {
		return 1
	}
	return (totalFrames + c.Capacity - 1) / c.Capacity
}

// Encode serializes h into a freshly allocated segment buffer of exactly
// SegmentSize bytes. Unused descriptor slots are zero padding.
func (c Codec) Encode(h Header) ([]byte, error) {
	if c.Capacity < 1 {
		return nil, fmt.Errorf("%w: codec capacity must be >= 1, got %d", types.ErrInvalidArgument, c.Capacity)
	}
	if len(h.Kinds) != len(h.Sizes) {
		return nil, fmt.Errorf("%w: %d kinds but %d sizes", types.ErrInvalidArgument, len(h.Kinds), len(h.Sizes))
	}
	if len(h.Kinds) > c.Capacity {
		return nil, fmt.Errorf("%w: %d frames exceed segment capacity %d", types.ErrInvalidArgument, len(h.Kinds), c.Capacity)
	}

	buf := make([]byte, c.SegmentSize())
	if h.Next {
		buf[0] = 1
	}
	binary.BigEndian.PutUint32(buf[flagSize:], uint32(len(h.Kinds)))

	kinds := buf[flagSize+countSize:]
	sizes := buf[flagSize+countSize+c.Capacity*kindSize:]
	for i, k := range h.Kinds {
		if !k.Valid() {
			return nil, fmt.Errorf("%w: frame %d has unknown memory kind %d", types.ErrInvalidArgument, i, k)
		}
		kinds[i] = byte(k)
		binary.BigEndian.PutUint64(sizes[i*sizeSize:], h.Sizes[i])
	}
	return buf, nil
}

// Decode is the exact inverse of Encode for any buffer Encode produced.
// It fails with types.ErrMalformedHeader when buf is shorter than the
// fixed segment size or internally inconsistent.
func (c Codec) Decode(buf []byte) (Header, error) {
	if c.Capacity < 1 {
		return Header{}, fmt.Errorf("%w: codec capacity must be >= 1, got %d", types.ErrInvalidArgument, c.Capacity)
	}
	if len(buf) < c.SegmentSize() {
		return Header{}, fmt.Errorf("%w: segment is %d bytes, need %d", types.ErrMalformedHeader, len(buf), c.SegmentSize())
	}
	if buf[0] > 1 {
		return Header{}, fmt.Errorf("%w: continuation flag is %d", types.ErrMalformedHeader, buf[0])
	}

	nframes := int(binary.BigEndian.Uint32(buf[flagSize:]))
	if nframes > c.Capacity {
		return Header{}, fmt.Errorf("%w: frame count %d exceeds segment capacity %d", types.ErrMalformedHeader, nframes, c.Capacity)
	}

	h := Header{Next: buf[0] == 1}
	if nframes == 0 {
		return h, nil
	}

	kinds := buf[flagSize+countSize:]
	sizes := buf[flagSize+countSize+c.Capacity*kindSize:]
	h.Kinds = make([]types.MemoryKind, nframes)
	h.Sizes = make([]uint64, nframes)
	for i := 0; i < nframes; i++ {
		k := types.MemoryKind(kinds[i])
		if !k.Valid() {
			return Header{}, fmt.Errorf("%w: frame %d has unknown memory kind %d", types.ErrMalformedHeader, i, k)
		}
		h.Kinds[i] = k
		h.Sizes[i] = binary.BigEndian.Uint64(sizes[i*sizeSize:])
	}
	return h, nil
}

// Segments chunks parallel kind/size vectors into chained header
// segments: every segment except possibly the last is full, every
// segment except the last carries the continuation flag. Empty input
// yields a single terminating segment with zero frames.
func (c Codec) Segments(kinds []types.MemoryKind, sizes []uint64) ([]Header, error) {
	if c.Capacity < 1 {
		return nil, fmt.Errorf("%w: codec capacity must be >= 1, got %d", types.ErrInvalidArgument, c.Capacity)
	}
	if len(kinds) != len(sizes) {
		return nil, fmt.Errorf("%w: %d kinds but %d sizes", types.ErrInvalidArgument, len(kinds), len(sizes))
	}

	total := len(kinds)
	segments := make([]Header, 0, c.SegmentCount(total))
	for i := 0; i < c.SegmentCount(total); i++ {
		next := total > (i+1)*c.Capacity
		lo := i * c.Capacity
		hi := lo + c.Capacity
		if !next {
			hi = total
		}
		segments = append(segments, Header{
			Next:  next,
			Kinds: kinds[lo:hi],
			Sizes: sizes[lo:hi],
		})
	}
	return segments, nil
}
