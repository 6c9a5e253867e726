package wire

import (
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/justapithecus/tram/types"
)

func TestCodec_SegmentSize(t *testing.T) {
	if got := Default.SegmentSize(); got != DefaultSegmentSize {
		t.Errorf("Default.SegmentSize() = %d, want %d", got, DefaultSegmentSize)
	}
	// 1 flag + 4 count + N kind bytes + 8N size bytes
	if got := (Codec{Capacity: 1}).SegmentSize(); got != 14 {
		t.Errorf("SegmentSize(capacity=1) = %d, want 14", got)
	}
}

func TestCodec_SegmentCount(t *testing.T) {
	tests := []struct {
		capacity    int
		totalFrames int
		want        int
	}{
		{100, 0, 1},
		{100, 1, 1},
		{100, 100, 1},
		{100, 101, 2},
		{100, 200, 2},
		{100, 201, 3},
		{1, 0, 1},
		{1, 3, 3},
		{4, 9, 3},
	}
	for _, tt := range tests {
		c := Codec{Capacity: tt.capacity}
		if got := c.SegmentCount(tt.totalFrames); got != tt.want {
			t.Errorf("Codec{%d}.SegmentCount(%d) = %d, want %d",
				tt.capacity, tt.totalFrames, got, tt.want)
		}
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		header Header
	}{
		{"empty terminating", Header{}},
		{"single host frame", Header{
			Kinds: []types.MemoryKind{types.MemoryHost},
			Sizes: []uint64{10},
		}},
		{"mixed kinds with continuation", Header{
			Next:  true,
			Kinds: []types.MemoryKind{types.MemoryHost, types.MemoryDevice, types.MemoryHost},
			Sizes: []uint64{0, 1 << 40, 42},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := Default.Encode(tt.header)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if len(buf) != Default.SegmentSize() {
				t.Fatalf("encoded size = %d, want %d", len(buf), Default.SegmentSize())
			}
			got, err := Default.Decode(buf)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.header) {
				t.Errorf("round trip mismatch: got %+v, want %+v", got, tt.header)
			}
		})
	}
}

func TestCodec_RoundTrip_FullSegment(t *testing.T) {
	h := Header{Next: true}
	for i := 0; i < HeaderFramesSize; i++ {
		h.Kinds = append(h.Kinds, types.MemoryKind(i%2))
		h.Sizes = append(h.Sizes, uint64(i)*1000)
	}
	buf, err := Default.Encode(h)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Default.Decode(buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !reflect.DeepEqual(got, h) {
		t.Error("full segment round trip mismatch")
	}
}

func TestCodec_Encode_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		header Header
	}{
		{"mismatched vectors", Header{
			Kinds: []types.MemoryKind{types.MemoryHost, types.MemoryHost},
			Sizes: []uint64{1},
		}},
		{"over capacity", Header{
			Kinds: make([]types.MemoryKind, HeaderFramesSize+1),
			Sizes: make([]uint64, HeaderFramesSize+1),
		}},
		{"unknown kind", Header{
			Kinds: []types.MemoryKind{types.MemoryKind(7)},
			Sizes: []uint64{1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Default.Encode(tt.header); !errors.Is(err, types.ErrInvalidArgument) {
				t.Errorf("Encode error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestCodec_Decode_Malformed(t *testing.T) {
	valid, err := Default.Encode(Header{
		Kinds: []types.MemoryKind{types.MemoryHost},
		Sizes: []uint64{5},
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	t.Run("truncated", func(t *testing.T) {
		if _, err := Default.Decode(valid[:len(valid)-1]); !errors.Is(err, types.ErrMalformedHeader) {
			t.Errorf("Decode error = %v, want ErrMalformedHeader", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := Default.Decode(nil); !errors.Is(err, types.ErrMalformedHeader) {
			t.Errorf("Decode error = %v, want ErrMalformedHeader", err)
		}
	})

	t.Run("frame count over capacity", func(t *testing.T) {
		buf := make([]byte, Default.SegmentSize())
		binary.BigEndian.PutUint32(buf[1:], HeaderFramesSize+1)
		if _, err := Default.Decode(buf); !errors.Is(err, types.ErrMalformedHeader) {
			t.Errorf("Decode error = %v, want ErrMalformedHeader", err)
		}
	})

	t.Run("bad continuation flag", func(t *testing.T) {
		buf := make([]byte, Default.SegmentSize())
		buf[0] = 2
		if _, err := Default.Decode(buf); !errors.Is(err, types.ErrMalformedHeader) {
			t.Errorf("Decode error = %v, want ErrMalformedHeader", err)
		}
	})

	t.Run("bad kind byte", func(t *testing.T) {
		bad := make([]byte, len(valid))
		copy(bad, valid)
		bad[5] = 9 // first kind slot
		if _, err := Default.Decode(bad); !errors.Is(err, types.ErrMalformedHeader) {
			t.Errorf("Decode error = %v, want ErrMalformedHeader", err)
		}
	})

	t.Run("well-formed never fails", func(t *testing.T) {
		if _, err := Default.Decode(valid); err != nil {
			t.Errorf("Decode of valid segment failed: %v", err)
		}
	})
}

func TestCodec_Segments(t *testing.T) {
	kinds := make([]types.MemoryKind, 0, 250)
	sizes := make([]uint64, 0, 250)
	for i := 0; i < 250; i++ {
		kinds = append(kinds, types.MemoryKind(i%2))
		sizes = append(sizes, uint64(i))
	}

	segs, err := Default.Segments(kinds, sizes)
	if err != nil {
		t.Fatalf("Segments failed: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}
	for i, s := range segs {
		wantNext := i < 2
		if s.Next != wantNext {
			t.Errorf("segment %d Next = %v, want %v", i, s.Next, wantNext)
		}
	}
	if segs[0].FrameCount() != 100 || segs[1].FrameCount() != 100 || segs[2].FrameCount() != 50 {
		t.Errorf("frame counts = %d/%d/%d, want 100/100/50",
			segs[0].FrameCount(), segs[1].FrameCount(), segs[2].FrameCount())
	}

	// Concatenating the segments reproduces the input order.
	var gotKinds []types.MemoryKind
	var gotSizes []uint64
	for _, s := range segs {
		gotKinds = append(gotKinds, s.Kinds...)
		gotSizes = append(gotSizes, s.Sizes...)
	}
	if !reflect.DeepEqual(gotKinds, kinds) || !reflect.DeepEqual(gotSizes, sizes) {
		t.Error("segment concatenation does not reproduce input vectors")
	}
}

func TestCodec_Segments_Empty(t *testing.T) {
	segs, err := Default.Segments(nil, nil)
	if err != nil {
		t.Fatalf("Segments failed: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	if segs[0].Next || segs[0].FrameCount() != 0 {
		t.Errorf("zero-frame segment = %+v, want terminating empty segment", segs[0])
	}
}

func TestCodec_Segments_Mismatch(t *testing.T) {
	_, err := Default.Segments(
		[]types.MemoryKind{types.MemoryHost, types.MemoryHost, types.MemoryHost},
		[]uint64{1, 2},
	)
	if !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("Segments error = %v, want ErrInvalidArgument", err)
	}
}

func TestCodec_Segments_CapacityOne(t *testing.T) {
	c := Codec{Capacity: 1}
	segs, err := c.Segments(
		[]types.MemoryKind{types.MemoryHost, types.MemoryDevice},
		[]uint64{10, 20},
	)
	if err != nil {
		t.Fatalf("Segments failed: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if !segs[0].Next || segs[1].Next {
		t.Errorf("continuation flags = %v/%v, want true/false", segs[0].Next, segs[1].Next)
	}
	if segs[0].Kinds[0] != types.MemoryHost || segs[0].Sizes[0] != 10 {
		t.Errorf("segment 0 = %+v, want host/10", segs[0])
	}
	if segs[1].Kinds[0] != types.MemoryDevice || segs[1].Sizes[0] != 20 {
		t.Errorf("segment 1 = %+v, want device/20", segs[1])
	}
}
