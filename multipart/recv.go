package multipart

import (
	"go.uber.org/zap"

	"github.com/justapithecus/tram/alloc"
	"github.com/justapithecus/tram/transport"
	"github.com/justapithecus/tram/types"
)

// Recv posts a multi-part receive under tag. The frame list is unknown
// up front: the receiver posts one fixed-size header receive, decodes
// it, chains to the next segment while the continuation flag is set,
// then allocates a buffer per described frame and posts a receive into
// each. The request reaches Ok once every described frame has arrived;
// take the result with Buffers.
func Recv(ep transport.Endpoint, tag transport.Tag, opts ...Option) (*Request, error) {
	r := newRequest(types.DirRecv, ep, tag, opts)

	r.collector.IncRecvStarted()
	r.logger.Debug("receiving transfer")

	r.postHeaderRecv(0)
	return r, nil
}

// postHeaderRecv posts the fixed-size receive for header segment index.
// The segment size is statically known, which is what lets the receiver
// post before learning anything about the message.
func (r *Request) postHeaderRecv(index int) {
	s := &SubRequest{
		Kind:    SubHeader,
		Index:   index,
		payload: make([]byte, r.codec.SegmentSize()),
	}
	r.addSub(s)

	h, err := r.ep.RecvAsync(s.payload, r.tag, func(c transport.Completion) {
		r.headerReceived(s, c)
	})
	if err != nil {
		r.submitFailed(err)
		return
	}
	s.Handle = h
}

// headerReceived decodes one arrived header segment and advances the
// state machine: chain to the next segment, or allocate and post the
// frame receives. Runs on a transport goroutine.
func (r *Request) headerReceived(s *SubRequest, c transport.Completion) {
	if !r.headerCompleted(s, c) {
		return
	}

	header, err := r.codec.Decode(s.payload)
	if err != nil {
		r.collector.IncMalformedHeader()
		r.mu.Lock()
		r.failLocked(types.StatusError, err)
		r.mu.Unlock()
		return
	}
	r.collector.IncHeaderSegmentReceived()

	// Descriptor order across segments decides which slot each frame
	// receive fills, so accumulation must preserve arrival order.
	r.mu.Lock()
	r.kinds = append(r.kinds, header.Kinds...)
	r.sizes = append(r.sizes, header.Sizes...)
	r.totalFrames += header.FrameCount()
	r.mu.Unlock()

	r.logger.Debug("header segment decoded",
		zap.Int("segment", s.Index),
		zap.Int("frames", header.FrameCount()),
		zap.Bool("continuation", header.Next),
	)

	if header.Next {
		r.postHeaderRecv(s.Index + 1)
		return
	}
	r.postFrameRecvs()
}

// postFrameRecvs allocates one buffer per described frame and posts the
// frame receives, in descriptor order. Frames may complete while later
// ones are still being posted; the filled flag keeps the terminal check
// honest through that window.
func (r *Request) postFrameRecvs() {
	r.mu.Lock()
	kinds := r.kinds
	sizes := r.sizes
	r.buffers = make([]*alloc.Buffer, len(kinds))
	r.mu.Unlock()

	for i := range kinds {
		buf, err := r.allocator.Allocate(kinds[i], sizes[i])
		if err != nil {
			r.collector.IncAllocFailure()
			r.mu.Lock()
			r.failLocked(types.StatusError, err)
			r.mu.Unlock()
			return
		}

		s := &SubRequest{Kind: SubFrame, Index: i, buffer: buf}
		r.addSub(s)
		r.mu.Lock()
		r.buffers[i] = buf
		r.mu.Unlock()

		h, err := r.ep.RecvAsync(buf.Data, r.tag, func(c transport.Completion) {
			if c.Status == transport.StatusOK {
				r.collector.AddFrameReceived(int64(c.N))
			}
			r.frameCompleted(s, c)
		})
		if err != nil {
			r.submitFailed(err)
			return
		}
		s.Handle = h
	}

	r.markFilled()
}
