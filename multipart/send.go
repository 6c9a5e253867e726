package multipart

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/justapithecus/tram/transport"
	"github.com/justapithecus/tram/types"
)

// Send submits frames as one multi-part transfer under tag. frames and
// kinds are parallel vectors; a length mismatch or an unknown kind
// fails with types.ErrInvalidArgument before anything touches the
// transport. Zero frames is a valid degenerate transfer: a single
// terminating header segment is still sent so the peer can finish.
//
// The caller's frame buffers are borrowed until the transfer reaches a
// terminal status.
func Send(ep transport.Endpoint, tag transport.Tag, frames [][]byte, kinds []types.MemoryKind, opts ...Option) (*Request, error) {
	if len(frames) != len(kinds) {
		return nil, fmt.Errorf("%w: %d frames but %d memory kinds", types.ErrInvalidArgument, len(frames), len(kinds))
	}

	r := newRequest(types.DirSend, ep, tag, opts)
	r.totalFrames = len(frames)

	sizes := make([]uint64, len(frames))
	for i, f := range frames {
		sizes[i] = uint64(len(f))
	}

	// Encode every header segment before the first submission so an
	// invalid input cannot leave a partially sent transfer behind.
	segments, err := r.codec.Segments(kinds, sizes)
	if err != nil {
		return nil, err
	}
	payloads := make([][]byte, len(segments))
	for i, seg := range segments {
		payloads[i], err = r.codec.Encode(seg)
		if err != nil {
			return nil, err
		}
	}

	r.collector.IncSendStarted()
	r.logger.Debug("sending transfer",
		zap.Int("frames", len(frames)),
		zap.Int("header_segments", len(payloads)),
	)

	for i, payload := range payloads {
		if !r.submitHeaderSend(i, payload) {
			return r, nil
		}
	}
	r.collector.AddHeaderSegmentsSent(len(payloads))

	var bytes int64
	for i, frame := range frames {
		if !r.submitFrameSend(i, frame) {
			return r, nil
		}
		bytes += int64(len(frame))
	}
	r.collector.AddFramesSent(len(frames), bytes)

	r.markFilled()
	return r, nil
}

// submitHeaderSend sends one encoded header segment. Returns false when
// the submission failed and the request has been marked terminal;
// transport-level failures surface through status, not a return value.
func (r *Request) submitHeaderSend(index int, payload []byte) bool {
	s := &SubRequest{Kind: SubHeader, Index: index, payload: payload}
	r.addSub(s)

	h, err := r.ep.SendAsync(payload, r.tag, func(c transport.Completion) {
		r.headerCompleted(s, c)
	})
	if err != nil {
		r.submitFailed(err)
		return false
	}
	s.Handle = h
	return true
}

// submitFrameSend sends one caller-owned frame buffer.
func (r *Request) submitFrameSend(index int, frame []byte) bool {
	s := &SubRequest{Kind: SubFrame, Index: index}
	r.addSub(s)

	h, err := r.ep.SendAsync(frame, r.tag, func(c transport.Completion) {
		r.frameCompleted(s, c)
	})
	if err != nil {
		r.submitFailed(err)
		return false
	}
	s.Handle = h
	return true
}

// submitFailed records a synchronous submission error as the transfer
// outcome. Sub-requests already in flight keep their callbacks; they
// complete against an already-terminal request.
func (r *Request) submitFailed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failLocked(types.StatusError, fmt.Errorf("%w: %v", types.ErrTransport, err))
}
