package redis

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/justapithecus/tram/transport"
)

const testTag = transport.Tag(0x51)

// newTestEndpoint builds an endpoint against a miniredis server.
func newTestEndpoint(t *testing.T, mr *miniredis.Miniredis) *Endpoint {
	t.Helper()
	e, err := New(Config{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("new endpoint: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func waitComp(t *testing.T, ch <-chan transport.Completion) transport.Completion {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for completion")
		return transport.Completion{}
	}
}

func TestEndpoint_SendRecv(t *testing.T) {
	mr := miniredis.RunT(t)
	sender := newTestEndpoint(t, mr)
	receiver := newTestEndpoint(t, mr)

	buf := make([]byte, 16)
	recvDone := make(chan transport.Completion, 1)
	if _, err := receiver.RecvAsync(buf, testTag, func(c transport.Completion) {
		recvDone <- c
	}); err != nil {
		t.Fatalf("RecvAsync failed: %v", err)
	}

	sendDone := make(chan transport.Completion, 1)
	if _, err := sender.SendAsync([]byte("via broker"), testTag, func(c transport.Completion) {
		sendDone <- c
	}); err != nil {
		t.Fatalf("SendAsync failed: %v", err)
	}

	if c := waitComp(t, sendDone); c.Status != transport.StatusOK {
		t.Errorf("send completion = %+v, want OK", c)
	}
	c := waitComp(t, recvDone)
	if c.Status != transport.StatusOK || !bytes.Equal(buf[:c.N], []byte("via broker")) {
		t.Errorf("recv completion = %+v, buf %q", c, buf[:c.N])
	}
}

func TestEndpoint_SendBeforeRecv(t *testing.T) {
	mr := miniredis.RunT(t)
	sender := newTestEndpoint(t, mr)
	receiver := newTestEndpoint(t, mr)

	sendDone := make(chan transport.Completion, 1)
	if _, err := sender.SendAsync([]byte("queued"), testTag, func(c transport.Completion) {
		sendDone <- c
	}); err != nil {
		t.Fatalf("SendAsync failed: %v", err)
	}
	waitComp(t, sendDone)

	buf := make([]byte, 8)
	recvDone := make(chan transport.Completion, 1)
	if _, err := receiver.RecvAsync(buf, testTag, func(c transport.Completion) {
		recvDone <- c
	}); err != nil {
		t.Fatalf("RecvAsync failed: %v", err)
	}
	c := waitComp(t, recvDone)
	if c.Status != transport.StatusOK || !bytes.Equal(buf[:c.N], []byte("queued")) {
		t.Errorf("recv completion = %+v, buf %q", c, buf[:c.N])
	}
}

func TestEndpoint_OrderPreserved(t *testing.T) {
	mr := miniredis.RunT(t)
	sender := newTestEndpoint(t, mr)
	receiver := newTestEndpoint(t, mr)

	first := make([]byte, 1)
	second := make([]byte, 1)
	done := make(chan transport.Completion, 2)
	if _, err := receiver.RecvAsync(first, testTag, func(c transport.Completion) { done <- c }); err != nil {
		t.Fatalf("RecvAsync failed: %v", err)
	}
	if _, err := receiver.RecvAsync(second, testTag, func(c transport.Completion) { done <- c }); err != nil {
		t.Fatalf("RecvAsync failed: %v", err)
	}

	if _, err := sender.SendAsync([]byte{1}, testTag, nil); err != nil {
		t.Fatalf("SendAsync failed: %v", err)
	}
	if _, err := sender.SendAsync([]byte{2}, testTag, nil); err != nil {
		t.Fatalf("SendAsync failed: %v", err)
	}

	waitComp(t, done)
	waitComp(t, done)
	if first[0] != 1 || second[0] != 2 {
		t.Errorf("per-tag order broken: first=%d second=%d, want 1/2", first[0], second[0])
	}
}

func TestEndpoint_CloseCancelsPosted(t *testing.T) {
	mr := miniredis.RunT(t)
	receiver := newTestEndpoint(t, mr)

	recvDone := make(chan transport.Completion, 1)
	if _, err := receiver.RecvAsync(make([]byte, 4), testTag, func(c transport.Completion) {
		recvDone <- c
	}); err != nil {
		t.Fatalf("RecvAsync failed: %v", err)
	}

	if err := receiver.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if c := waitComp(t, recvDone); c.Status != transport.StatusCanceled {
		t.Errorf("recv completion = %+v, want StatusCanceled", c)
	}

	if _, err := receiver.SendAsync([]byte("x"), testTag, nil); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("SendAsync on closed endpoint = %v, want ErrClosed", err)
	}
}

func TestNew_InvalidURL(t *testing.T) {
	if _, err := New(Config{URL: "://bad"}); err == nil {
		t.Error("expected error for invalid URL")
	}
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for missing URL")
	}
}
