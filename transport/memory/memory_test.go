package memory

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/justapithecus/tram/transport"
)

const testTag = transport.Tag(0xfeed)

// waitComp blocks until a completion arrives or the test times out.
func waitComp(t *testing.T, ch <-chan transport.Completion) transport.Completion {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for completion")
		return transport.Completion{}
	}
}

func TestPair_SendBeforeRecv(t *testing.T) {
	a, b := NewPair(ModeBackground)
	defer a.Close()
	defer b.Close()

	sendDone := make(chan transport.Completion, 1)
	if _, err := a.SendAsync([]byte("hello"), testTag, func(c transport.Completion) {
		sendDone <- c
	}); err != nil {
		t.Fatalf("SendAsync failed: %v", err)
	}
	if c := waitComp(t, sendDone); c.Status != transport.StatusOK || c.N != 5 {
		t.Errorf("send completion = %+v, want OK/5", c)
	}

	buf := make([]byte, 5)
	recvDone := make(chan transport.Completion, 1)
	if _, err := b.RecvAsync(buf, testTag, func(c transport.Completion) {
		recvDone <- c
	}); err != nil {
		t.Fatalf("RecvAsync failed: %v", err)
	}
	if c := waitComp(t, recvDone); c.Status != transport.StatusOK || c.N != 5 {
		t.Errorf("recv completion = %+v, want OK/5", c)
	}
	if !bytes.Equal(buf, []byte("hello")) {
		t.Errorf("received %q, want %q", buf, "hello")
	}
}

func TestPair_RecvBeforeSend(t *testing.T) {
	a, b := NewPair(ModeBackground)
	defer a.Close()
	defer b.Close()

	buf := make([]byte, 16)
	recvDone := make(chan transport.Completion, 1)
	handle, err := b.RecvAsync(buf, testTag, func(c transport.Completion) {
		recvDone <- c
	})
	if err != nil {
		t.Fatalf("RecvAsync failed: %v", err)
	}
	if handle.Done() {
		t.Error("receive reported done before any send")
	}

	if _, err := a.SendAsync([]byte("payload"), testTag, nil); err != nil {
		t.Fatalf("SendAsync failed: %v", err)
	}
	if c := waitComp(t, recvDone); c.Status != transport.StatusOK || c.N != 7 {
		t.Errorf("recv completion = %+v, want OK/7", c)
	}
	if !bytes.Equal(buf[:7], []byte("payload")) {
		t.Errorf("received %q, want %q", buf[:7], "payload")
	}
	if !handle.Done() {
		t.Error("handle not done after completion")
	}
}

func TestPair_TagIsolation(t *testing.T) {
	a, b := NewPair(ModeBackground)
	defer a.Close()
	defer b.Close()

	otherDone := make(chan transport.Completion, 1)
	if _, err := b.RecvAsync(make([]byte, 8), transport.Tag(1), func(c transport.Completion) {
		otherDone <- c
	}); err != nil {
		t.Fatalf("RecvAsync failed: %v", err)
	}

	// A send on a different tag must not match the posted receive.
	if _, err := a.SendAsync([]byte("x"), transport.Tag(2), nil); err != nil {
		t.Fatalf("SendAsync failed: %v", err)
	}
	select {
	case c := <-otherDone:
		t.Fatalf("receive on tag 1 completed from send on tag 2: %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPair_Truncation(t *testing.T) {
	a, b := NewPair(ModeBackground)
	defer a.Close()
	defer b.Close()

	recvDone := make(chan transport.Completion, 1)
	if _, err := b.RecvAsync(make([]byte, 2), testTag, func(c transport.Completion) {
		recvDone <- c
	}); err != nil {
		t.Fatalf("RecvAsync failed: %v", err)
	}
	if _, err := a.SendAsync([]byte("too big"), testTag, nil); err != nil {
		t.Fatalf("SendAsync failed: %v", err)
	}

	c := waitComp(t, recvDone)
	if c.Status != transport.StatusError || !errors.Is(c.Err, transport.ErrTruncated) {
		t.Errorf("recv completion = %+v, want StatusError/ErrTruncated", c)
	}
}

func TestPair_ManualPump(t *testing.T) {
	a, b := NewPair(ModeManual)
	defer a.Close()
	defer b.Close()

	var recvFired bool
	buf := make([]byte, 4)
	if _, err := b.RecvAsync(buf, testTag, func(transport.Completion) {
		recvFired = true
	}); err != nil {
		t.Fatalf("RecvAsync failed: %v", err)
	}
	if _, err := a.SendAsync([]byte("ping"), testTag, nil); err != nil {
		t.Fatalf("SendAsync failed: %v", err)
	}

	// No background delivery: the callback must not fire until pumped.
	time.Sleep(20 * time.Millisecond)
	if recvFired {
		t.Fatal("callback fired without a pump in ModeManual")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.Pump(ctx); err != nil {
		t.Fatalf("Pump failed: %v", err)
	}
	if !recvFired {
		t.Error("callback did not fire after pump")
	}
	if !bytes.Equal(buf, []byte("ping")) {
		t.Errorf("received %q, want %q", buf, "ping")
	}
}

func TestPair_PumpRejectsBackgroundMode(t *testing.T) {
	a, b := NewPair(ModeBackground)
	defer a.Close()
	defer b.Close()

	if err := a.Pump(context.Background()); !errors.Is(err, transport.ErrBackgroundProgress) {
		t.Errorf("Pump error = %v, want ErrBackgroundProgress", err)
	}
}

func TestPair_CloseCancelsPosted(t *testing.T) {
	a, b := NewPair(ModeBackground)
	defer a.Close()

	recvDone := make(chan transport.Completion, 1)
	if _, err := b.RecvAsync(make([]byte, 4), testTag, func(c transport.Completion) {
		recvDone <- c
	}); err != nil {
		t.Fatalf("RecvAsync failed: %v", err)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if c := waitComp(t, recvDone); c.Status != transport.StatusCanceled {
		t.Errorf("recv completion = %+v, want StatusCanceled", c)
	}

	if _, err := b.RecvAsync(make([]byte, 4), testTag, nil); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("RecvAsync on closed endpoint = %v, want ErrClosed", err)
	}
}

func TestPair_SendToClosedPeer(t *testing.T) {
	a, b := NewPair(ModeBackground)
	defer a.Close()

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	sendDone := make(chan transport.Completion, 1)
	if _, err := a.SendAsync([]byte("x"), testTag, func(c transport.Completion) {
		sendDone <- c
	}); err != nil {
		t.Fatalf("SendAsync failed: %v", err)
	}
	if c := waitComp(t, sendDone); c.Status != transport.StatusError {
		t.Errorf("send completion = %+v, want StatusError", c)
	}
}
