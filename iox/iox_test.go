package iox

import (
	"errors"
	"testing"
)

// errCloser always fails its Close call so the tests can verify the
// error is swallowed rather than propagated.
type errCloser struct{ calls int }

func (c *errCloser) Close() error {
	c.calls++
	return errors.New("close failed")
}

func TestDiscardClose(t *testing.T) {
	c := &errCloser{}
	DiscardClose(c)
	if c.calls != 1 {
		t.Fatalf("Close calls = %d, want 1", c.calls)
	}
}

func TestCloseFunc_DefersClose(t *testing.T) {
	c := &errCloser{}
	cleanup := CloseFunc(c)
	if c.calls != 0 {
		t.Fatal("CloseFunc must not close eagerly")
	}
	cleanup()
	cleanup()
	if c.calls != 2 {
		t.Fatalf("Close calls = %d, want 2", c.calls)
	}
}
