package alloc

import (
	"errors"
	"testing"

	"github.com/justapithecus/tram/types"
)

func TestHost_Allocate(t *testing.T) {
	b, err := Host{}.Allocate(types.MemoryHost, 128)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if b.Kind != types.MemoryHost || b.Size() != 128 {
		t.Errorf("buffer = kind %s size %d, want host/128", b.Kind, b.Size())
	}
}

func TestHost_UnknownKind(t *testing.T) {
	if _, err := (Host{}).Allocate(types.MemoryKind(9), 1); !errors.Is(err, types.ErrAllocation) {
		t.Errorf("Allocate error = %v, want ErrAllocation", err)
	}
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry()

	// Host kind is pre-registered.
	if _, err := r.Allocate(types.MemoryHost, 16); err != nil {
		t.Fatalf("Allocate host failed: %v", err)
	}

	// Device kind is not registered by default.
	if _, err := r.Allocate(types.MemoryDevice, 16); !errors.Is(err, types.ErrAllocation) {
		t.Errorf("Allocate device error = %v, want ErrAllocation", err)
	}

	r.Register(types.MemoryDevice, Host{})
	b, err := r.Allocate(types.MemoryDevice, 16)
	if err != nil {
		t.Fatalf("Allocate device after Register failed: %v", err)
	}
	if b.Kind != types.MemoryDevice {
		t.Errorf("buffer kind = %s, want device", b.Kind)
	}
}

func TestLimited_Budget(t *testing.T) {
	l := NewLimited(Host{}, 100)

	if _, err := l.Allocate(types.MemoryHost, 60); err != nil {
		t.Fatalf("first Allocate failed: %v", err)
	}
	if _, err := l.Allocate(types.MemoryHost, 60); !errors.Is(err, types.ErrAllocation) {
		t.Errorf("over-budget Allocate error = %v, want ErrAllocation", err)
	}

	// A failed allocation must not consume budget.
	if _, err := l.Allocate(types.MemoryHost, 40); err != nil {
		t.Errorf("Allocate within remaining budget failed: %v", err)
	}

	l.Release(60)
	if _, err := l.Allocate(types.MemoryHost, 60); err != nil {
		t.Errorf("Allocate after Release failed: %v", err)
	}
}
