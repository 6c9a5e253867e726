package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/justapithecus/tram/adapter"
	"github.com/justapithecus/tram/iox"
)

func testEvent() *adapter.TransferCompletedEvent {
	return &adapter.TransferCompletedEvent{
		EventType:   "transfer_completed",
		TransferID:  "transfer-001",
		Tag:         "000000000000002a",
		Status:      "ok",
		FrameCount:  3,
		Bytes:       4096,
		StoragePath: "file:///var/lib/tram/transfers/transfer-001",
		Timestamp:   "2026-02-07T12:00:00Z",
		WorkerID:    "worker-1",
		DurationMs:  1500,
	}
}

// newAdapter spins up a test server with the given handler and returns
// an adapter pointed at it.
func newAdapter(t *testing.T, cfg Config, handler http.HandlerFunc) *Adapter {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	cfg.URL = ts.URL
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(iox.CloseFunc(a))
	return a
}

func TestPublish_Success(t *testing.T) {
	var received adapter.TransferCompletedEvent
	a := newAdapter(t, Config{Retries: 0}, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := a.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if received.TransferID != "transfer-001" {
		t.Errorf("expected transfer-001, got %s", received.TransferID)
	}
	if received.EventType != "transfer_completed" {
		t.Errorf("expected transfer_completed, got %s", received.EventType)
	}
	if received.Status != "ok" {
		t.Errorf("expected ok, got %s", received.Status)
	}
}

func TestPublish_CustomHeaders(t *testing.T) {
	var authHeader string
	a := newAdapter(t, Config{
		Headers: map[string]string{"Authorization": "Bearer test-token"},
		Retries: 0,
	}, func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	})

	if err := a.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if authHeader != "Bearer test-token" {
		t.Errorf("expected Bearer test-token, got %s", authHeader)
	}
}

func TestPublish_RetriesOnFailure(t *testing.T) {
	var attempts atomic.Int32
	a := newAdapter(t, Config{Retries: 3, Timeout: 5 * time.Second}, func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := a.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("publish should succeed after retries: %v", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestPublish_ContextCanceled(t *testing.T) {
	a := newAdapter(t, Config{Retries: 0, Timeout: 10 * time.Second}, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(5 * time.Second)
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := a.Publish(ctx, testEvent()); err == nil {
		t.Fatal("expected error on canceled context")
	}
}

// TestPublish_StatusHandling checks the retry policy per status class:
// 2xx succeeds, 4xx fails without retrying, 5xx retries to exhaustion.
func TestPublish_StatusHandling(t *testing.T) {
	tests := []struct {
		code         int
		wantErr      bool
		wantAttempts int32
	}{
		{200, false, 1},
		{201, false, 1},
		{204, false, 1},
		{400, true, 1},
		{401, true, 1},
		{404, true, 1},
		{500, true, 3},
		{502, true, 3},
		{503, true, 3},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			var attempts atomic.Int32
			a := newAdapter(t, Config{Retries: 2, Timeout: 5 * time.Second}, func(w http.ResponseWriter, _ *http.Request) {
				attempts.Add(1)
				w.WriteHeader(tt.code)
			})

			err := a.Publish(context.Background(), testEvent())
			if tt.wantErr && err == nil {
				t.Fatalf("expected error for %d", tt.code)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected success for %d, got %v", tt.code, err)
			}
			if got := attempts.Load(); got != tt.wantAttempts {
				t.Errorf("attempts for %d = %d, want %d", tt.code, got, tt.wantAttempts)
			}
		})
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty URL")
	}
	if _, err := New(Config{URL: "http://example.com", Retries: -1}); err == nil {
		t.Fatal("expected error for negative retries")
	}
}

func TestNew_Defaults(t *testing.T) {
	a, err := New(Config{URL: "http://example.com", Retries: 5})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if a.config.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, a.config.Timeout)
	}
	if a.config.Retries != 5 {
		t.Errorf("expected 5 retries, got %d", a.config.Retries)
	}
}
