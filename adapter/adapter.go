// Package adapter defines the transfer-event adapter boundary.
//
// Adapters publish transfer completion notifications to downstream
// systems. The worker owns adapter lifecycle; users provide
// configuration only.
package adapter

import "context"

// TransferCompletedEvent is the payload published when a transfer
// reaches a terminal status.
type TransferCompletedEvent struct {
	EventType   string `json:"event_type"` // always "transfer_completed"
	TransferID  string `json:"transfer_id"`
	Tag         string `json:"tag"`
	Status      string `json:"status"` // ok, canceled, error
	FrameCount  int    `json:"frame_count"`
	Bytes       uint64 `json:"bytes"`
	StoragePath string `json:"storage_path,omitempty"`
	Timestamp   string `json:"timestamp"` // ISO 8601
	WorkerID    string `json:"worker_id,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
}

// Adapter publishes transfer completion events to a downstream system.
type Adapter interface {
	// Publish sends a transfer completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *TransferCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
