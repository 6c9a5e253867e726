// Package metrics provides per-worker transfer metrics collection.
//
// The Collector accumulates counters while a worker is running. It is a
// leaf package with no internal dependencies. All increment methods are
// nil-receiver safe so callers can skip wiring a collector entirely.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all transfer metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Transfer lifecycle
	SendsStarted      int64
	RecvsStarted      int64
	TransfersOK       int64
	TransfersError    int64
	TransfersCanceled int64

	// Protocol traffic
	HeaderSegmentsSent     int64
	HeaderSegmentsReceived int64
	FramesSent             int64
	FramesReceived         int64
	BytesSent              int64
	BytesReceived          int64

	// Failure detail
	MalformedHeaders int64
	AllocFailures    int64

	// Storage
	StoreWriteSuccess int64
	StoreWriteFailure int64

	// Dimensions (informational, set at construction)
	Transport      string
	StorageBackend string
	WorkerID       string
}

// Collector accumulates metrics for one worker.
// Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	sendsStarted      int64
	recvsStarted      int64
	transfersOK       int64
	transfersError    int64
	transfersCanceled int64

	headerSegmentsSent     int64
	headerSegmentsReceived int64
	framesSent             int64
	framesReceived         int64
	bytesSent              int64
	bytesReceived          int64

	malformedHeaders int64
	allocFailures    int64

	storeWriteSuccess int64
	storeWriteFailure int64

	transport      string
	storageBackend string
	workerID       string
}

// NewCollector creates a Collector with dimension labels. transport names
// the endpoint backend (memory, tcp, redis); storageBackend and workerID
// are optional dimensions.
func NewCollector(transport, storageBackend, workerID string) *Collector {
	return &Collector{
		transport:      transport,
		storageBackend: storageBackend,
		workerID:       workerID,
	}
}

// --- Transfer lifecycle ---

// IncSendStarted records a send transfer submission.
func (c *Collector) IncSendStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sendsStarted++
	c.mu.Unlock()
}

// IncRecvStarted records a receive transfer submission.
func (c *Collector) IncRecvStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.recvsStarted++
	c.mu.Unlock()
}

// IncTransferOK records a transfer reaching Ok.
func (c *Collector) IncTransferOK() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.transfersOK++
	c.mu.Unlock()
}

// IncTransferError records a transfer reaching Error.
func (c *Collector) IncTransferError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.transfersError++
	c.mu.Unlock()
}

// IncTransferCanceled records a transfer reaching Canceled.
func (c *Collector) IncTransferCanceled() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.transfersCanceled++
	c.mu.Unlock()
}

// --- Protocol traffic ---

// AddHeaderSegmentsSent records n header segment sends.
func (c *Collector) AddHeaderSegmentsSent(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.headerSegmentsSent += int64(n)
	c.mu.Unlock()
}

// IncHeaderSegmentReceived records one decoded header segment.
func (c *Collector) IncHeaderSegmentReceived() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.headerSegmentsReceived++
	c.mu.Unlock()
}

// AddFramesSent records n frame sends totaling bytes payload bytes.
func (c *Collector) AddFramesSent(n int, bytes int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.framesSent += int64(n)
	c.bytesSent += bytes
	c.mu.Unlock()
}

// AddFrameReceived records one completed frame receive of the given size.
func (c *Collector) AddFrameReceived(bytes int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.framesReceived++
	c.bytesReceived += bytes
	c.mu.Unlock()
}

// --- Failure detail ---

// IncMalformedHeader records a header segment that failed decoding.
func (c *Collector) IncMalformedHeader() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.malformedHeaders++
	c.mu.Unlock()
}

// IncAllocFailure records a frame buffer allocation failure.
func (c *Collector) IncAllocFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.allocFailures++
	c.mu.Unlock()
}

// --- Storage ---
// Store counters are per-transfer, not per-frame. Writing one received
// transfer with N frames counts as 1 success.

// IncStoreWriteSuccess records a successful transfer store write.
func (c *Collector) IncStoreWriteSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.storeWriteSuccess++
	c.mu.Unlock()
}

// IncStoreWriteFailure records a failed transfer store write.
func (c *Collector) IncStoreWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.storeWriteFailure++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		SendsStarted:      c.sendsStarted,
		RecvsStarted:      c.recvsStarted,
		TransfersOK:       c.transfersOK,
		TransfersError:    c.transfersError,
		TransfersCanceled: c.transfersCanceled,

		HeaderSegmentsSent:     c.headerSegmentsSent,
		HeaderSegmentsReceived: c.headerSegmentsReceived,
		FramesSent:             c.framesSent,
		FramesReceived:         c.framesReceived,
		BytesSent:              c.bytesSent,
		BytesReceived:          c.bytesReceived,

		MalformedHeaders: c.malformedHeaders,
		AllocFailures:    c.allocFailures,

		StoreWriteSuccess: c.storeWriteSuccess,
		StoreWriteFailure: c.storeWriteFailure,

		Transport:      c.transport,
		StorageBackend: c.storageBackend,
		WorkerID:       c.workerID,
	}
}
