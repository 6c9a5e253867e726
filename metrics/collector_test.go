package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("memory", "fs", "worker-1")

	c.IncSendStarted()
	c.IncRecvStarted()
	c.IncRecvStarted()
	c.IncTransferOK()
	c.IncTransferError()
	c.IncTransferError()
	c.IncTransferCanceled()
	c.AddHeaderSegmentsSent(3)
	c.IncHeaderSegmentReceived()
	c.AddFramesSent(5, 512)
	c.AddFrameReceived(128)
	c.AddFrameReceived(128)
	c.IncMalformedHeader()
	c.IncAllocFailure()
	c.IncStoreWriteSuccess()
	c.IncStoreWriteSuccess()
	c.IncStoreWriteFailure()

	s := c.Snapshot()

	if s.SendsStarted != 1 {
		t.Errorf("SendsStarted = %d, want 1", s.SendsStarted)
	}
	if s.RecvsStarted != 2 {
		t.Errorf("RecvsStarted = %d, want 2", s.RecvsStarted)
	}
	if s.TransfersOK != 1 {
		t.Errorf("TransfersOK = %d, want 1", s.TransfersOK)
	}
	if s.TransfersError != 2 {
		t.Errorf("TransfersError = %d, want 2", s.TransfersError)
	}
	if s.TransfersCanceled != 1 {
		t.Errorf("TransfersCanceled = %d, want 1", s.TransfersCanceled)
	}
	if s.HeaderSegmentsSent != 3 {
		t.Errorf("HeaderSegmentsSent = %d, want 3", s.HeaderSegmentsSent)
	}
	if s.HeaderSegmentsReceived != 1 {
		t.Errorf("HeaderSegmentsReceived = %d, want 1", s.HeaderSegmentsReceived)
	}
	if s.FramesSent != 5 {
		t.Errorf("FramesSent = %d, want 5", s.FramesSent)
	}
	if s.BytesSent != 512 {
		t.Errorf("BytesSent = %d, want 512", s.BytesSent)
	}
	if s.FramesReceived != 2 {
		t.Errorf("FramesReceived = %d, want 2", s.FramesReceived)
	}
	if s.BytesReceived != 256 {
		t.Errorf("BytesReceived = %d, want 256", s.BytesReceived)
	}
	if s.MalformedHeaders != 1 {
		t.Errorf("MalformedHeaders = %d, want 1", s.MalformedHeaders)
	}
	if s.AllocFailures != 1 {
		t.Errorf("AllocFailures = %d, want 1", s.AllocFailures)
	}
	if s.StoreWriteSuccess != 2 {
		t.Errorf("StoreWriteSuccess = %d, want 2", s.StoreWriteSuccess)
	}
	if s.StoreWriteFailure != 1 {
		t.Errorf("StoreWriteFailure = %d, want 1", s.StoreWriteFailure)
	}
}

func TestCollector_Dimensions(t *testing.T) {
	c := NewCollector("redis", "s3", "worker-42")
	s := c.Snapshot()

	if s.Transport != "redis" {
		t.Errorf("Transport = %q, want %q", s.Transport, "redis")
	}
	if s.StorageBackend != "s3" {
		t.Errorf("StorageBackend = %q, want %q", s.StorageBackend, "s3")
	}
	if s.WorkerID != "worker-42" {
		t.Errorf("WorkerID = %q, want %q", s.WorkerID, "worker-42")
	}
}

func TestCollector_SnapshotImmutability(t *testing.T) {
	c := NewCollector("memory", "fs", "worker-1")
	c.IncSendStarted()
	c.IncStoreWriteSuccess()

	s1 := c.Snapshot()

	c.IncTransferOK()
	c.IncStoreWriteSuccess()
	c.IncStoreWriteSuccess()

	if s1.TransfersOK != 0 {
		t.Errorf("s1.TransfersOK = %d, want 0 (snapshot should be frozen)", s1.TransfersOK)
	}
	if s1.StoreWriteSuccess != 1 {
		t.Errorf("s1.StoreWriteSuccess = %d, want 1 (snapshot should be frozen)", s1.StoreWriteSuccess)
	}

	s2 := c.Snapshot()
	if s2.TransfersOK != 1 {
		t.Errorf("s2.TransfersOK = %d, want 1", s2.TransfersOK)
	}
	if s2.StoreWriteSuccess != 3 {
		t.Errorf("s2.StoreWriteSuccess = %d, want 3", s2.StoreWriteSuccess)
	}
}

func TestCollector_NilReceiverSafety(t *testing.T) {
	var c *Collector

	// None of these should panic
	c.IncSendStarted()
	c.IncRecvStarted()
	c.IncTransferOK()
	c.IncTransferError()
	c.IncTransferCanceled()
	c.AddHeaderSegmentsSent(2)
	c.IncHeaderSegmentReceived()
	c.AddFramesSent(1, 10)
	c.AddFrameReceived(10)
	c.IncMalformedHeader()
	c.IncAllocFailure()
	c.IncStoreWriteSuccess()
	c.IncStoreWriteFailure()

	s := c.Snapshot()
	if s.SendsStarted != 0 {
		t.Errorf("nil collector snapshot SendsStarted = %d, want 0", s.SendsStarted)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector("memory", "fs", "worker-1")
	const goroutines = 10
	const iterations = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				c.IncSendStarted()
				c.AddFrameReceived(1)
				c.IncStoreWriteSuccess()
			}
		}()
	}

	wg.Wait()

	s := c.Snapshot()
	want := int64(goroutines * iterations)

	if s.SendsStarted != want {
		t.Errorf("SendsStarted = %d, want %d", s.SendsStarted, want)
	}
	if s.FramesReceived != want {
		t.Errorf("FramesReceived = %d, want %d", s.FramesReceived, want)
	}
	if s.BytesReceived != want {
		t.Errorf("BytesReceived = %d, want %d", s.BytesReceived, want)
	}
	if s.StoreWriteSuccess != want {
		t.Errorf("StoreWriteSuccess = %d, want %d", s.StoreWriteSuccess, want)
	}
}

func TestCollector_ZeroValueSnapshot(t *testing.T) {
	c := NewCollector("tcp", "fs", "worker-1")
	s := c.Snapshot()

	if s.SendsStarted != 0 || s.RecvsStarted != 0 || s.TransfersOK != 0 || s.TransfersError != 0 || s.TransfersCanceled != 0 {
		t.Error("fresh collector should have zero lifecycle counters")
	}
	if s.HeaderSegmentsSent != 0 || s.HeaderSegmentsReceived != 0 || s.FramesSent != 0 || s.FramesReceived != 0 {
		t.Error("fresh collector should have zero traffic counters")
	}
	if s.StoreWriteSuccess != 0 || s.StoreWriteFailure != 0 {
		t.Error("fresh collector should have zero store counters")
	}
}
