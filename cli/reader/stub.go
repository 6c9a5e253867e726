package reader

import "context"

// StubReader returns canned data for tests and offline rendering work.
type StubReader struct{}

// NewStubReader creates a stub reader.
func NewStubReader() *StubReader {
	return &StubReader{}
}

// ListTransfers implements Reader with fixed transfers.
func (*StubReader) ListTransfers(_ context.Context, limit int) ([]TransferSummary, error) {
	summaries := []TransferSummary{
		{
			TransferID: "stub-transfer-002",
			Tag:        "00000000000000ff",
			Status:     "ok",
			FrameCount: 3,
			Bytes:      3072,
			Ts:         "2026-02-07T12:05:00Z",
		},
		{
			TransferID: "stub-transfer-001",
			Tag:        "000000000000002a",
			Status:     "error",
			FrameCount: 1,
			Bytes:      128,
			Ts:         "2026-02-07T12:00:00Z",
		},
	}
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// InspectTransfer implements Reader with a fixed transfer.
func (*StubReader) InspectTransfer(_ context.Context, transferID string) (*InspectTransferResponse, error) {
	return &InspectTransferResponse{
		TransferID: transferID,
		Tag:        "00000000000000ff",
		Status:     "ok",
		Version:    "0.0.0",
		FrameCount: 2,
		Bytes:      1536,
		Ts:         "2026-02-07T12:05:00Z",
		Frames: []FrameDetail{
			{Index: 0, Kind: "host", Size: 512, File: "frame_0000.bin"},
			{Index: 1, Kind: "device", Size: 1024, File: "frame_0001.bin"},
		},
	}, nil
}

// Stats implements Reader with fixed counters.
func (*StubReader) Stats(context.Context) (*TransferStats, error) {
	return &TransferStats{Total: 2, OK: 1, Error: 1, Frames: 4, Bytes: 3200}, nil
}

var _ Reader = (*StubReader)(nil)
