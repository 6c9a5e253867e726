package reader

import (
	"context"
	"fmt"

	"github.com/justapithecus/tram/store"
	"github.com/justapithecus/tram/types"
)

// Reader abstracts read-only access to stored transfers.
type Reader interface {
	// ListTransfers returns summaries of all stored transfers, newest
	// first. limit 0 means no limit.
	ListTransfers(ctx context.Context, limit int) ([]TransferSummary, error)
	// InspectTransfer returns the full detail of one stored transfer.
	InspectTransfer(ctx context.Context, transferID string) (*InspectTransferResponse, error)
	// Stats aggregates over all stored transfers.
	Stats(ctx context.Context) (*TransferStats, error)
}

// StoreReader reads transfers from a store backend.
type StoreReader struct {
	s store.Store
}

// NewStoreReader wraps a store in a Reader.
func NewStoreReader(s store.Store) *StoreReader {
	return &StoreReader{s: s}
}

// ListTransfers implements Reader.
func (r *StoreReader) ListTransfers(ctx context.Context, limit int) ([]TransferSummary, error) {
	manifests, err := store.ListTransfers(ctx, r.s)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(manifests) > limit {
		manifests = manifests[:limit]
	}

	summaries := make([]TransferSummary, len(manifests))
	for i, m := range manifests {
		summaries[i] = summarize(m)
	}
	return summaries, nil
}

// InspectTransfer implements Reader.
func (r *StoreReader) InspectTransfer(ctx context.Context, transferID string) (*InspectTransferResponse, error) {
	m, err := store.ReadManifest(ctx, r.s, transferID)
	if err != nil {
		return nil, fmt.Errorf("transfer %s: %w", transferID, err)
	}

	resp := &InspectTransferResponse{
		TransferID: m.TransferID,
		Tag:        m.Tag,
		Status:     m.Status,
		Version:    m.Version,
		FrameCount: m.FrameCount,
		Bytes:      m.Bytes,
		Ts:         m.Ts,
		Frames:     make([]FrameDetail, len(m.Frames)),
	}
	for i, f := range m.Frames {
		resp.Frames[i] = FrameDetail{Index: f.Index, Kind: f.Kind, Size: f.Size, File: f.File}
	}
	return resp, nil
}

// Stats implements Reader.
func (r *StoreReader) Stats(ctx context.Context) (*TransferStats, error) {
	manifests, err := store.ListTransfers(ctx, r.s)
	if err != nil {
		return nil, err
	}

	stats := &TransferStats{Total: len(manifests)}
	for _, m := range manifests {
		switch m.Status {
		case types.StatusOK.String():
			stats.OK++
		case types.StatusCanceled.String():
			stats.Canceled++
		default:
			stats.Error++
		}
		stats.Frames += m.FrameCount
		stats.Bytes += m.Bytes
	}
	return stats, nil
}

func summarize(m types.Manifest) TransferSummary {
	return TransferSummary{
		TransferID: m.TransferID,
		Tag:        m.Tag,
		Status:     m.Status,
		FrameCount: m.FrameCount,
		Bytes:      m.Bytes,
		Ts:         m.Ts,
	}
}

var _ Reader = (*StoreReader)(nil)
