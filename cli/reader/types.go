// Package reader provides the read-side data access layer for the tram
// CLI. All read-only commands (list, inspect, stats) go through Reader
// so they never touch transports or in-flight transfers.
package reader

// TransferSummary is the thin slice returned by list operations.
type TransferSummary struct {
	TransferID string `json:"transfer_id"`
	Tag        string `json:"tag"`
	Status     string `json:"status"`
	FrameCount int    `json:"frame_count"`
	Bytes      uint64 `json:"bytes"`
	Ts         string `json:"ts"`
}

// FrameDetail describes one stored frame in an inspect response.
type FrameDetail struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Size  uint64 `json:"size"`
	File  string `json:"file"`
}

// InspectTransferResponse is the full detail view of one stored transfer.
type InspectTransferResponse struct {
	TransferID string        `json:"transfer_id"`
	Tag        string        `json:"tag"`
	Status     string        `json:"status"`
	Version    string        `json:"version"`
	FrameCount int           `json:"frame_count"`
	Bytes      uint64        `json:"bytes"`
	Ts         string        `json:"ts"`
	Frames     []FrameDetail `json:"frames"`
}

// TransferStats aggregates over all stored transfers.
type TransferStats struct {
	Total    int    `json:"total"`
	OK       int    `json:"ok"`
	Canceled int    `json:"canceled"`
	Error    int    `json:"error"`
	Frames   int    `json:"frames"`
	Bytes    uint64 `json:"bytes"`
}
