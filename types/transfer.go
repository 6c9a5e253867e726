package types

// ManifestName is the manifest filename written alongside stored frames.
const ManifestName = "manifest.json"

// FrameMeta describes one stored frame within a transfer manifest.
type FrameMeta struct {
	// Index is the frame's position within the transfer, starting at 0.
	Index int `json:"index"`
	// Kind is the frame's memory kind name ("host" or "device").
	Kind string `json:"kind"`
	// Size is the frame's byte length.
	Size uint64 `json:"size"`
	// File is the frame's filename relative to the transfer prefix.
	File string `json:"file"`
}

// Manifest records a completed transfer as persisted by the store.
// The manifest is JSON so stored transfers stay inspectable with
// standard tooling; see PROTOCOL.md.
type Manifest struct {
	// Version is the manifest format version (lockstep with Version).
	Version string `json:"version"`
	// TransferID is the unique identifier assigned to the transfer.
	TransferID string `json:"transfer_id"`
	// Tag is the transport tag the transfer ran on, in hex.
	Tag string `json:"tag"`
	// Status is the terminal transfer status name.
	Status string `json:"status"`
	// FrameCount is the number of frames in the transfer.
	FrameCount int `json:"frame_count"`
	// Bytes is the total payload size across all frames.
	Bytes uint64 `json:"bytes"`
	// Ts is the completion timestamp in ISO 8601 UTC format.
	Ts string `json:"ts"`
	// Frames describes each stored frame in transfer order.
	Frames []FrameMeta `json:"frames"`
}
