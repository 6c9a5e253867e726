// Package store persists completed transfers: one manifest.json plus
// one file per frame under a transfer-id prefix. Backends share a small
// key/value Store interface; Dir writes to the local filesystem, S3
// writes to an S3-compatible bucket, Mem backs tests.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/justapithecus/tram/alloc"
	"github.com/justapithecus/tram/multipart"
	"github.com/justapithecus/tram/types"
)

// ErrNotFound is returned when a requested key does not exist.
var ErrNotFound = errors.New("store: key not found")

// Store is a flat key/value blob store. Keys use forward slashes on
// every backend.
type Store interface {
	// Put writes data under key, replacing any existing value.
	Put(ctx context.Context, key string, data []byte) error
	// Get reads the value under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns all keys under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Close releases backend resources.
	Close() error
}

// transfersPrefix is the key namespace for stored transfers.
const transfersPrefix = "transfers"

// TransferKey returns the key prefix for one stored transfer.
func TransferKey(transferID string) string {
	return path.Join(transfersPrefix, transferID)
}

// frameFile names the stored file for frame index.
func frameFile(index int) string {
	return fmt.Sprintf("frame_%04d.bin", index)
}

// WriteTransfer persists a completed receive: every frame buffer under
// its own file, then the manifest last. The manifest landing last means
// a transfer listed by ReadManifests is always fully written.
func WriteTransfer(ctx context.Context, s Store, r *multipart.Request) (types.Manifest, error) {
	bufs, err := r.Buffers()
	if err != nil {
		return types.Manifest{}, err
	}
	return writeBuffers(ctx, s, r.ID(), r.Tag().String(), r.Status().String(), bufs)
}

func writeBuffers(ctx context.Context, s Store, id, tag, status string, bufs []*alloc.Buffer) (types.Manifest, error) {
	m := types.Manifest{
		Version:    types.Version,
		TransferID: id,
		Tag:        tag,
		Status:     status,
		FrameCount: len(bufs),
		Ts:         time.Now().UTC().Format(time.RFC3339),
		Frames:     make([]types.FrameMeta, len(bufs)),
	}

	prefix := TransferKey(id)
	for i, buf := range bufs {
		name := frameFile(i)
		if err := s.Put(ctx, path.Join(prefix, name), buf.Data); err != nil {
			return types.Manifest{}, fmt.Errorf("store frame %d: %w", i, err)
		}
		m.Bytes += buf.Size()
		m.Frames[i] = types.FrameMeta{
			Index: i,
			Kind:  buf.Kind.String(),
			Size:  buf.Size(),
			File:  name,
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return types.Manifest{}, err
	}
	if err := s.Put(ctx, path.Join(prefix, types.ManifestName), data); err != nil {
		return types.Manifest{}, fmt.Errorf("store manifest: %w", err)
	}
	return m, nil
}

// ReadManifest loads one stored transfer's manifest.
func ReadManifest(ctx context.Context, s Store, transferID string) (types.Manifest, error) {
	data, err := s.Get(ctx, path.Join(TransferKey(transferID), types.ManifestName))
	if err != nil {
		return types.Manifest{}, err
	}
	var m types.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return types.Manifest{}, fmt.Errorf("manifest for %s: %w", transferID, err)
	}
	return m, nil
}

// ReadFrame loads one stored frame's payload.
func ReadFrame(ctx context.Context, s Store, transferID string, frame types.FrameMeta) ([]byte, error) {
	return s.Get(ctx, path.Join(TransferKey(transferID), frame.File))
}

// ListTransfers returns the manifests of every stored transfer, newest
// first by timestamp. Prefixes without a manifest are skipped: they are
// transfers whose write did not finish.
func ListTransfers(ctx context.Context, s Store) ([]types.Manifest, error) {
	keys, err := s.List(ctx, transfersPrefix)
	if err != nil {
		return nil, err
	}

	var manifests []types.Manifest
	for _, key := range keys {
		if path.Base(key) != types.ManifestName {
			continue
		}
		id := path.Base(path.Dir(key))
		m, err := ReadManifest(ctx, s, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		manifests = append(manifests, m)
	}

	sort.Slice(manifests, func(i, j int) bool {
		if manifests[i].Ts != manifests[j].Ts {
			return manifests[i].Ts > manifests[j].Ts
		}
		return manifests[i].TransferID < manifests[j].TransferID
	})
	return manifests, nil
}

// validKey rejects keys that could escape the store root.
func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("store: invalid key %q", key)
	}
	return nil
}
