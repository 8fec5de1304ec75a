package core

import (
	"context"
	"fmt"
	"io"

	"github.com/chunkd/chunkd/pkg/cas"
	"github.com/chunkd/chunkd/pkg/errors"
	"github.com/chunkd/chunkd/pkg/metrics"
	"github.com/chunkd/chunkd/pkg/model"
	"github.com/chunkd/chunkd/pkg/storage"

	"go.uber.org/zap"
)

// Upload chunks the source, stores every distinct chunk once,
// references them and persists the manifest. An existing manifest for
// the name is replaced: re-uploading is idempotent and counts are
// adjusted exactly as an update would.
func (m *FileManager) Upload(ctx context.Context, source io.Reader, name, contentType string) (model.FileMetadata, error) {
	metadata, err := m.replace(ctx, source, name, contentType, false)
	if err != nil {
		metrics.OpFailure("upload")
		return metadata, err
	}
	metrics.OpSuccess("upload")
	return metadata, nil
}

// replace implements upload and update: it ingests the new content,
// then reconciles reference counts between the old manifest's chunk
// set and the new one.
//
// Counting discipline is per-file-presence: a live manifest holds
// exactly one reference per distinct chunk key it contains, however
// many times the key repeats inside the file. Only keys entering or
// leaving the set move a count.
func (m *FileManager) replace(ctx context.Context, source io.Reader, name, contentType string, requireExisting bool) (model.FileMetadata, error) {
	var metadata model.FileMetadata
	if err := model.ValidateName(name); err != nil {
		return metadata, err
	}

	m.locks.lock(name)
	defer m.locks.unlock(name)

	oldSet := map[cas.Key]struct{}{}
	old, err := m.manifests.Load(ctx, name)
	switch {
	case err == nil:
		if oldSet, err = old.DistinctKeys(); err != nil {
			return metadata, err
		}
	case errors.Is(err, storage.ErrNotFound):
		if requireExisting {
			return metadata, fmt.Errorf("cannot update %q: %w", name, storage.ErrNotFound)
		}
	default:
		return metadata, err
	}

	pieces, err := m.pipeline.Split(ctx, source)
	if err != nil {
		return metadata, err
	}

	var size uint64
	keys := make([]cas.Key, 0, len(pieces))
	newSet := make(map[cas.Key]struct{}, len(pieces))
	for _, piece := range pieces {
		size += uint64(len(piece.Data))
		keys = append(keys, piece.Key)
		// the store deduplicates; within-file duplicates and chunks
		// shared with other files are written once
		if err := m.chunks.Put(ctx, piece.Key, piece.Data); err != nil {
			return metadata, err
		}
		newSet[piece.Key] = struct{}{}
	}
	for key := range newSet {
		if _, kept := oldSet[key]; !kept {
			m.counts.Increment(key)
		}
	}

	metadata = model.NewFileMetadata(name, size, contentType, keys)
	if err := m.manifests.Save(ctx, metadata); err != nil {
		// already-written chunks and already-incremented counts stay
		// in place: wasted space, never corruption
		return metadata, err
	}

	for key := range oldSet {
		if _, kept := newSet[key]; !kept {
			m.releaseChunk(ctx, key)
		}
	}

	m.l.Info("file stored",
		zap.String("filename", name),
		zap.Uint64("bytes", size),
		zap.Int("chunks", len(keys)))
	return metadata, nil
}

// releaseChunk drops one reference and physically deletes the chunk
// when no live manifest references it anymore.
func (m *FileManager) releaseChunk(ctx context.Context, key cas.Key) {
	if m.counts.Decrement(key) > 0 {
		return
	}
	if err := m.chunks.Delete(ctx, key); err != nil {
		// the chunk stays orphaned on disk; the next reconciliation
		// pass reports it
		m.l.Warn("deleting unreferenced chunk", zap.Stringer("key", key), zap.Error(err))
	}
}
