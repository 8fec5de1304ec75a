package core

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/chunkd/chunkd/pkg/cas"
	"github.com/chunkd/chunkd/pkg/metrics"
	"github.com/chunkd/chunkd/pkg/model"

	"go.uber.org/zap"
)

// RetrieveTo streams the file's bytes to w: each chunk is fetched in
// manifest order and written through. If any chunk is missing the
// write aborts mid-stream; the caller must discard whatever was
// produced and never expose it as a valid result.
func (m *FileManager) RetrieveTo(ctx context.Context, name string, w io.Writer) (model.FileMetadata, error) {
	var metadata model.FileMetadata
	if err := model.ValidateName(name); err != nil {
		metrics.OpFailure("retrieve")
		return metadata, err
	}

	metadata, err := m.manifests.Load(ctx, name)
	if err != nil {
		metrics.OpFailure("retrieve")
		return metadata, err
	}
	keys, err := metadata.ChunkKeys()
	if err != nil {
		metrics.OpFailure("retrieve")
		return metadata, err
	}

	for i, key := range keys {
		data, err := m.chunks.Get(ctx, key)
		if err != nil {
			metrics.OpFailure("retrieve")
			return metadata, fmt.Errorf("retrieving %q: chunk %d (%v): %w", name, i, key, err)
		}
		if _, err := w.Write(data); err != nil {
			metrics.OpFailure("retrieve")
			return metadata, fmt.Errorf("retrieving %q: writing chunk %d: %w", name, i, err)
		}
	}

	metrics.OpSuccess("retrieve")
	m.l.Debug("file retrieved", zap.String("filename", name), zap.Int("chunks", len(keys)))
	return metadata, nil
}

// Retrieve returns the file's bytes assembled in memory.
func (m *FileManager) Retrieve(ctx context.Context, name string) ([]byte, model.FileMetadata, error) {
	var buf bytes.Buffer
	metadata, err := m.RetrieveTo(ctx, name, &buf)
	if err != nil {
		return nil, metadata, err
	}
	return buf.Bytes(), metadata, nil
}

// RetrieveChunk returns the raw bytes of one stored chunk by its hex
// key, regardless of which files reference it.
func (m *FileManager) RetrieveChunk(ctx context.Context, cid string) ([]byte, error) {
	key, err := cas.KeyFromString(cid)
	if err != nil {
		return nil, err
	}
	return m.chunks.Get(ctx, key)
}

// Metadata returns the manifest for a file name without touching
// chunk data.
func (m *FileManager) Metadata(ctx context.Context, name string) (model.FileMetadata, error) {
	if err := model.ValidateName(name); err != nil {
		return model.FileMetadata{}, err
	}
	return m.manifests.Load(ctx, name)
}
