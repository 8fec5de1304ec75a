package core

import (
	"context"
	"io"

	"github.com/chunkd/chunkd/pkg/metrics"
	"github.com/chunkd/chunkd/pkg/model"
)

// Update replaces the content of an existing file. It fails with
// storage.ErrNotFound when no manifest exists for the name: update is
// not an upsert.
//
// The reference adjustment is a symmetric set difference against the
// old manifest: keys only in the new content are stored and
// referenced, keys only in the old content are released (and deleted
// at count zero), keys in both keep their count.
func (m *FileManager) Update(ctx context.Context, source io.Reader, name, contentType string) (model.FileMetadata, error) {
	metadata, err := m.replace(ctx, source, name, contentType, true)
	if err != nil {
		metrics.OpFailure("update")
		return metadata, err
	}
	metrics.OpSuccess("update")
	return metadata, nil
}
