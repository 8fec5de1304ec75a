package core

import (
	"context"

	"github.com/chunkd/chunkd/pkg/metrics"
	"github.com/chunkd/chunkd/pkg/model"

	"go.uber.org/zap"
)

// Delete removes the file's manifest and drops one reference per
// distinct chunk key it contained. Chunks whose count reaches zero
// are physically deleted; chunks still referenced by other live
// manifests are left untouched.
func (m *FileManager) Delete(ctx context.Context, name string) error {
	if err := m.delete(ctx, name); err != nil {
		metrics.OpFailure("delete")
		return err
	}
	metrics.OpSuccess("delete")
	return nil
}

func (m *FileManager) delete(ctx context.Context, name string) error {
	if err := model.ValidateName(name); err != nil {
		return err
	}

	m.locks.lock(name)
	defer m.locks.unlock(name)

	metadata, err := m.manifests.Load(ctx, name)
	if err != nil {
		return err
	}
	set, err := metadata.DistinctKeys()
	if err != nil {
		return err
	}

	// drop the manifest first: a reader racing this delete sees either
	// the complete file or none of it
	if err := m.manifests.Delete(ctx, name); err != nil {
		return err
	}
	for key := range set {
		m.releaseChunk(ctx, key)
	}

	m.l.Info("file deleted",
		zap.String("filename", name),
		zap.Int("chunks", len(metadata.Chunks)))
	return nil
}
