package core

import (
	"context"

	"github.com/chunkd/chunkd/pkg/cas"

	"go.uber.org/zap"
)

// Reconcile rebuilds the in-memory reference counts from a full
// manifest scan. Counts are process-local and start empty, so this
// must run at startup before delete or update traffic is served.
//
// Chunks present on disk but referenced by no manifest are reported
// as orphans; they are left in place.
func (m *FileManager) Reconcile(ctx context.Context) error {
	names, err := m.manifests.List(ctx)
	if err != nil {
		return err
	}

	counts := make(map[cas.Key]int)
	for _, name := range names {
		metadata, err := m.manifests.Load(ctx, name)
		if err != nil {
			return err
		}
		set, err := metadata.DistinctKeys()
		if err != nil {
			return err
		}
		for key := range set {
			counts[key]++
		}
	}
	m.counts.Rebuild(counts)

	orphans := 0
	stored, err := m.chunks.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range stored {
		if _, referenced := counts[key]; !referenced {
			orphans++
			m.l.Warn("orphaned chunk on disk", zap.Stringer("key", key))
		}
	}

	m.l.Info("reference counts rebuilt",
		zap.Int("manifests", len(names)),
		zap.Int("referenced_chunks", len(counts)),
		zap.Int("orphaned_chunks", orphans))
	return nil
}
