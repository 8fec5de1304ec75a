// Package core composes the chunking pipeline, the chunk store, the
// reference counter and the manifest store into the file operations:
// upload, retrieve, delete and update.
//
// No per-file state is kept between calls; every operation rederives
// its view from the manifests and the store. A per-name lock
// serializes the load-modify-save sequence for one file name, so
// concurrent updates or deletes of the same name cannot interleave.
package core

import (
	"context"
	"fmt"

	"github.com/chunkd/chunkd/pkg/cas"
	"github.com/chunkd/chunkd/pkg/chunker"
	"github.com/chunkd/chunkd/pkg/manifest"
	"github.com/chunkd/chunkd/pkg/refs"

	"go.uber.org/zap"
)

// FileManager orchestrates the four file operations.
type FileManager struct {
	chunks    *cas.Store
	manifests *manifest.Store
	counts    *refs.Counter
	pipeline  *chunker.Chunker
	locks     *nameLocks
	l         *zap.Logger
}

// Option configures a FileManager
type Option func(*FileManager)

// Chunks sets the chunk store
func Chunks(s *cas.Store) Option {
	return func(m *FileManager) {
		m.chunks = s
	}
}

// Manifests sets the manifest store
func Manifests(s *manifest.Store) Option {
	return func(m *FileManager) {
		m.manifests = s
	}
}

// Counts sets the reference counter
func Counts(c *refs.Counter) Option {
	return func(m *FileManager) {
		m.counts = c
	}
}

// Pipeline sets the chunking pipeline
func Pipeline(c *chunker.Chunker) Option {
	return func(m *FileManager) {
		m.pipeline = c
	}
}

// Logger sets the logger for the file manager
func Logger(l *zap.Logger) Option {
	return func(m *FileManager) {
		m.l = l
	}
}

// New creates a file manager. Chunk store, manifest store, counter and
// pipeline are all required.
func New(opts ...Option) (*FileManager, error) {
	m := &FileManager{
		locks: newNameLocks(),
		l:     zap.NewNop(),
	}
	for _, apply := range opts {
		apply(m)
	}
	switch {
	case m.chunks == nil:
		return nil, fmt.Errorf("core: a chunk store is required")
	case m.manifests == nil:
		return nil, fmt.Errorf("core: a manifest store is required")
	case m.counts == nil:
		return nil, fmt.Errorf("core: a reference counter is required")
	case m.pipeline == nil:
		return nil, fmt.Errorf("core: a chunking pipeline is required")
	}
	return m, nil
}

// ChunkSize reports the fixed chunk size used by the pipeline.
func (m *FileManager) ChunkSize() int64 {
	return m.pipeline.Size()
}

// Stats reports the current store totals.
type Stats struct {
	Files            int `json:"files"`
	ReferencedChunks int `json:"referenced_chunks"`
	StoredChunks     int `json:"stored_chunks"`
}

// Stats scans the stores and returns current totals.
func (m *FileManager) Stats(ctx context.Context) (Stats, error) {
	names, err := m.manifests.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	keys, err := m.chunks.Keys(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Files:            len(names),
		ReferencedChunks: m.counts.Len(),
		StoredChunks:     len(keys),
	}, nil
}
