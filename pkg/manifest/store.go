// Package manifest persists file metadata records on a storage.Store.
//
// Records live under "{filename}.json". Saves replace the record
// atomically with respect to readers.
package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/chunkd/chunkd/pkg/model"
	"github.com/chunkd/chunkd/pkg/storage"

	"go.uber.org/zap"
)

// Store reads and writes manifests keyed by file name.
type Store struct {
	backend storage.Store
	l       *zap.Logger
}

// New creates a manifest store over a backend object store.
func New(backend storage.Store, l *zap.Logger) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("manifest: a backend store is required")
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Store{backend: backend, l: l}, nil
}

// Path returns the record location for a file name.
func (s *Store) Path(name string) string {
	return model.MetadataPath(name)
}

// Save creates or overwrites the record for metadata's file name. The
// write replaces any previous record in one atomic step.
func (s *Store) Save(ctx context.Context, metadata model.FileMetadata) error {
	if err := model.ValidateName(metadata.Filename); err != nil {
		return err
	}
	buf, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: encoding record for %q: %w", metadata.Filename, err)
	}
	if err := s.backend.Put(ctx, s.Path(metadata.Filename), bytes.NewReader(buf), storage.OverWrite); err != nil {
		return fmt.Errorf("manifest: writing record for %q: %w", metadata.Filename, err)
	}
	s.l.Debug("manifest saved",
		zap.String("filename", metadata.Filename),
		zap.Int("chunks", len(metadata.Chunks)))
	return nil
}

// Load returns the record for a file name, or storage.ErrNotFound.
func (s *Store) Load(ctx context.Context, name string) (model.FileMetadata, error) {
	var metadata model.FileMetadata
	if err := model.ValidateName(name); err != nil {
		return metadata, err
	}
	rdr, err := s.backend.Get(ctx, s.Path(name))
	if err != nil {
		return metadata, err
	}
	defer rdr.Close()
	buf, err := io.ReadAll(rdr)
	if err != nil {
		return metadata, fmt.Errorf("manifest: reading record for %q: %w", name, err)
	}
	if err := json.Unmarshal(buf, &metadata); err != nil {
		return metadata, fmt.Errorf("manifest: decoding record for %q: %w", name, err)
	}
	return metadata, nil
}

// Delete removes the record for a file name, or storage.ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := model.ValidateName(name); err != nil {
		return err
	}
	return s.backend.Delete(ctx, s.Path(name))
}

// List returns the names of all files with a live record. Used by the
// startup reconciliation scan.
func (s *Store) List(ctx context.Context) ([]string, error) {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(key, ".json"))
	}
	return names, nil
}
