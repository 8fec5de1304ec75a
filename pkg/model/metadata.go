// Package model describes the persisted metadata of the chunk store.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/chunkd/chunkd/pkg/cas"
	"github.com/chunkd/chunkd/pkg/errors"
)

// ErrInvalidName rejects file names that are empty or would escape
// the metadata keyspace. The boundary layer maps it to a 400.
var ErrInvalidName = errors.New("invalid file name")

// FileMetadata is the manifest of one logical file: its attributes and
// the ordered chunk keys whose concatenation reproduces its bytes.
//
// The JSON shape is the on-disk record format. Order of Chunks is
// semantically significant: reordering corrupts the reconstructed file
// without invalidating any individual chunk.
type FileMetadata struct {
	Filename    string   `json:"filename" yaml:"filename"`
	Size        uint64   `json:"size" yaml:"size"`
	ContentType string   `json:"content_type" yaml:"content_type"`
	CreatedAt   string   `json:"created_at" yaml:"created_at"`
	Chunks      []string `json:"chunks" yaml:"chunks"`
	_           struct{}
}

// NewFileMetadata builds a manifest stamped with the current UTC time.
func NewFileMetadata(name string, size uint64, contentType string, keys []cas.Key) FileMetadata {
	chunks := make([]string, 0, len(keys))
	for _, k := range keys {
		chunks = append(chunks, k.String())
	}
	return FileMetadata{
		Filename:    name,
		Size:        size,
		ContentType: contentType,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Chunks:      chunks,
	}
}

// ChunkKeys parses the manifest's ordered chunk key sequence.
func (m *FileMetadata) ChunkKeys() ([]cas.Key, error) {
	keys := make([]cas.Key, 0, len(m.Chunks))
	for i, s := range m.Chunks {
		k, err := cas.KeyFromString(s)
		if err != nil {
			return nil, fmt.Errorf("manifest for %q: chunk %d: %w", m.Filename, i, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// DistinctKeys returns the set of distinct chunk keys in the manifest.
func (m *FileMetadata) DistinctKeys() (map[cas.Key]struct{}, error) {
	keys, err := m.ChunkKeys()
	if err != nil {
		return nil, err
	}
	set := make(map[cas.Key]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set, nil
}

// MetadataPath maps a file name to its record location.
func MetadataPath(name string) string {
	return name + ".json"
}

// ValidateName rejects names that are empty or escape the metadata
// keyspace.
func ValidateName(name string) error {
	if name == "" {
		return ErrInvalidName.Wrap(fmt.Errorf("file name is empty"))
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return ErrInvalidName.Wrap(fmt.Errorf("file name %q contains a path separator", name))
	}
	return nil
}
