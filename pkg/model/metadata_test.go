package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/chunkd/chunkd/pkg/cas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileMetadata(t *testing.T) {
	keys := []cas.Key{
		cas.KeyFromBytes([]byte("one")),
		cas.KeyFromBytes([]byte("two")),
		cas.KeyFromBytes([]byte("one")),
	}
	m := NewFileMetadata("report.pdf", 42, "application/pdf", keys)

	assert.Equal(t, "report.pdf", m.Filename)
	assert.EqualValues(t, 42, m.Size)
	assert.Equal(t, "application/pdf", m.ContentType)
	require.Len(t, m.Chunks, 3)
	assert.Equal(t, m.Chunks[0], m.Chunks[2])

	_, err := time.Parse(time.RFC3339, m.CreatedAt)
	assert.NoError(t, err)
}

func TestChunkKeysRoundTrip(t *testing.T) {
	keys := []cas.Key{
		cas.KeyFromBytes([]byte("alpha")),
		cas.KeyFromBytes([]byte("beta")),
	}
	m := NewFileMetadata("f", 10, "text/plain", keys)

	parsed, err := m.ChunkKeys()
	require.NoError(t, err)
	assert.Equal(t, keys, parsed)

	distinct, err := m.DistinctKeys()
	require.NoError(t, err)
	assert.Len(t, distinct, 2)
}

func TestChunkKeysRejectsBadEntry(t *testing.T) {
	m := FileMetadata{Filename: "f", Chunks: []string{"not a digest"}}
	_, err := m.ChunkKeys()
	assert.Error(t, err)
}

func TestMetadataJSONShape(t *testing.T) {
	m := NewFileMetadata("f.txt", 4, "text/plain", []cas.Key{cas.KeyFromBytes([]byte("data"))})
	raw, err := json.Marshal(m)
	require.NoError(t, err)

	var shape map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &shape))
	for _, field := range []string{"filename", "size", "content_type", "created_at", "chunks"} {
		assert.Contains(t, shape, field)
	}
}

func TestMetadataPath(t *testing.T) {
	assert.Equal(t, "report.pdf.json", MetadataPath("report.pdf"))
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("report.pdf"))
	assert.NoError(t, ValidateName("no extension"))

	for _, name := range []string{"", "a/b", `a\b`, ".", ".."} {
		err := ValidateName(name)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
}
