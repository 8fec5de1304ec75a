package core

import (
	"bytes"
	"context"
	"testing"

	"github.com/chunkd/chunkd/pkg/cas"
	"github.com/chunkd/chunkd/pkg/model"
	"github.com/chunkd/chunkd/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadRoundTrip(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	content := concat(block('a'), block('b'), []byte("tail"))
	meta, err := rig.engine.Upload(ctx, bytes.NewReader(content), "song.txt", "text/plain")
	require.NoError(t, err)

	assert.Equal(t, "song.txt", meta.Filename)
	assert.EqualValues(t, len(content), meta.Size)
	assert.Equal(t, "text/plain", meta.ContentType)
	assert.Len(t, meta.Chunks, 3)

	got, gotMeta, err := rig.engine.Retrieve(ctx, "song.txt")
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, meta, gotMeta)
}

func TestUploadEmptyFile(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	meta, err := rig.engine.Upload(ctx, bytes.NewReader(nil), "empty.bin", "application/octet-stream")
	require.NoError(t, err)
	assert.EqualValues(t, 0, meta.Size)
	assert.Empty(t, meta.Chunks)
	assert.Equal(t, 0, rig.storedChunks(t))

	got, _, err := rig.engine.Retrieve(ctx, "empty.bin")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUploadInvalidName(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	_, err := rig.engine.Upload(ctx, bytes.NewReader(block('a')), "a/b", "text/plain")
	assert.ErrorIs(t, err, model.ErrInvalidName)
}

func TestUploadDeduplicatesAcrossFiles(t *testing.T) {
	rig := newTestRig(t)

	shared := concat(block('s'), block('t'))
	rig.upload(t, "one.bin", shared)
	rig.upload(t, "two.bin", shared)

	// identical content, stored once
	assert.Equal(t, 2, rig.storedChunks(t))
	assert.Equal(t, 2, rig.counter.Count(cas.KeyFromBytes(block('s'))))
	assert.Equal(t, 2, rig.counter.Count(cas.KeyFromBytes(block('t'))))
}

func TestUploadDeduplicatesWithinFile(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	rig.upload(t, "loop.bin", concat(block('x'), block('x'), block('x')))

	assert.Equal(t, 1, rig.storedChunks(t))
	// one reference per distinct key, not per occurrence
	assert.Equal(t, 1, rig.counter.Count(cas.KeyFromBytes(block('x'))))

	require.NoError(t, rig.engine.Delete(ctx, "loop.bin"))
	assert.Equal(t, 0, rig.storedChunks(t))
}

func TestUploadIdempotent(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	content := concat(block('i'), block('j'))
	rig.upload(t, "same.bin", content)
	rig.upload(t, "same.bin", content)

	assert.Equal(t, 2, rig.storedChunks(t))
	assert.Equal(t, 1, rig.counter.Count(cas.KeyFromBytes(block('i'))))
	assert.Equal(t, 1, rig.counter.Count(cas.KeyFromBytes(block('j'))))

	require.NoError(t, rig.engine.Delete(ctx, "same.bin"))
	assert.Equal(t, 0, rig.storedChunks(t))
}

func TestUploadReplacesExisting(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	rig.upload(t, "doc.bin", concat(block('a'), block('b')))
	rig.upload(t, "doc.bin", concat(block('b'), block('c')))

	got, _, err := rig.engine.Retrieve(ctx, "doc.bin")
	require.NoError(t, err)
	assert.Equal(t, concat(block('b'), block('c')), got)

	// a's chunk lost its last reference, b's survived the replace
	assert.False(t, rig.hasChunk(t, block('a')))
	assert.True(t, rig.hasChunk(t, block('b')))
	assert.True(t, rig.hasChunk(t, block('c')))
	assert.Equal(t, 1, rig.counter.Count(cas.KeyFromBytes(block('b'))))
}

func TestRetrieveMissingFile(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	_, _, err := rig.engine.Retrieve(ctx, "ghost.bin")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRetrieveMissingChunkFails(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	rig.upload(t, "frag.bin", concat(block('p'), block('q')))
	require.NoError(t, rig.engine.chunks.Delete(ctx, cas.KeyFromBytes(block('q'))))

	_, _, err := rig.engine.Retrieve(ctx, "frag.bin")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRetrieveChunk(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	rig.upload(t, "c.bin", block('z'))
	key := cas.KeyFromBytes(block('z'))

	data, err := rig.engine.RetrieveChunk(ctx, key.String())
	require.NoError(t, err)
	assert.Equal(t, block('z'), data)

	_, err = rig.engine.RetrieveChunk(ctx, "definitely not a digest")
	assert.Error(t, err)
}
