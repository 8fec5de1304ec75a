package core

import (
	"bytes"
	"context"
	"testing"

	"github.com/chunkd/chunkd/pkg/cas"
	"github.com/chunkd/chunkd/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateMissingFails(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	_, err := rig.engine.Update(ctx, bytes.NewReader(block('u')), "absent.bin", "text/plain")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 0, rig.storedChunks(t))
}

func TestUpdateSymmetricDifference(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	// doc holds {a,b}; other pins b with a second reference
	rig.upload(t, "doc.bin", concat(block('a'), block('b')))
	rig.upload(t, "other.bin", block('b'))

	_, err := rig.engine.Update(ctx, bytes.NewReader(concat(block('b'), block('d'))), "doc.bin", "text/plain")
	require.NoError(t, err)

	// a left doc and nothing else held it
	assert.False(t, rig.hasChunk(t, block('a')))
	// b stayed in doc: both references intact
	assert.True(t, rig.hasChunk(t, block('b')))
	assert.Equal(t, 2, rig.counter.Count(cas.KeyFromBytes(block('b'))))
	// d entered doc
	assert.True(t, rig.hasChunk(t, block('d')))
	assert.Equal(t, 1, rig.counter.Count(cas.KeyFromBytes(block('d'))))

	got, _, err := rig.engine.Retrieve(ctx, "doc.bin")
	require.NoError(t, err)
	assert.Equal(t, concat(block('b'), block('d')), got)
}

func TestUpdateSharedChunkSurvives(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	shared := block('s')
	rig.upload(t, "a.bin", shared)
	rig.upload(t, "b.bin", shared)

	// a.bin drops the shared chunk; b.bin still needs it
	_, err := rig.engine.Update(ctx, bytes.NewReader(block('n')), "a.bin", "text/plain")
	require.NoError(t, err)

	assert.True(t, rig.hasChunk(t, shared))
	got, _, err := rig.engine.Retrieve(ctx, "b.bin")
	require.NoError(t, err)
	assert.Equal(t, shared, got)
}

func TestUpdateToEmpty(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	rig.upload(t, "shrink.bin", concat(block('x'), block('y')))
	meta, err := rig.engine.Update(ctx, bytes.NewReader(nil), "shrink.bin", "text/plain")
	require.NoError(t, err)

	assert.EqualValues(t, 0, meta.Size)
	assert.Empty(t, meta.Chunks)
	assert.Equal(t, 0, rig.storedChunks(t))

	got, _, err := rig.engine.Retrieve(ctx, "shrink.bin")
	require.NoError(t, err)
	assert.Empty(t, got)
}
