package core

import (
	"bytes"
	"context"
	"testing"

	"github.com/chunkd/chunkd/pkg/cas"
	"github.com/chunkd/chunkd/pkg/chunker"
	"github.com/chunkd/chunkd/pkg/manifest"
	"github.com/chunkd/chunkd/pkg/refs"
	"github.com/chunkd/chunkd/pkg/storage"
	"github.com/chunkd/chunkd/pkg/storage/localfs"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testChunkSize = 16

// testRig wires a file manager over in-memory stores, exposing the
// backends so tests can restart the engine on the same state.
type testRig struct {
	engine       *FileManager
	chunkBackend storage.Store
	metaBackend  storage.Store
	counter      *refs.Counter
	chunkFs      afero.Fs
	metaFs       afero.Fs
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	rig := &testRig{
		chunkFs: afero.NewMemMapFs(),
		metaFs:  afero.NewMemMapFs(),
	}
	rig.engine = rig.newEngine(t)
	return rig
}

// newEngine builds a fresh engine (empty counts) over the rig's
// filesystems, as a process restart would.
func (rig *testRig) newEngine(t *testing.T) *FileManager {
	t.Helper()
	var err error
	rig.chunkBackend, err = localfs.New(rig.chunkFs)
	require.NoError(t, err)
	rig.metaBackend, err = localfs.New(rig.metaFs)
	require.NoError(t, err)

	pool := chunker.NewPool(2)
	t.Cleanup(pool.Shutdown)
	pipeline, err := chunker.New(pool, chunker.ChunkSize(testChunkSize))
	require.NoError(t, err)

	chunks, err := cas.New(cas.Backend(rig.chunkBackend), cas.CacheSize(0))
	require.NoError(t, err)
	manifests, err := manifest.New(rig.metaBackend, nil)
	require.NoError(t, err)
	rig.counter = refs.NewCounter(nil)

	engine, err := New(
		Chunks(chunks),
		Manifests(manifests),
		Counts(rig.counter),
		Pipeline(pipeline),
	)
	require.NoError(t, err)
	return engine
}

// block returns one full chunk of repeated bytes, so chunk membership
// of a file is easy to control from the test.
func block(b byte) []byte {
	return bytes.Repeat([]byte{b}, testChunkSize)
}

func concat(blocks ...[]byte) []byte {
	var out []byte
	for _, b := range blocks {
		out = append(out, b...)
	}
	return out
}

func (rig *testRig) upload(t *testing.T, name string, content []byte) {
	t.Helper()
	_, err := rig.engine.Upload(context.Background(), bytes.NewReader(content), name, "application/octet-stream")
	require.NoError(t, err)
}

func (rig *testRig) storedChunks(t *testing.T) int {
	t.Helper()
	keys, err := rig.engine.chunks.Keys(context.Background())
	require.NoError(t, err)
	return len(keys)
}

func (rig *testRig) hasChunk(t *testing.T, data []byte) bool {
	t.Helper()
	has, err := rig.engine.chunks.Has(context.Background(), cas.KeyFromBytes(data))
	require.NoError(t, err)
	return has
}
