package core

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/chunkd/chunkd/pkg/cas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileRebuildsCounts(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	shared := block('s')
	rig.upload(t, "a.bin", concat(shared, block('a')))
	rig.upload(t, "b.bin", concat(shared, block('b')))

	// a fresh engine over the same disk state starts with empty counts
	restarted := rig.newEngine(t)
	assert.Equal(t, 0, rig.counter.Len())

	require.NoError(t, restarted.Reconcile(ctx))
	assert.Equal(t, 2, rig.counter.Count(cas.KeyFromBytes(shared)))
	assert.Equal(t, 1, rig.counter.Count(cas.KeyFromBytes(block('a'))))
	assert.Equal(t, 1, rig.counter.Count(cas.KeyFromBytes(block('b'))))

	// shared chunk must survive the first delete after the restart
	require.NoError(t, restarted.Delete(ctx, "a.bin"))
	got, _, err := restarted.Retrieve(ctx, "b.bin")
	require.NoError(t, err)
	assert.Equal(t, concat(shared, block('b')), got)
}

func TestReconcileEmptyStore(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	require.NoError(t, rig.engine.Reconcile(ctx))
	assert.Equal(t, 0, rig.counter.Len())
}

func TestReconcileReportsOrphans(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	// a chunk on disk without any manifest referencing it
	orphan := block('o')
	require.NoError(t, rig.engine.chunks.Put(ctx, cas.KeyFromBytes(orphan), orphan))

	require.NoError(t, rig.engine.Reconcile(ctx))
	assert.Equal(t, 0, rig.counter.Len())
	// orphans are reported, not deleted
	assert.True(t, rig.hasChunk(t, orphan))
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	rig.upload(t, "a.bin", concat(block('s'), block('a')))
	rig.upload(t, "b.bin", block('s'))

	stats, err := rig.engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 2, stats.ReferencedChunks)
	assert.Equal(t, 2, stats.StoredChunks)
}

func TestConcurrentUploads(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	shared := block('s')
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "file-" + string(rune('a'+i)) + ".bin"
			content := concat(shared, block(byte('0'+i)))
			_, err := rig.engine.Upload(ctx, strings.NewReader(string(content)), name, "application/octet-stream")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, rig.counter.Count(cas.KeyFromBytes(shared)))

	names, err := rig.engine.manifests.List(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 8)

	for _, name := range names {
		_, _, err := rig.engine.Retrieve(ctx, name)
		assert.NoError(t, err)
	}
}
