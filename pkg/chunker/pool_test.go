package chunker

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsAllTasks(t *testing.T) {
	pool := NewPool(4)

	var ran int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		require.NoError(t, pool.Submit(func() {
			defer wg.Done()
			atomic.AddInt64(&ran, 1)
		}))
	}
	wg.Wait()
	pool.Shutdown()

	assert.EqualValues(t, 100, atomic.LoadInt64(&ran))
}

func TestPoolSubmitAfterShutdown(t *testing.T) {
	pool := NewPool(1)
	pool.Shutdown()

	err := pool.Submit(func() {})
	assert.ErrorIs(t, err, ErrPoolClosed)

	// a second shutdown is a no-op
	pool.Shutdown()
}

func TestPoolDrainsQueueOnShutdown(t *testing.T) {
	pool := NewPool(1)

	var ran int64
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(func() {
			atomic.AddInt64(&ran, 1)
		}))
	}
	pool.Shutdown()

	assert.EqualValues(t, 10, atomic.LoadInt64(&ran))
}
