// Package refs tracks how many live manifests reference each chunk.
//
// Counts are process-local and rebuilt from a manifest scan at
// startup; they are not a durable source of truth.
package refs

import (
	"sync"

	"github.com/chunkd/chunkd/pkg/cas"
	"github.com/chunkd/chunkd/pkg/metrics"

	"go.uber.org/zap"
)

// Counter is a concurrent reference count map keyed by chunk key.
//
// Operations on the same key are linearized by the mutex: a decrement
// always sees the effect of every increment that happened before it.
type Counter struct {
	mu     sync.Mutex
	counts map[cas.Key]int
	l      *zap.Logger
}

// NewCounter creates an empty counter.
func NewCounter(l *zap.Logger) *Counter {
	if l == nil {
		l = zap.NewNop()
	}
	return &Counter{
		counts: make(map[cas.Key]int),
		l:      l,
	}
}

// Increment adds one reference to a chunk, creating the entry at 1.
func (c *Counter) Increment(key cas.Key) {
	c.mu.Lock()
	c.counts[key]++
	c.mu.Unlock()
}

// Decrement removes one reference and returns the new count.
//
// Decrementing an absent or zero count returns 0 and logs an
// inconsistency: it means a caller dropped a reference it never held.
func (c *Counter) Decrement(key cas.Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.counts[key]
	if !ok || n <= 0 {
		c.l.Warn("decrement of unreferenced chunk", zap.Stringer("key", key))
		metrics.RefcountUnderflows.Inc()
		return 0
	}
	n--
	if n == 0 {
		delete(c.counts, key)
	} else {
		c.counts[key] = n
	}
	return n
}

// Count returns the current reference count, 0 for unknown keys.
func (c *Counter) Count(key cas.Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}

// Len returns the number of chunks with a non-zero count.
func (c *Counter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.counts)
}

// Snapshot returns a copy of all non-zero counts.
func (c *Counter) Snapshot() map[cas.Key]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[cas.Key]int, len(c.counts))
	for k, n := range c.counts {
		out[k] = n
	}
	return out
}

// Rebuild replaces all counts, dropping non-positive entries. It is
// used by the startup reconciliation pass.
func (c *Counter) Rebuild(counts map[cas.Key]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[cas.Key]int, len(counts))
	for k, n := range counts {
		if n > 0 {
			c.counts[k] = n
		}
	}
}
