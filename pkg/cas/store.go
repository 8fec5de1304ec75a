package cas

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/chunkd/chunkd/pkg/errors"
	"github.com/chunkd/chunkd/pkg/metrics"
	"github.com/chunkd/chunkd/pkg/storage"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const (
	// DefaultCacheSize is the default number of chunks kept in the read cache
	DefaultCacheSize = 64
)

// Store persists chunks under their key, writing each distinct chunk
// exactly once.
type Store struct {
	backend   storage.Store
	cache     *lru.Cache[string, []byte]
	cacheSize int
	l         *zap.Logger
}

// Option configures a chunk store
type Option func(*Store)

// Backend sets the object store persisting chunks
func Backend(store storage.Store) Option {
	return func(s *Store) {
		s.backend = store
	}
}

// CacheSize sets the number of chunks held by the read cache. Zero
// disables caching.
func CacheSize(size int) Option {
	return func(s *Store) {
		s.cacheSize = size
	}
}

// Logger sets the logger for this store
func Logger(l *zap.Logger) Option {
	return func(s *Store) {
		s.l = l
	}
}

// New creates a chunk store over a backend object store.
func New(opts ...Option) (*Store, error) {
	s := &Store{
		cacheSize: DefaultCacheSize,
		l:         zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}
	if s.backend == nil {
		return nil, fmt.Errorf("cas: a backend store is required")
	}
	if s.cacheSize > 0 {
		cache, err := lru.New[string, []byte](s.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("cas: read cache: %v", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Put writes a chunk under its key unless an identical chunk is
// already stored. A concurrent Put of the same key is safe: the
// backend write is staged and renamed into place, so the stored object
// is always a complete chunk.
//
// The caller cannot distinguish a fresh write from a deduplicated one;
// both are success.
func (s *Store) Put(ctx context.Context, key Key, data []byte) error {
	err := s.backend.Put(ctx, key.String(), bytes.NewReader(data), storage.NoOverWrite)
	switch {
	case err == nil:
		metrics.ChunksWritten.Inc()
		s.l.Debug("chunk written", zap.Stringer("key", key), zap.Int("bytes", len(data)))
	case errors.Is(err, storage.ErrExists):
		metrics.ChunksDeduplicated.Inc()
		s.l.Debug("duplicate chunk", zap.Stringer("key", key), zap.Int("bytes", len(data)))
	default:
		return fmt.Errorf("cas: writing chunk %v: %w", key, err)
	}
	return nil
}

// Get returns the bytes of a stored chunk, or storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, key Key) ([]byte, error) {
	ks := key.String()
	if s.cache != nil {
		if data, ok := s.cache.Get(ks); ok {
			return data, nil
		}
	}
	rdr, err := s.backend.Get(ctx, ks)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	data, err := io.ReadAll(rdr)
	if err != nil {
		return nil, fmt.Errorf("cas: reading chunk %v: %w", key, err)
	}
	if s.cache != nil {
		s.cache.Add(ks, data)
	}
	return data, nil
}

// Has reports whether a chunk is physically stored.
func (s *Store) Has(ctx context.Context, key Key) (bool, error) {
	if s.cache != nil && s.cache.Contains(key.String()) {
		return true, nil
	}
	return s.backend.Has(ctx, key.String())
}

// Keys returns the keys of all physically stored chunks.
func (s *Store) Keys(ctx context.Context) ([]Key, error) {
	names, err := s.backend.Keys(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]Key, 0, len(names))
	for _, name := range names {
		k, err := KeyFromString(name)
		if err != nil {
			s.l.Warn("foreign object in chunk store", zap.String("name", name))
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Delete physically removes a chunk. Deleting an absent chunk is not
// an error, but indicates the reference counts disagree with the
// store, so it is logged as an inconsistency.
func (s *Store) Delete(ctx context.Context, key Key) error {
	if s.cache != nil {
		s.cache.Remove(key.String())
	}
	err := s.backend.Delete(ctx, key.String())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.l.Warn("deleting chunk not present in the store",
				zap.Stringer("key", key))
			return nil
		}
		return fmt.Errorf("cas: deleting chunk %v: %w", key, err)
	}
	metrics.ChunksDeleted.Inc()
	s.l.Debug("chunk deleted", zap.Stringer("key", key))
	return nil
}
