// Package chunker splits byte streams into fixed-size chunks and
// computes their keys on a bounded worker pool.
//
// Reading is a single sequential pass, since chunk boundaries depend
// only on byte offset. Hashing is fanned out to the pool and results
// are collected by chunk index, so the returned sequence is always in
// input byte order regardless of hash completion order.
package chunker

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/chunkd/chunkd/pkg/cas"

	"github.com/docker/go-units"
	"go.uber.org/zap"
)

const (
	// DefaultChunkSize is the fixed maximum chunk size (1 MiB)
	DefaultChunkSize = 1 * units.MiB

	// MaxChunkSize caps configurable chunk sizes
	MaxChunkSize = 64 * units.MiB
)

// Chunk is one fixed-maximum-size block of an input stream together
// with its key. Index is the block's position in the stream.
type Chunk struct {
	Index int
	Key   cas.Key
	Data  []byte
}

// Chunker runs the chunking pipeline with a fixed chunk size.
type Chunker struct {
	pool      *Pool
	chunkSize int64
	l         *zap.Logger
}

// Option configures a Chunker
type Option func(*Chunker)

// ChunkSize sets the fixed maximum chunk size in bytes
func ChunkSize(size int64) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// Logger sets the logger for this chunker
func Logger(l *zap.Logger) Option {
	return func(c *Chunker) {
		c.l = l
	}
}

// New creates a chunker dispatching hash work to pool.
func New(pool *Pool, opts ...Option) (*Chunker, error) {
	c := &Chunker{
		pool:      pool,
		chunkSize: DefaultChunkSize,
		l:         zap.NewNop(),
	}
	for _, apply := range opts {
		apply(c)
	}
	if c.pool == nil {
		return nil, fmt.Errorf("chunker: a worker pool is required")
	}
	if c.chunkSize <= 0 || c.chunkSize > MaxChunkSize {
		return nil, fmt.Errorf("chunker: invalid chunk size %d", c.chunkSize)
	}
	return c, nil
}

// Size returns the configured chunk size in bytes.
func (c *Chunker) Size() int64 {
	return c.chunkSize
}

// Split reads the stream to completion and returns its chunks in byte
// order, each with its key computed. A short final block is the last
// chunk, not an error; an empty stream yields no chunks.
func (c *Chunker) Split(ctx context.Context, r io.Reader) ([]Chunk, error) {
	var (
		blocks []*Chunk
		wg     sync.WaitGroup
	)
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		buf := make([]byte, c.chunkSize)
		n, err := io.ReadFull(r, buf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			wg.Wait()
			return nil, fmt.Errorf("chunker: reading source at chunk %d: %w", index, err)
		}
		if n > 0 {
			block := &Chunk{Index: index, Data: buf[:n]}
			blocks = append(blocks, block)
			wg.Add(1)
			if serr := c.pool.Submit(c.hashTask(&wg, block)); serr != nil {
				wg.Done()
				wg.Wait()
				return nil, serr
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF || int64(n) < c.chunkSize {
			break
		}
	}
	wg.Wait()

	// reassemble in block-index order
	out := make([]Chunk, len(blocks))
	for _, block := range blocks {
		out[block.Index] = *block
	}
	c.l.Debug("stream chunked", zap.Int("chunks", len(out)))
	return out, nil
}

func (c *Chunker) hashTask(wg *sync.WaitGroup, block *Chunk) func() {
	return func() {
		defer wg.Done()
		block.Key = cas.KeyFromBytes(block.Data)
	}
}
