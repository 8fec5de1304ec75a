package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/chunkd/chunkd/pkg/cas"
	"github.com/chunkd/chunkd/pkg/chunker"
	"github.com/chunkd/chunkd/pkg/core"
	"github.com/chunkd/chunkd/pkg/dlogger"
	"github.com/chunkd/chunkd/pkg/manifest"
	"github.com/chunkd/chunkd/pkg/refs"
	"github.com/chunkd/chunkd/pkg/storage/localfs"

	"github.com/docker/go-units"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	chunkDirName    = "chunks"
	metadataDirName = "metadata"
)

// runtimeT bundles everything a command needs to drive the engine.
type runtimeT struct {
	engine *core.FileManager
	pool   *chunker.Pool
	logger *zap.Logger
}

func (r *runtimeT) Close() {
	r.pool.Shutdown()
	_ = r.logger.Sync()
}

// newRuntime wires the stores, the hashing pool and the file manager
// from the current flag values.
func newRuntime() (*runtimeT, error) {
	logger, err := dlogger.GetLogger(params.root.logLevel)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	base := afero.NewOsFs()
	for _, dir := range []string{chunkDirName, metadataDirName} {
		if err = base.MkdirAll(filepath.Join(params.store.path, dir), 0700); err != nil {
			return nil, fmt.Errorf("create store directory %q: %w", dir, err)
		}
	}
	chunkBackend, err := localfs.New(afero.NewBasePathFs(base, filepath.Join(params.store.path, chunkDirName)))
	if err != nil {
		return nil, fmt.Errorf("open chunk store: %w", err)
	}
	metaBackend, err := localfs.New(afero.NewBasePathFs(base, filepath.Join(params.store.path, metadataDirName)))
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}

	chunkSize, err := units.RAMInBytes(params.store.chunkSize)
	if err != nil {
		return nil, fmt.Errorf("parse chunk size %q: %w", params.store.chunkSize, err)
	}

	pool := chunker.NewPool(params.store.workers)
	ok := false
	defer func() {
		if !ok {
			pool.Shutdown()
		}
	}()

	pipeline, err := chunker.New(pool, chunker.ChunkSize(chunkSize), chunker.Logger(logger))
	if err != nil {
		return nil, err
	}
	chunks, err := cas.New(
		cas.Backend(chunkBackend),
		cas.CacheSize(params.store.cacheSize),
		cas.Logger(logger),
	)
	if err != nil {
		return nil, err
	}
	manifests, err := manifest.New(metaBackend, logger)
	if err != nil {
		return nil, err
	}
	engine, err := core.New(
		core.Chunks(chunks),
		core.Manifests(manifests),
		core.Counts(refs.NewCounter(logger)),
		core.Pipeline(pipeline),
		core.Logger(logger),
	)
	if err != nil {
		return nil, err
	}

	ok = true
	return &runtimeT{engine: engine, pool: pool, logger: logger}, nil
}
