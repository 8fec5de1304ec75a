// Package localfs implements storage.Store on a local file system
// abstracted by afero.
//
// Writes are staged in a hidden directory then renamed into place, so
// readers never observe a partially written object and concurrent
// writes of the same key cannot corrupt it.
package localfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"context"
	"io"

	"github.com/chunkd/chunkd/pkg/storage"
	"github.com/spf13/afero"
)

// stageDirName is the staging area living inside the store's own keyspace.
const stageDirName = ".put-stage"

// New creates a local file system backed store rooted at dir.
func New(fs afero.Fs) (storage.Store, error) {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), filepath.Join(".chunkd", "objects"))
	}
	if err := fs.MkdirAll(stageDirName, 0700); err != nil {
		return nil, fmt.Errorf("ensuring staging directory %q: %v", stageDirName, err)
	}
	return &localFS{fs: fs}, nil
}

type localFS struct {
	fs    afero.Fs
	stage uint64
}

func maybeInvalidKey(key string) error {
	const sep = string(os.PathSeparator)
	components := strings.Split(strings.TrimLeft(key, sep), sep)
	if len(components) > 0 && components[0] == stageDirName {
		return fmt.Errorf("key %q conflicts with staging area name %q", key, stageDirName)
	}
	return nil
}

func (l *localFS) Has(ctx context.Context, key string) (bool, error) {
	if err := maybeInvalidKey(key); err != nil {
		return false, err
	}
	fi, err := l.fs.Stat(key)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !fi.IsDir(), nil
}

func (l *localFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := maybeInvalidKey(key); err != nil {
		return nil, err
	}
	f, err := l.fs.Open(key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Put stages the object under a writer-unique name, then renames it
// into place. With NoOverWrite, an existing key fails with ErrExists
// without touching the stored object.
func (l *localFS) Put(ctx context.Context, key string, source io.Reader, exclusive bool) error {
	if err := maybeInvalidKey(key); err != nil {
		return err
	}
	if exclusive {
		has, err := l.Has(ctx, key)
		if err != nil {
			return err
		}
		if has {
			return storage.ErrExists
		}
	}

	stageKey := filepath.Join(stageDirName, fmt.Sprintf("%s.%d.%d",
		filepath.Base(key), time.Now().UnixNano(), atomic.AddUint64(&l.stage, 1)))
	target, err := l.fs.OpenFile(stageKey, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create staged object for %q: %v", key, err)
	}
	if _, err = storage.PipeIO(target, source); err != nil {
		target.Close()
		_ = l.fs.Remove(stageKey)
		return fmt.Errorf("write staged object for %q: %v", key, err)
	}
	if err = target.Close(); err != nil {
		_ = l.fs.Remove(stageKey)
		return err
	}

	if dir := filepath.Dir(key); dir != "" && dir != "." {
		if err := l.fs.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("ensuring directories for %q: %v", key, err)
		}
	}
	// Rename is atomic on POSIX file systems. Two concurrent writers of
	// the same key race to last-writer-wins with complete objects only.
	if err := l.fs.Rename(stageKey, key); err != nil {
		_ = l.fs.Remove(stageKey)
		return fmt.Errorf("rename staged object into %q: %v", key, err)
	}
	return nil
}

func (l *localFS) Delete(ctx context.Context, key string) error {
	if err := maybeInvalidKey(key); err != nil {
		return err
	}
	if err := l.fs.Remove(key); err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("removing %q: %v", key, err)
	}
	return nil
}

func (l *localFS) Keys(ctx context.Context) ([]string, error) {
	const root = "."
	var res []string
	err := afero.Walk(l.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if info.IsDir() {
			if filepath.Base(path) == stageDirName {
				return filepath.SkipDir
			}
			return nil
		}
		res = append(res, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (l *localFS) Clear(ctx context.Context) error {
	keys, err := l.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := l.fs.Remove(key); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (l *localFS) String() string {
	const localfs = "localfs"
	switch fs := l.fs.(type) {
	case *afero.BasePathFs:
		pp, err := fs.RealPath("")
		if err != nil {
			return localfs
		}
		return localfs + "@" + pp
	default:
		return localfs
	}
}
