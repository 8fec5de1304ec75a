// Package storage provides the interface to backend object storage.
//
// A Store is a flat keyspace of immutable byte objects. The local
// file system implementation lives in the localfs subpackage.
package storage

import (
	"context"
	"io"
)

type errString string

func (e errString) Error() string { return string(e) }

const (
	// ErrNotFound is returned when no object exists under the requested key
	ErrNotFound errString = "not found"

	// ErrExists is returned by exclusive writes when the key is already present
	ErrExists errString = "exists already"

	// ErrNotSupported is returned by stores that do not implement an operation
	ErrNotSupported errString = "not supported"
)

// Write behaviors accepted by Store.Put
const (
	// OverWrite replaces any object already stored under the key
	OverWrite = false

	// NoOverWrite makes Put fail with ErrExists when the key is present
	NoOverWrite = true
)

// Store implementations know how to persist and retrieve byte objects
// under string keys.
//
// Typically this is something file system-like. Implementations must
// guarantee that a Put is atomic with respect to concurrent readers and
// concurrent Puts of the same key: observers see either the complete
// object or no object, never a partial write.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader, bool) error
	Delete(context.Context, string) error
	Keys(context.Context) ([]string, error)
	Clear(context.Context) error
}

// PipeIO copies the reader to the writer using a fixed-size buffer.
func PipeIO(writer io.Writer, reader io.Reader) (n int64, err error) {
	buf := make([]byte, 32*1024)
	return io.CopyBuffer(writer, reader, buf)
}
