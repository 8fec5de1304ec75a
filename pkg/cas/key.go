// Package cas implements content addressing: chunk keys derived from
// chunk bytes, and a deduplicating chunk store on top of storage.Store.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	// KeySize is the size in bytes of a chunk key (sha256 digest)
	KeySize = sha256.Size

	// KeySizeHex is the length of the hex representation of a key
	KeySizeHex = 2 * KeySize
)

// Key identifies a chunk by the sha256 digest of its bytes.
//
// Two chunks with identical bytes always produce identical keys, so a
// key doubles as the chunk's storage name.
type Key [KeySize]byte

// KeyFromBytes computes the key of a chunk's bytes.
//
// The empty input yields the well-known digest
// e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855.
func KeyFromBytes(data []byte) Key {
	return Key(sha256.Sum256(data))
}

// NewKey creates a key from a raw digest
func NewKey(data []byte) (Key, error) {
	var k Key
	if n := copy(k[:], data); n != KeySize {
		return Key{}, &BadKeySize{Key: data}
	}
	return k, nil
}

// MustNewKey creates a key from a raw digest but panics if there is an error
func MustNewKey(data []byte) Key {
	k, err := NewKey(data)
	if err != nil {
		panic(err.Error())
	}
	return k
}

// KeyFromString parses the hex representation of a key
func KeyFromString(s string) (Key, error) {
	if len(s) != KeySizeHex {
		return Key{}, fmt.Errorf("invalid key %q: length %d, expected %d", s, len(s), KeySizeHex)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Key{}, fmt.Errorf("invalid key %q: %v", s, err)
	}
	return MustNewKey(b), nil
}

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// BadKeySize is an error that's returned when the key to create has an invalid size.
type BadKeySize struct {
	Key []byte
}

func (b *BadKeySize) Error() string {
	return fmt.Sprintf("%x has invalid size of %d, expected %d", b.Key, len(b.Key), KeySize)
}
