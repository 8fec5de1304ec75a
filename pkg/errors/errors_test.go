package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelMatching(t *testing.T) {
	sentinel := New("object not found")

	assert.True(t, Is(sentinel, sentinel))
	assert.Equal(t, "object not found", sentinel.Error())
}

func TestWrapKeepsIdentity(t *testing.T) {
	sentinel := New("object not found")
	cause := fmt.Errorf("disk on fire")

	wrapped := sentinel.Wrap(cause)
	assert.True(t, Is(wrapped, sentinel))
	assert.Equal(t, cause, wrapped.Unwrap())

	// wrapping returns a copy, the sentinel itself carries no cause
	require.NoError(t, sentinel.Unwrap())
}

func TestWrapThroughFmt(t *testing.T) {
	sentinel := New("object not found")
	err := fmt.Errorf("loading manifest: %w", sentinel)

	assert.True(t, Is(err, sentinel))
}

func TestDistinctSentinels(t *testing.T) {
	a := New("a failed")
	b := New("b failed")

	assert.False(t, Is(a, b))
	// the cause stays reachable through the chain
	assert.True(t, Is(a.Wrap(b), b))
}
