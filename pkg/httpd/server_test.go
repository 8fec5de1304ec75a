package httpd

import (
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeAndShutdown(t *testing.T) {
	var shutdownRan bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "pong")
	})

	srv := New(
		ListensOn("localhost:0"),
		HandlesRequestsWith(handler),
		OnShutdown(func() { shutdownRan = true }),
	)
	require.NoError(t, srv.Listen())

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve()
	}()

	resp, err := http.Get("http://" + srv.Addr())
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "pong", string(body))

	require.NoError(t, srv.Shutdown())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, shutdownRan)

	// a second shutdown is a no-op
	require.NoError(t, srv.Shutdown())
}

func TestListenError(t *testing.T) {
	srv := New(ListensOn("256.256.256.256:0"))
	assert.Error(t, srv.Listen())
}
