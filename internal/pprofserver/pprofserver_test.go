package pprofserver_test

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/whodunit/internal/pprofserver"
	"github.com/myrjola/whodunit/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenAndServe(t *testing.T) {
	logger := testhelpers.NewLogger(io.Discard)

	t.Run("rejects public address", func(t *testing.T) {
		err := pprofserver.ListenAndServe(context.Background(), "0.0.0.0:0", logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loopback")
	})

	t.Run("rejects malformed address", func(t *testing.T) {
		require.Error(t, pprofserver.ListenAndServe(context.Background(), "localhost", logger))
	})

	t.Run("stops with context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, pprofserver.ListenAndServe(ctx, "127.0.0.1:0", logger))
	})
}
