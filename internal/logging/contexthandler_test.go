package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/myrjola/whodunit/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(&buf, nil)))

	ctx := logging.WithGameID(context.Background(), "g-1")
	ctx = logging.WithAttrs(ctx, slog.String("character_id", "victor-hale"))
	logger.With(slog.String("source", "test")).InfoContext(ctx, "npc replied")

	out := buf.String()
	require.Contains(t, out, "game_id=g-1")
	require.Contains(t, out, "character_id=victor-hale")
	require.Contains(t, out, "source=test")
}

func TestWithAttrsDoesNotLeakBetweenBranches(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(&buf, nil)))

	base := logging.WithAttrs(context.Background(), slog.String("a", "1"))
	_ = logging.WithAttrs(base, slog.String("b", "2"))
	logger.InfoContext(base, "base only")

	require.NotContains(t, buf.String(), "b=2")
}
