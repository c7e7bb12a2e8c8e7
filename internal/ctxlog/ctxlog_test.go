package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("returns embedded logger", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		ctx := WithLogger(context.Background(), logger)

		FromContext(ctx).Info("hello", "vertex", "text.a")

		require.Same(t, logger, FromContext(ctx))
		assert.Contains(t, buf.String(), "vertex=text.a")
	})

	t.Run("missing logger discards", func(t *testing.T) {
		t.Parallel()
		logger := FromContext(context.Background())
		require.NotNil(t, logger)
		assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	})
}

func TestWith(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	ctx = With(ctx, "run_id", "r1")
	ctx = With(ctx, "wave", 2)

	FromContext(ctx).Info("step")

	assert.Contains(t, buf.String(), "run_id=r1")
	assert.Contains(t, buf.String(), "wave=2")
}
