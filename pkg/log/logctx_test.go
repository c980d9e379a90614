package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrom_ReturnsDefaultWhenEmpty(t *testing.T) {
	t.Parallel()

	require.Same(t, slog.Default(), From(context.Background()))
}

func TestInto_From_RoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := Into(context.Background(), l)
	require.Same(t, l, From(ctx))

	From(ctx).Info("probe")
	require.Contains(t, buf.String(), "probe")
}

func TestFrom_NilLoggerInContext_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	ctx := Into(context.Background(), nil)
	require.Same(t, slog.Default(), From(ctx))
}
