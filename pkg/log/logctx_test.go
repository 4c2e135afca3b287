package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrom_DefaultWhenEmpty(t *testing.T) {
	require.Equal(t, slog.Default(), From(context.Background()))
}

func TestInto_From_RoundTrip(t *testing.T) {
	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := Into(context.Background(), l)
	require.Same(t, l, From(ctx))
}

func TestOp_AddsOpAttr(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := Into(context.Background(), l)

	Op(ctx, "service/articles/Create", "id", "42").Info("done")

	out := buf.String()
	require.Contains(t, out, "op=service/articles/Create")
	require.Contains(t, out, "id=42")
	require.Contains(t, out, "msg=done")
}
