package requestctx

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestLoggerPrefersStoredLogger(t *testing.T) {
	var buf bytes.Buffer
	stored := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(WithRequestID(context.Background(), "req-2"), stored)
	Logger(ctx).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")

	assert.NotNil(t, Logger(context.Background()))
}
