package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) Logger {
	return NewWithConfig(Config{
		Name:   "test",
		Format: FormatJSON,
		Level:  slog.LevelDebug,
		Writer: buf,
	})
}

func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestErrorReturnsError(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	err := log.Error("something failed", "key", "value")
	require.Error(t, err)
	assert.Equal(t, "something failed", err.Error())

	entry := lastLogLine(t, &buf)
	assert.Equal(t, "something failed", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "test", entry["package"])
}

func TestErrWrapsCause(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	cause := errors.New("connection refused")
	err := log.Err("failed to connect", cause)

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to connect")
}

func TestErrorWithTypeMatchesSentinel(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	sentinel := errors.New("conflict")
	err := log.ErrorWithType(sentinel, "state transition not allowed")

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "state transition not allowed")
}

func TestFunctionAndFileAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf).File("handler").Function("Create")

	log.Info("created")

	entry := lastLogLine(t, &buf)
	assert.Equal(t, "handler", entry["file"])
	assert.Equal(t, "Create", entry["function"])
}

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", TraceIDFromContext(ctx))
	assert.Equal(t, "", TraceIDFromContext(context.Background()))
}

func TestTraceFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	ctx := ContextWithTraceID(context.Background(), "trace-42")
	log.TraceFromContext(ctx).Info("with trace")

	entry := lastLogLine(t, &buf)
	assert.Equal(t, "trace-42", entry["traceID"])
}
