package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name   string
		level  LogLevel
		log    func(l *Logger)
		logged bool
	}{
		{"debug hidden at info", InfoLevel, func(l *Logger) { l.Debug("x") }, false},
		{"info shown at info", InfoLevel, func(l *Logger) { l.Info("x") }, true},
		{"warn hidden at error", ErrorLevel, func(l *Logger) { l.Warnf("x %d", 1) }, false},
		{"error shown at warn", WarnLevel, func(l *Logger) { l.Errorf("x %d", 1) }, true},
		{"debug shown at debug", DebugLevel, func(l *Logger) { l.Debugf("x") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewLogger(tt.level, &buf))
			assert.Equal(t, tt.logged, buf.Len() > 0)
		})
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithFields(map[string]any{"action": "dataset_update", "outcome": "denied"}).
		WithError(errors.New("boom")).
		Infof("check %s", "done")

	entry := decode(t, &buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "check done", entry["msg"])
	assert.Equal(t, "dataset_update", entry["action"])
	assert.Equal(t, "denied", entry["outcome"])
	assert.Equal(t, "boom", entry["error"])

	assert.Same(t, logger, logger.WithError(nil))
	assert.Equal(t, "WARN", WarnLevel.String())
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), NewLogger(InfoLevel, &buf))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUser(ctx, "alice")

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(ctx, "op")
	defer span.End()

	FromContext(ctx).Info("hello")

	entry := decode(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "alice", entry["user"])
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
	assert.NotEmpty(t, entry["span_id"])

	assert.Empty(t, GetRequestID(context.Background()))
	assert.Empty(t, GetUser(context.Background()))
	assert.NotNil(t, GetLogger(context.Background()))
}
