package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContext_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	rc := NewRequestContextWithID(logger, "req-1", "http", "s1")
	ctx := WithRequestContext(context.Background(), rc)

	LoggerFromContext(ctx).Info("turn completed", LogFieldDuration, 12)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line[LogFieldRequestID])
	assert.Equal(t, "s1", line[LogFieldSessionID])
	assert.Equal(t, "http", line[LogFieldAgent])
	assert.EqualValues(t, 12, line[LogFieldDuration])

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, rc, got)
	assert.Equal(t, slog.Default(), LoggerFromContext(context.Background()))
}

func TestRequestContext_GeneratesID(t *testing.T) {
	a := NewRequestContext(nil, "ws", "")
	b := NewRequestContext(nil, "ws", "")
	assert.Len(t, a.RequestID, 36)
	assert.NotEqual(t, a.RequestID, b.RequestID)
	assert.NotNil(t, a.Logger)
}

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics(3)
	m.RecordRequest("POST /api/v1/chat", 10*time.Millisecond, false)
	m.RecordRequest("POST /api/v1/chat", 30*time.Millisecond, true)
	m.RecordRequest("GET /healthz", time.Millisecond, false)
	m.RecordRequest("GET /healthz", 2*time.Millisecond, false)
	m.RecordWSMessage()

	s := m.Snapshot()
	assert.Equal(t, int64(4), s.RequestTotal)
	assert.Equal(t, int64(1), s.RequestFailed)
	assert.Equal(t, int64(1), s.WSMessages)
	assert.InDelta(t, 75.0, s.SuccessRate(), 1e-9)

	chat := s.Endpoints["POST /api/v1/chat"]
	require.NotNil(t, chat)
	assert.Equal(t, int64(2), chat.RequestCount)
	assert.Equal(t, int64(1), chat.ErrorCount)
	assert.Equal(t, int64(20), chat.AverageDuration)
	// only the last three durations are kept: 30ms, 1ms, 2ms
	assert.Equal(t, 2*time.Millisecond, s.P50)
	assert.Equal(t, 30*time.Millisecond, s.P95)

	m.Reset()
	assert.Zero(t, m.Snapshot().RequestTotal)
	assert.InDelta(t, 100.0, m.Snapshot().SuccessRate(), 1e-9)
}
