package errortracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (r *recorder) beforeSend(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) all() []*sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*sentry.Event(nil), r.events...)
}

func newRecordingReporter(t *testing.T) (*Reporter, *recorder) {
	t.Helper()
	rec := &recorder{}
	r, err := newReporter(sentry.ClientOptions{
		Dsn:        "https://public@sentry.example.com/1",
		BeforeSend: rec.beforeSend,
	}, testutil.QuietLogger(t))
	require.NoError(t, err)
	return r, rec
}

func TestReporter_DisabledWithoutDSN(t *testing.T) {
	r, err := NewReporter(Config{}, testutil.QuietLogger(t))
	require.NoError(t, err)

	assert.False(t, r.Enabled())
	r.CaptureError(context.Background(), errors.New("ignored"), nil)
	r.CapturePanic(context.Background(), "ignored", nil)
	r.Flush(time.Millisecond)
}

func TestReporter_CaptureError(t *testing.T) {
	r, rec := newRecordingReporter(t)
	ctx := coreport.WithRequestID(context.Background(), "req-42")

	r.CaptureError(ctx, errors.New("database exploded"), map[string]any{"user_id": "u-1", "attempt": 2})

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, "req-42", events[0].Tags["request_id"])
	assert.Equal(t, "u-1", events[0].Tags["user_id"])
	assert.Equal(t, 2, events[0].Extra["attempt"])
}

func TestReporter_CapturePanic(t *testing.T) {
	r, rec := newRecordingReporter(t)

	r.CapturePanic(context.Background(), "nil map write", map[string]any{"path": "/api/videos/generate"})

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, sentry.LevelFatal, events[0].Level)
	assert.Equal(t, "/api/videos/generate", events[0].Tags["path"])
}
