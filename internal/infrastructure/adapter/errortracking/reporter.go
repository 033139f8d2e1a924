// Package errortracking reports unexpected failures to Sentry.
package errortracking

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
)

// Config for the reporter. An empty DSN disables reporting.
type Config struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
}

// Reporter sends errors and panics to Sentry through its own hub
type Reporter struct {
	hub    *sentry.Hub
	logger coreport.Logger
}

// NewReporter returns a reporter; with no DSN every call is a no-op
func NewReporter(cfg Config, logger coreport.Logger) (*Reporter, error) {
	if cfg.DSN == "" {
		return &Reporter{logger: logger}, nil
	}
	return newReporter(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
	}, logger)
}

func newReporter(opts sentry.ClientOptions, logger coreport.Logger) (*Reporter, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("sentry init failed: %w", err)
	}
	logger.Info("Error tracking enabled", map[string]any{"environment": opts.Environment})
	return &Reporter{
		hub:    sentry.NewHub(client, sentry.NewScope()),
		logger: logger,
	}, nil
}

// Enabled reports whether events are sent anywhere
func (r *Reporter) Enabled() bool {
	return r != nil && r.hub != nil
}

// CaptureError reports err with fields as extra context
func (r *Reporter) CaptureError(ctx context.Context, err error, fields map[string]any) {
	if !r.Enabled() || err == nil {
		return
	}
	hub := r.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		decorate(ctx, scope, fields)
		hub.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic value
func (r *Reporter) CapturePanic(ctx context.Context, recovered any, fields map[string]any) {
	if !r.Enabled() || recovered == nil {
		return
	}
	hub := r.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelFatal)
		decorate(ctx, scope, fields)
		hub.Recover(recovered)
	})
}

// Flush waits up to timeout for queued events
func (r *Reporter) Flush(timeout time.Duration) {
	if !r.Enabled() {
		return
	}
	if !r.hub.Flush(timeout) {
		r.logger.Warn("Error tracking flush timed out", nil)
	}
}

func decorate(ctx context.Context, scope *sentry.Scope, fields map[string]any) {
	if id := coreport.RequestIDFrom(ctx); id != "" {
		scope.SetTag("request_id", id)
	}
	for k, v := range fields {
		if s, ok := v.(string); ok && (k == "user_id" || k == "video_id" || k == "path" || k == "method") {
			scope.SetTag(k, s)
			continue
		}
		scope.SetExtra(k, v)
	}
}
