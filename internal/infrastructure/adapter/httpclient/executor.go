// Package httpclient holds the retrying HTTP plumbing shared by the outbound adapters.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
)

// maxErrorBody bounds how much of a failed response is kept for messages
const maxErrorBody = 4 << 10

// StatusError is a non-2xx answer. Body holds the start of the response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt
func (e *StatusError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// shouldRetry retries transport errors and retryable statuses but never a
// cancelled or expired context
func shouldRetry(_ *http.Response, err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}

// Options configures an Executor
type Options struct {
	Name       string
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// BreakerThreshold failures out of BreakerWindow attempts open the
	// circuit; zero disables the breaker
	BreakerThreshold uint
	BreakerWindow    uint
	BreakerDelay     time.Duration
}

// Executor runs HTTP calls with retry, backoff and an optional circuit breaker
type Executor struct {
	client   *http.Client
	executor failsafe.Executor[*http.Response]
}

// NewExecutor builds an executor around client
//
//nolint:bodyclose // *http.Response is a type parameter here
func NewExecutor(client *http.Client, opts Options, logger coreport.Logger) *Executor {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 200 * time.Millisecond
	}
	if opts.MaxDelay < opts.BaseDelay {
		opts.MaxDelay = 5 * time.Second
	}

	retry := retrypolicy.NewBuilder[*http.Response]().
		WithBackoff(opts.BaseDelay, opts.MaxDelay).
		WithMaxRetries(opts.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(shouldRetry).
		OnRetry(func(e failsafe.ExecutionEvent[*http.Response]) {
			logger.Warn("Retrying outbound request", map[string]any{
				"client":  opts.Name,
				"attempt": e.Attempts(),
				"error":   fmt.Sprint(e.LastError()),
			})
		}).
		Build()

	policies := []failsafe.Policy[*http.Response]{retry}
	if opts.BreakerThreshold > 0 && opts.BreakerWindow >= opts.BreakerThreshold {
		delay := opts.BreakerDelay
		if delay <= 0 {
			delay = 15 * time.Second
		}
		breaker := circuitbreaker.NewBuilder[*http.Response]().
			WithFailureThresholdRatio(opts.BreakerThreshold, opts.BreakerWindow).
			WithDelay(delay).
			WithSuccessThreshold(1).
			HandleIf(func(resp *http.Response, err error) bool {
				var statusErr *StatusError
				if errors.As(err, &statusErr) {
					return statusErr.StatusCode >= 500
				}
				return err != nil && !errors.Is(err, context.Canceled)
			}).
			OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
				logger.Warn("Circuit breaker state change", map[string]any{
					"client": opts.Name,
					"from":   fmt.Sprint(e.OldState),
					"to":     fmt.Sprint(e.NewState),
				})
			}).
			Build()
		policies = append(policies, breaker)
	}

	return &Executor{
		client:   client,
		executor: failsafe.With(policies...),
	}
}

// Do sends the request built by newRequest, rebuilding it for each attempt.
// Non-2xx answers become *StatusError (reachable with errors.As once
// retries are exhausted); on success the caller owns the body.
func (e *Executor) Do(ctx context.Context, newRequest func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	resp, err := e.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := newRequest(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := e.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
