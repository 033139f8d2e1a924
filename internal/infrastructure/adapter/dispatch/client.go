package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/httpclient"
)

const provider = "automation"

// Config configures the worker client
type Config struct {
	PromptEnhanceURL string
	Timeout          time.Duration
	MaxRetries       int
}

// Client posts jobs and prompt rewrites to the automation workflow webhooks
type Client struct {
	enhanceURL string
	executor   *httpclient.Executor
	logger     coreport.Logger
}

// NewClient creates a new worker client
func NewClient(cfg Config, logger coreport.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		enhanceURL: cfg.PromptEnhanceURL,
		executor: httpclient.NewExecutor(&http.Client{Timeout: timeout}, httpclient.Options{
			Name:             "dispatch",
			MaxRetries:       cfg.MaxRetries,
			BaseDelay:        500 * time.Millisecond,
			MaxDelay:         5 * time.Second,
			BreakerThreshold: 5,
			BreakerWindow:    10,
		}, logger),
		logger: logger,
	}
}

func jsonRequest(url string, body []byte) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if id := coreport.RequestIDFrom(ctx); id != "" {
			req.Header.Set("X-Request-ID", id)
		}
		return req, nil
	}
}

// Dispatch posts payload to endpoint. Any 2xx answer is success.
func (c *Client) Dispatch(ctx context.Context, endpoint string, payload gateway.DispatchPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding dispatch payload: %w", err)
	}

	resp, err := c.executor.Do(ctx, jsonRequest(endpoint, body))
	if err != nil {
		return upstreamError("dispatch failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("Worker accepted job", map[string]any{
		"video_id": payload.VideoID,
		"status":   resp.StatusCode,
	})
	return nil
}

// EnhancePrompt asks the workflow for a rewritten prompt
func (c *Client) EnhancePrompt(ctx context.Context, prompt, videoType string) (string, error) {
	if c.enhanceURL == "" {
		return "", errs.NewUpstreamError(provider, "prompt enhancement is not configured", 0, nil)
	}
	if videoType == "" {
		videoType = "text-to-video"
	}

	body, err := json.Marshal(map[string]string{"prompt": prompt, "video_type": videoType})
	if err != nil {
		return "", err
	}

	resp, err := c.executor.Do(ctx, jsonRequest(c.enhanceURL, body))
	if err != nil {
		return "", upstreamError("prompt enhancement failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", upstreamError("reading enhancement response", err)
	}

	enhanced := ExtractEnhancedPrompt(raw)
	if enhanced == "" {
		return "", errs.NewUpstreamError(provider, "empty enhancement response", resp.StatusCode, nil)
	}
	return enhanced, nil
}

// enhancedKeys are the fields a workflow may put the rewritten prompt in, by preference
var enhancedKeys = []string{"enhanced_prompt", "enhancedPrompt", "result", "prompt"}

// ExtractEnhancedPrompt reads the rewritten prompt from the shapes workflows
// return: a plain object, an object under "data", a list of items optionally
// wrapped in "json", or a bare string
func ExtractEnhancedPrompt(raw []byte) string {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return strings.TrimSpace(string(raw))
	}

	switch v := decoded.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		if len(v) == 0 {
			return ""
		}
		if s, ok := v[0].(string); ok {
			return strings.TrimSpace(s)
		}
		item, _ := v[0].(map[string]any)
		if inner, ok := item["json"].(map[string]any); ok {
			if s := pick(inner); s != "" {
				return s
			}
		}
		return pick(item)
	case map[string]any:
		if s := pick(v); s != "" {
			return s
		}
		if inner, ok := v["data"].(map[string]any); ok {
			return pick(inner)
		}
	}
	return ""
}

func pick(m map[string]any) string {
	for _, key := range enhancedKeys {
		switch val := m[key].(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				return s
			}
		case float64:
			return fmt.Sprint(val)
		}
	}
	return ""
}

func upstreamError(message string, err error) error {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return errs.NewUpstreamError(provider, message, statusErr.StatusCode, err)
	}
	return errs.NewUpstreamError(provider, message, 0, err)
}
