package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/clipforge/internal/testutil"
)

func TestClient_Dispatch(t *testing.T) {
	var received gateway.DispatchPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(Config{}, testutil.QuietLogger(t))
	payload := gateway.DispatchPayload{
		VideoID:     "vid-1",
		VideoPrompt: "a cat surfing",
		Service:     "sora",
		Model:       "sora-2",
		VideoType:   "image-to-video",
		ImageURL:    "https://cdn.example.com/cat.png",
		CallbackURL: "https://app.example.com/api/videos/callback",
	}

	require.NoError(t, client.Dispatch(context.Background(), server.URL, payload))
	assert.Equal(t, payload, received)
}

func TestClient_DispatchRetriesTransientFailure(t *testing.T) {
	var (
		mu  sync.Mutex
		ids []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p gateway.DispatchPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		mu.Lock()
		ids = append(ids, p.VideoID)
		first := len(ids) == 1
		mu.Unlock()
		if first {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(Config{MaxRetries: 1}, testutil.QuietLogger(t))

	require.NoError(t, client.Dispatch(context.Background(), server.URL, gateway.DispatchPayload{VideoID: "vid-7"}))

	// the worker sees the job twice, keyed by the same video id
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"vid-7", "vid-7"}, ids)
}

func TestClient_DispatchRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{}, testutil.QuietLogger(t))
	err := client.Dispatch(context.Background(), server.URL, gateway.DispatchPayload{VideoID: "v"})

	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUpstream)
}

func TestClient_EnhancePrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a cat", body["prompt"])
		assert.Equal(t, "text-to-video", body["video_type"])
		_, _ = w.Write([]byte(`[{"json":{"enhanced_prompt":"A cinematic cat at golden hour"}}]`))
	}))
	defer server.Close()

	client := NewClient(Config{PromptEnhanceURL: server.URL}, testutil.QuietLogger(t))
	out, err := client.EnhancePrompt(context.Background(), "a cat", "")

	require.NoError(t, err)
	assert.Equal(t, "A cinematic cat at golden hour", out)
}

func TestClient_EnhancePromptNotConfigured(t *testing.T) {
	client := NewClient(Config{}, testutil.QuietLogger(t))
	_, err := client.EnhancePrompt(context.Background(), "a cat", "")
	assert.ErrorIs(t, err, errs.ErrUpstream)
}

func TestExtractEnhancedPrompt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"direct", `{"enhanced_prompt":"one"}`, "one"},
		{"camel case", `{"enhancedPrompt":"two"}`, "two"},
		{"nested data", `{"data":{"enhancedPrompt":"three"}}`, "three"},
		{"list of items", `[{"result":"four"}]`, "four"},
		{"list wrapped in json", `[{"json":{"prompt":"five"}}]`, "five"},
		{"json string", `"six"`, "six"},
		{"plain text", `seven`, "seven"},
		{"nothing usable", `{"other":"x"}`, ""},
		{"empty list", `[]`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractEnhancedPrompt([]byte(tt.raw)))
		})
	}
}
