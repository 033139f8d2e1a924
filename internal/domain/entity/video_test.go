package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coremocks "github.com/amirhossein-jamali/clipforge/mocks/port/core"
)

func TestVideoRequest_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		req     VideoRequest
		wantErr bool
	}{
		{"text defaults", VideoRequest{Prompt: "a cat", Service: ServiceSora}, false},
		{"empty prompt", VideoRequest{Prompt: "   ", Service: ServiceSora}, true},
		{"unknown type", VideoRequest{Prompt: "a", Type: "gif"}, true},
		{"bad requested email", VideoRequest{Prompt: "a", RequestedEmail: "nope"}, true},
		{"sora image", VideoRequest{Prompt: "a", Service: ServiceSora, Type: ImageToVideo,
			Images: SourceImages{ImageURL: "https://img.example.com/a.png"}}, false},
		{"sora image missing", VideoRequest{Prompt: "a", Service: ServiceSora, Type: ImageToVideo}, true},
		{"veo frames", VideoRequest{Prompt: "a", Service: ServiceVeo3, Type: ImageToVideo,
			Images: SourceImages{StartFrameURL: "https://img.example.com/1.png", EndFrameURL: "https://img.example.com/2.png"}}, false},
		{"veo single frame", VideoRequest{Prompt: "a", Service: ServiceVeo3, Type: ImageToVideo,
			Images: SourceImages{StartFrameURL: "https://img.example.com/1.png"}}, true},
		{"relative image url", VideoRequest{Prompt: "a", Service: ServiceSora, Type: ImageToVideo,
			Images: SourceImages{ImageURL: "/a.png"}}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			err := req.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, errs.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, req.Type)
			assert.Equal(t, TierStandard, req.Tier)
			assert.Equal(t, DefaultAspectRatio, req.AspectRatio)
		})
	}

	t.Run("text jobs drop images", func(t *testing.T) {
		req := VideoRequest{Prompt: "a", Type: TextToVideo, Images: SourceImages{ImageURL: "https://x.example.com/a.png"}}
		require.NoError(t, req.Validate())
		assert.True(t, req.Images.Empty())
	})
}

func TestVideo_Lifecycle(t *testing.T) {
	created := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	mockTime := coremocks.NewMockTimeProvider(t)
	mockTime.EXPECT().Now().Return(created).Maybe()

	newVideo := func(t *testing.T) *Video {
		v, err := NewVideo(uuid.New(), VideoRequest{Prompt: "a cat", Service: ServiceSora}, 5, mockTime)
		require.NoError(t, err)
		return v
	}

	t.Run("pending to processing to completed", func(t *testing.T) {
		v := newVideo(t)
		assert.Equal(t, VideoPending, v.Status)
		assert.Equal(t, int64(5), v.ChargedCredits)

		require.NoError(t, v.MarkProcessing("task-1", mockTime))
		assert.ErrorIs(t, v.MarkProcessing("", mockTime), errs.ErrInvalidTransition)

		require.NoError(t, v.MarkCompleted("https://cdn.example.com/v.mp4", "", mockTime))
		assert.Equal(t, "task-1", v.TaskID)
		assert.True(t, v.IsTerminal())
		require.NotNil(t, v.CompletedAt)
	})

	t.Run("terminal states are final", func(t *testing.T) {
		v := newVideo(t)
		require.NoError(t, v.MarkFailed("boom", "", mockTime))

		assert.ErrorIs(t, v.MarkFailed("again", "", mockTime), errs.ErrInvalidTransition)
		assert.ErrorIs(t, v.MarkCompleted("https://cdn.example.com/v.mp4", "", mockTime), errs.ErrInvalidTransition)
		assert.Equal(t, "boom", v.ErrorMessage)
	})

	t.Run("completion needs a URL", func(t *testing.T) {
		v := newVideo(t)
		assert.ErrorIs(t, v.MarkCompleted("", "", mockTime), errs.ErrValidation)
		assert.Equal(t, VideoPending, v.Status)
	})

	t.Run("stale flag", func(t *testing.T) {
		v := newVideo(t)
		assert.False(t, v.IsStale(created.Add(StaleAfter)))
		assert.True(t, v.IsStale(created.Add(StaleAfter+time.Second)))

		require.NoError(t, v.MarkFailed("x", "", mockTime))
		assert.False(t, v.IsStale(created.Add(24*time.Hour)))
	})

	t.Run("cost must be positive", func(t *testing.T) {
		_, err := NewVideo(uuid.New(), VideoRequest{Prompt: "a"}, 0, mockTime)
		assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	})
}
