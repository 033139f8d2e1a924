package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coremocks "github.com/amirhossein-jamali/clipforge/mocks/port/core"
)

func TestNewUser(t *testing.T) {
	fixedTime := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	mockTime := coremocks.NewMockTimeProvider(t)
	mockTime.EXPECT().Now().Return(fixedTime).Maybe()

	t.Run("Valid user creation", func(t *testing.T) {
		user, err := NewUser("alice", " Alice@Example.COM ", "hash", 10, AuthTypePassword, mockTime)

		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, int64(10), user.Credits())
		assert.Equal(t, fixedTime, user.CreatedAt)
		assert.Equal(t, fixedTime, user.UpdatedAt)
		assert.False(t, user.IsEmbedded())
		assert.Nil(t, user.LocationID)
	})

	t.Run("Invalid input", func(t *testing.T) {
		testCases := []struct {
			name     string
			username string
			email    string
			hash     string
			credits  int64
		}{
			{"short username", "al", "a@example.com", "hash", 0},
			{"bad email", "alice", "alice", "hash", 0},
			{"display name email", "alice", "Alice <a@example.com>", "hash", 0},
			{"missing hash", "alice", "a@example.com", "", 0},
			{"negative credits", "alice", "a@example.com", "hash", -1},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				user, err := NewUser(tc.username, tc.email, tc.hash, tc.credits, AuthTypePassword, mockTime)
				assert.ErrorIs(t, err, errs.ErrValidation)
				assert.Nil(t, user)
			})
		}
	})
}

func TestNewEmbeddedUser(t *testing.T) {
	mockTime := coremocks.NewMockTimeProvider(t)
	mockTime.EXPECT().Now().Return(time.Now()).Maybe()

	user, err := NewEmbeddedUser("AbC123", "random", mockTime)

	require.NoError(t, err)
	assert.Equal(t, "ghl_AbC123", user.Username)
	assert.Equal(t, "location_abc123@ghl.placeholder", user.Email)
	assert.True(t, user.HasPlaceholderEmail())
	assert.True(t, user.IsEmbedded())
	require.NotNil(t, user.LocationID)
	assert.Equal(t, "AbC123", *user.LocationID)

	_, err = NewEmbeddedUser(" ", "random", mockTime)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestUser_Projection(t *testing.T) {
	mockTime := coremocks.NewMockTimeProvider(t)
	mockTime.EXPECT().Now().Return(time.Now()).Maybe()

	user, err := NewEmbeddedUser("LOC1", "random", mockTime)
	require.NoError(t, err)
	user.SetCredits(42)

	p := user.Projection()

	assert.Equal(t, user.ID.String(), p.ID)
	assert.Equal(t, int64(42), p.Credits)
	assert.Equal(t, AuthTypeEmbedded, p.AuthType)
	assert.Equal(t, user.LocationID, p.LocationID)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a@example.com"))
	assert.False(t, ValidEmail("a@localhost"))
	assert.False(t, ValidEmail(""))
	assert.False(t, ValidEmail("a b@example.com"))
}
