package security

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/clipforge/internal/testutil"
)

func TestJWTIssuer(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	issuer, err := NewJWTIssuer("secret", time.Hour, clock)
	require.NoError(t, err)

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	subject, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", subject)

	t.Run("expired", func(t *testing.T) {
		clock.Advance(2 * time.Hour)
		defer clock.Advance(-2 * time.Hour)
		_, err := issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewJWTIssuer("different", time.Hour, clock)
		require.NoError(t, err)
		_, err = other.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"userId": "user-1",
			"exp":    clock.Now().Add(time.Hour).Unix(),
		})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := NewJWTIssuer("", time.Hour, clock)
		assert.Error(t, err)
	})
}

func TestHMACHandshakeSigner(t *testing.T) {
	signer := NewHMACHandshakeSigner("secret")
	at := time.Unix(1_700_000_000, 0)
	value := signer.Sign(at)

	assert.Regexp(t, `^1700000000\.[0-9a-f]{64}$`, value)
	assert.True(t, signer.Verify(value, at.Add(90*time.Second), 2*time.Minute))
	assert.False(t, signer.Verify(value, at.Add(3*time.Minute), 2*time.Minute), "stale")
	assert.False(t, signer.Verify(value, at.Add(-time.Minute), 2*time.Minute), "from the future")
	assert.False(t, NewHMACHandshakeSigner("other").Verify(value, at, 2*time.Minute), "other key")
	assert.False(t, signer.Verify("1700000000", at, 2*time.Minute))
	assert.False(t, signer.Verify("abc."+strings.Repeat("0", 64), at, 2*time.Minute))
}

func TestRandomSessionTokens(t *testing.T) {
	gen := NewRandomSessionTokens()

	token, hash, err := gen.Generate()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), token)
	assert.Equal(t, gen.Hash(token), hash)
	assert.NotEqual(t, token, hash)

	other, _, err := gen.Generate()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(4)

	hash, err := hasher.Hash("hunter22")
	require.NoError(t, err)
	assert.True(t, hasher.Compare(hash, "hunter22"))
	assert.False(t, hasher.Compare(hash, "hunter23"))

	random, err := hasher.Random()
	require.NoError(t, err)
	assert.NotEmpty(t, random)
	assert.False(t, hasher.Compare(random, ""))

	assert.Equal(t, 12, NewBcryptHasher(99).cost)
}
