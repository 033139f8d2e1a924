package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/clipforge/internal/testutil"
	gatewaymocks "github.com/amirhossein-jamali/clipforge/mocks/port/gateway"
)

// fakeTokens issues "hdr.<userID>.sig" and records every verification
type fakeTokens struct{ verified []string }

func (f *fakeTokens) Issue(userID string) (string, error) {
	return "hdr." + strings.ReplaceAll(userID, "-", "_") + ".sig", nil
}

func (f *fakeTokens) Verify(token string) (string, error) {
	f.verified = append(f.verified, token)
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[2] != "sig" {
		return "", errors.New("bad signature")
	}
	return strings.ReplaceAll(parts[1], "_", "-"), nil
}

type fakeHandshakes struct{}

func (fakeHandshakes) Sign(at time.Time) string { return fmt.Sprintf("%d.ok", at.Unix()) }

func (fakeHandshakes) Verify(value string, now time.Time, ttl time.Duration) bool {
	var ts int64
	if _, err := fmt.Sscanf(value, "%d.ok", &ts); err != nil {
		return false
	}
	return now.Sub(time.Unix(ts, 0)) <= ttl
}

// fakeSessions mints sequential tokens and records every hash lookup
type fakeSessions struct {
	n      int
	hashed []string
}

func (f *fakeSessions) Generate() (string, string, error) {
	f.n++
	token := fmt.Sprintf("%064x", f.n)
	sum := sha256.Sum256([]byte(token))
	return token, hex.EncodeToString(sum[:]), nil
}

func (f *fakeSessions) Hash(token string) string {
	f.hashed = append(f.hashed, token)
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type fakePasswords struct{}

func (fakePasswords) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (fakePasswords) Compare(h, p string) bool      { return h == "hashed:"+p }
func (fakePasswords) Random() (string, error)       { return "hashed:random", nil }

type fixture struct {
	svc      *Service
	store    *testutil.Store
	clock    *testutil.Clock
	tokens   *fakeTokens
	sessions *fakeSessions
	crm      *gatewaymocks.MockCRMClient
}

func newFixture(t *testing.T, settings Settings) *fixture {
	t.Helper()
	f := &fixture{
		store:    testutil.NewStore(),
		clock:    testutil.NewClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)),
		tokens:   &fakeTokens{},
		sessions: &fakeSessions{},
		crm:      gatewaymocks.NewMockCRMClient(t),
	}
	f.svc = NewService(f.store, f.tokens, fakeHandshakes{}, f.sessions, fakePasswords{}, f.crm,
		settings, f.clock, testutil.QuietLogger(t))
	return f
}

func TestClassifyToken(t *testing.T) {
	hexToken := strings.Repeat("ab", 32)

	assert.Equal(t, TokenSigned, ClassifyToken("eyJhbGciOiJIUzI1NiJ9.eyJ1c2VySWQiOiIxIn0.c2ln"))
	assert.Equal(t, TokenSession, ClassifyToken(hexToken))
	assert.Equal(t, TokenUnknown, ClassifyToken(strings.ToUpper(hexToken)))
	assert.Equal(t, TokenUnknown, ClassifyToken(hexToken[:63]))
	assert.Equal(t, TokenUnknown, ClassifyToken("a.b"))
	assert.Equal(t, TokenUnknown, ClassifyToken("a..c"))
	assert.Equal(t, TokenUnknown, ClassifyToken(""))
}

func TestService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("should register and resolve through the signed token", func(t *testing.T) {
		f := newFixture(t, Settings{})

		res, err := f.svc.Register(ctx, "alice", "Alice@Example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", res.User.Email)
		assert.Equal(t, int64(0), res.User.Credits)

		user, err := f.svc.Resolve(ctx, res.Token)
		require.NoError(t, err)
		assert.Equal(t, res.User.ID, user.ID.String())
		assert.Empty(t, f.sessions.hashed)
	})

	t.Run("should reject duplicates with conflict", func(t *testing.T) {
		f := newFixture(t, Settings{})
		_, err := f.svc.Register(ctx, "alice", "alice@example.com", "secret1")
		require.NoError(t, err)

		_, err = f.svc.Register(ctx, "alice", "other@example.com", "secret1")
		assert.ErrorIs(t, err, errs.ErrDuplicateUser)

		_, err = f.svc.Register(ctx, "bob", "ALICE@example.com", "secret1")
		assert.ErrorIs(t, err, errs.ErrDuplicateUser)
	})

	t.Run("should validate fields", func(t *testing.T) {
		f := newFixture(t, Settings{})

		_, err := f.svc.Register(ctx, "alice", "alice@example.com", "123")
		assert.ErrorIs(t, err, errs.ErrValidation)

		_, err = f.svc.Register(ctx, "alice", "not-email", "secret1")
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("should login by username or email", func(t *testing.T) {
		f := newFixture(t, Settings{})
		_, err := f.svc.Register(ctx, "alice", "alice@example.com", "secret1")
		require.NoError(t, err)

		_, err = f.svc.Login(ctx, "alice", "secret1")
		assert.NoError(t, err)
		_, err = f.svc.Login(ctx, "alice@example.com", "secret1")
		assert.NoError(t, err)
		_, err = f.svc.Login(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, errs.ErrUnauthorized)
		_, err = f.svc.Login(ctx, "nobody", "secret1")
		assert.ErrorIs(t, err, errs.ErrUnauthorized)
	})
}

func TestService_InitEmbedded(t *testing.T) {
	ctx := context.Background()

	t.Run("should create user and session on first init", func(t *testing.T) {
		f := newFixture(t, Settings{})
		f.crm.On("AgencyConfigured").Return(true)
		f.crm.On("VerifyLocation", ctx, "LOC123").Return(&gateway.CRMLocation{ID: "LOC123"}, nil).Once()

		res, err := f.svc.InitEmbedded(ctx, "LOC123", f.svc.Handshake())

		require.NoError(t, err)
		assert.Len(t, res.Token, 64)
		assert.Equal(t, "ghl_LOC123", res.User.Username)
		assert.Equal(t, "location_loc123@ghl.placeholder", res.User.Email)
		assert.Equal(t, entity.AuthTypeEmbedded, res.User.AuthType)

		user, err := f.svc.Resolve(ctx, res.Token)
		require.NoError(t, err)
		assert.Equal(t, res.User.ID, user.ID.String())
		assert.Empty(t, f.tokens.verified)
	})

	t.Run("should replace the previous session of the location", func(t *testing.T) {
		f := newFixture(t, Settings{})
		f.crm.On("AgencyConfigured").Return(false)

		first, err := f.svc.InitEmbedded(ctx, "LOC1", f.svc.Handshake())
		require.NoError(t, err)
		second, err := f.svc.InitEmbedded(ctx, "LOC1", f.svc.Handshake())
		require.NoError(t, err)

		assert.Equal(t, first.User.ID, second.User.ID)
		assert.Equal(t, 1, f.store.SessionCount())

		_, err = f.svc.Resolve(ctx, first.Token)
		assert.ErrorIs(t, err, errs.ErrUnauthorized)
		_, err = f.svc.Resolve(ctx, second.Token)
		assert.NoError(t, err)
	})

	t.Run("should reject expired handshake unless dev mode", func(t *testing.T) {
		f := newFixture(t, Settings{HandshakeTTL: 2 * time.Minute})
		handshake := f.svc.Handshake()
		f.clock.Advance(3 * time.Minute)

		_, err := f.svc.InitEmbedded(ctx, "LOC1", handshake)
		assert.ErrorIs(t, err, errs.ErrForbidden)

		_, err = f.svc.InitEmbedded(ctx, "LOC1", "")
		assert.ErrorIs(t, err, errs.ErrForbidden)

		dev := newFixture(t, Settings{DevMode: true})
		dev.crm.On("AgencyConfigured").Return(false)
		_, err = dev.svc.InitEmbedded(ctx, "LOC1", "")
		assert.NoError(t, err)
	})

	t.Run("should reject locations the CRM does not know", func(t *testing.T) {
		f := newFixture(t, Settings{})
		f.crm.On("AgencyConfigured").Return(true)
		f.crm.On("VerifyLocation", mock.Anything, "BAD").Return(nil, fmt.Errorf("lookup: %w", errs.ErrNotFound)).Once()

		_, err := f.svc.InitEmbedded(ctx, "BAD", f.svc.Handshake())

		assert.ErrorIs(t, err, errs.ErrForbidden)
		assert.Equal(t, 0, f.store.SessionCount())
	})

	t.Run("should reject and remove an expired session", func(t *testing.T) {
		f := newFixture(t, Settings{SessionTTL: 24 * time.Hour})
		f.crm.On("AgencyConfigured").Return(false)
		res, err := f.svc.InitEmbedded(ctx, "LOC1", f.svc.Handshake())
		require.NoError(t, err)

		f.clock.Advance(24*time.Hour + time.Second)
		_, err = f.svc.Resolve(ctx, res.Token)

		assert.ErrorIs(t, err, errs.ErrSessionExpired)
		assert.Equal(t, 0, f.store.SessionCount())
	})

	t.Run("should log out embedded sessions", func(t *testing.T) {
		f := newFixture(t, Settings{})
		f.crm.On("AgencyConfigured").Return(false)
		res, err := f.svc.InitEmbedded(ctx, "LOC1", f.svc.Handshake())
		require.NoError(t, err)

		require.NoError(t, f.svc.Logout(ctx, res.Token))

		_, err = f.svc.Resolve(ctx, res.Token)
		assert.ErrorIs(t, err, errs.ErrUnauthorized)
	})
}

func TestService_ResolveNeverCrossValidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Settings{})

	hexToken := strings.Repeat("0f", 32)
	_, err := f.svc.Resolve(ctx, hexToken)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Empty(t, f.tokens.verified, "hex token must not reach the signed verifier")
	assert.Equal(t, []string{hexToken}, f.sessions.hashed)

	_, err = f.svc.Resolve(ctx, "aaa.bbb.ccc")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Equal(t, []string{"aaa.bbb.ccc"}, f.tokens.verified)
	assert.Len(t, f.sessions.hashed, 1, "signed token must not reach the session verifier")

	_, err = f.svc.Resolve(ctx, "garbage")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestService_Profile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Settings{})
	res, err := f.svc.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	user, err := f.svc.Resolve(ctx, res.Token)
	require.NoError(t, err)

	profile, err := f.svc.Profile(ctx, user)
	require.NoError(t, err)
	assert.False(t, profile.CRMConnected)

	integration, err := entity.NewIntegration(user.ID, "key", "LOC1", f.clock)
	require.NoError(t, err)
	require.NoError(t, f.store.Integrations(ctx).Upsert(ctx, integration))

	profile, err = f.svc.Profile(ctx, user)
	require.NoError(t, err)
	assert.True(t, profile.CRMConnected)
}
