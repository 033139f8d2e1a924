package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	"github.com/amirhossein-jamali/clipforge/internal/domain/usecase/billing"
	"github.com/amirhossein-jamali/clipforge/internal/domain/usecase/identity"
	"github.com/amirhossein-jamali/clipforge/internal/domain/usecase/integration"
	"github.com/amirhossein-jamali/clipforge/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/clipforge/internal/domain/usecase/video"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/middleware"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/security"
	"github.com/amirhossein-jamali/clipforge/internal/testutil"
	gatewaymocks "github.com/amirhossein-jamali/clipforge/mocks/port/gateway"
)

const callbackSecret = "hook-secret"

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type app struct {
	router   *gin.Engine
	store    *testutil.Store
	ledger   *ledger.Service
	payments *gatewaymocks.MockPaymentGateway
}

func newApp(t *testing.T, pingErr error) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := testutil.NewClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	store := testutil.NewStore()
	logger := testutil.QuietLogger(t)

	tokens, err := security.NewJWTIssuer("test-secret", time.Hour, clock)
	require.NoError(t, err)
	handshakes := security.NewHMACHandshakeSigner("test-secret")

	crm := gatewaymocks.NewMockCRMClient(t)
	crm.On("AgencyConfigured").Return(false).Maybe()
	payments := gatewaymocks.NewMockPaymentGateway(t)
	dispatcher := gatewaymocks.NewMockVideoDispatcher(t)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	enhancer := gatewaymocks.NewMockPromptEnhancer(t)

	ledgerSvc := ledger.NewService(store, clock, logger)
	table, err := video.NewDispatchTable("https://hooks.example.com/generate", nil)
	require.NoError(t, err)
	queue := video.NewDispatchQueue(dispatcher, 1, 10, time.Second, logger, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue.Shutdown(ctx)
	})

	identitySvc := identity.NewService(store, tokens, handshakes, security.NewRandomSessionTokens(),
		security.NewBcryptHasher(4), crm, identity.Settings{}, clock, logger)
	videoSvc := video.NewService(video.Config{
		UnitOfWork:   store,
		Ledger:       ledgerSvc,
		Table:        table,
		Queue:        queue,
		Enhancer:     enhancer,
		CallbackURL:  "https://app.example.com/api/videos/callback",
		TimeProvider: clock,
		Logger:       logger,
	})
	billingSvc := billing.NewService(store, ledgerSvc, payments, "https://app.example.com", clock, logger)
	integrationSvc := integration.NewService(store, crm, clock, logger)

	router := gin.New()
	SetupMiddlewares(router, logger, nil, nil, nil)
	SetupRoutes(router, Handlers{
		Auth:        handler.NewAuthHandler(identitySvc, logger),
		Videos:      handler.NewVideoHandler(videoSvc, callbackSecret, logger),
		Billing:     handler.NewBillingHandler(billingSvc, logger),
		Integration: handler.NewIntegrationHandler(integrationSvc, logger),
		Health:      handler.NewHealthHandler(fakePinger{err: pingErr}, "test", logger),
	}, identitySvc, EmbedOptions{
		Sign: identitySvc.Handshake,
		TTL:  2 * time.Minute,
	}, "/metrics")

	return &app{router: router, store: store, ledger: ledgerSvc, payments: payments}
}

func (a *app) do(t *testing.T, method, path string, body any, headers map[string]string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a *app) register(t *testing.T) (string, string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	user := body["user"].(map[string]any)
	return body["token"].(string), user["id"].(string)
}

func TestRoutes_RegisterLoginProfile(t *testing.T) {
	a := newApp(t, nil)
	token, _ := a.register(t)

	rec := a.do(t, http.MethodGet, "/api/auth/profile", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode(t, rec)["user"].(map[string]any)["username"])
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = a.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "alice@example.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["token"])

	rec = a.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "wrong-pass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "secret123",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRoutes_RequireBearer(t *testing.T) {
	a := newApp(t, nil)

	rec := a.do(t, http.MethodGet, "/api/videos/list", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/videos/list", nil, bearer("not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_VideoLifecycleWithRefund(t *testing.T) {
	a := newApp(t, nil)
	token, userID := a.register(t)

	rec := a.do(t, http.MethodPost, "/api/videos/generate", map[string]string{"prompt": "a cat surfing"}, bearer(token))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no credits yet")

	var user entity.User
	for _, u := range mustUsers(t, a) {
		if u.ID.String() == userID {
			user = *u
		}
	}
	_, err := a.ledger.Credit(context.Background(), user.ID, 10, entity.CreditKindPurchase, "grant", "")
	require.NoError(t, err)

	rec = a.do(t, http.MethodPost, "/api/videos/generate", map[string]string{"prompt": "a cat surfing"}, bearer(token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	videoID := decode(t, rec)["video"].(map[string]any)["id"].(string)
	assert.Equal(t, int64(5), a.store.Balance(user.ID))

	rec = a.do(t, http.MethodGet, "/api/videos/list", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["videos"], 1)

	callback := map[string]string{"video_id": videoID, "status": "failed", "error_message": "worker crashed"}
	rec = a.do(t, http.MethodPost, "/api/videos/callback", callback, map[string]string{handler.CallbackSecretHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	secret := map[string]string{handler.CallbackSecretHeader: callbackSecret}
	rec = a.do(t, http.MethodPost, "/api/videos/callback", callback, secret)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])
	assert.Equal(t, int64(10), a.store.Balance(user.ID))

	// replay is acknowledged but refunds nothing
	rec = a.do(t, http.MethodPost, "/api/videos/callback", callback, secret)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(10), a.store.Balance(user.ID))

	rec = a.do(t, http.MethodGet, "/api/videos/"+videoID, nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "failed", decode(t, rec)["video"].(map[string]any)["status"])

	rec = a.do(t, http.MethodGet, "/api/videos/not-a-uuid", nil, bearer(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func mustUsers(t *testing.T, a *app) []*entity.User {
	t.Helper()
	users, err := a.store.Users(context.Background()).List(context.Background())
	require.NoError(t, err)
	return users
}

func TestRoutes_EmbeddedSession(t *testing.T) {
	a := newApp(t, nil)

	rec := a.do(t, http.MethodGet, "/embed", nil, map[string]string{"Referer": "https://evil.example.com/"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["verified"])
	assert.Empty(t, rec.Result().Cookies())

	rec = a.do(t, http.MethodGet, "/embed", nil, map[string]string{"Referer": "https://app.gohighlevel.com/v2/location/loc-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["verified"])

	var handshake *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.HandshakeCookie {
			handshake = c
		}
	}
	require.NotNil(t, handshake)
	assert.True(t, handshake.HttpOnly)
	assert.True(t, handshake.Secure)
	assert.Equal(t, http.SameSiteNoneMode, handshake.SameSite)

	rec = a.do(t, http.MethodGet, "/api/init?location_id=loc-1", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "no handshake cookie")

	rec = a.do(t, http.MethodGet, "/api/init?location_id=loc-1", nil, nil, handshake)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	sessionToken := body["session_token"].(string)
	assert.Len(t, sessionToken, 64)
	assert.Equal(t, "ghl_loc-1", body["user"].(map[string]any)["username"])
	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.HandshakeCookie {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)

	rec = a.do(t, http.MethodGet, "/api/auth/profile", nil, bearer(sessionToken))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/auth/logout", nil, bearer(sessionToken))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/auth/profile", nil, bearer(sessionToken))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// the signed handshake is bounded by its TTL, not by a single use
	rec = a.do(t, http.MethodGet, "/api/init?location_id=loc-1", nil, nil, handshake)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEqual(t, sessionToken, decode(t, rec)["session_token"])
}

func TestRoutes_StripeWebhookBadSignature(t *testing.T) {
	a := newApp(t, nil)
	a.payments.On("ParseWebhook", mock.Anything, "t=1,v1=bad").Return(nil, errors.New("bad signature"))

	rec := a.do(t, http.MethodPost, "/api/stripe/webhook", map[string]string{"id": "evt"}, map[string]string{"Stripe-Signature": "t=1,v1=bad"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutes_PackagesAndHealth(t *testing.T) {
	a := newApp(t, nil)

	rec := a.do(t, http.MethodGet, "/api/credits/packages", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["packages"])

	rec = a.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	down := newApp(t, errors.New("connection refused"))
	rec = down.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
