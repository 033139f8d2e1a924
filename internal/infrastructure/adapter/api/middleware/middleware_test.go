package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	domainerr "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRefererAllowed(t *testing.T) {
	patterns := []string{"app.gohighlevel.com", "*.leadconnectorhq.com"}

	tests := []struct {
		referer string
		want    bool
	}{
		{"https://app.gohighlevel.com/v2/location/abc", true},
		{"https://APP.GoHighLevel.com/", true},
		{"https://gohighlevel.com/", false},
		{"https://leadconnectorhq.com/", true},
		{"https://app.leadconnectorhq.com/x", true},
		{"https://evilleadconnectorhq.com/", false},
		{"https://app.gohighlevel.com.evil.io/", false},
		{"not a url", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RefererAllowed(tt.referer, patterns), tt.referer)
	}
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://app.example.com"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://other.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

type resolverFunc func(ctx context.Context, bearer string) (*entity.User, error)

func (f resolverFunc) Resolve(ctx context.Context, bearer string) (*entity.User, error) {
	return f(ctx, bearer)
}

func TestAuth(t *testing.T) {
	user, err := entity.NewUser("alice", "alice@example.com", "hash", 0, entity.AuthTypePassword, testutil.NewClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	resolver := resolverFunc(func(_ context.Context, bearer string) (*entity.User, error) {
		switch bearer {
		case "good":
			return user, nil
		case "expired":
			return nil, domainerr.ErrSessionExpired
		default:
			return nil, domainerr.ErrUnauthorized
		}
	})

	router := gin.New()
	router.GET("/me", Auth(resolver), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Username)
	})

	serve := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := serve("Bearer good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve("").Code)
	assert.Equal(t, http.StatusUnauthorized, serve("Basic good").Code)
	assert.Equal(t, http.StatusUnauthorized, serve("Bearer expired").Code)
}

type captured struct {
	errs   []error
	panics []any
}

func (c *captured) CaptureError(_ context.Context, err error, _ map[string]any) {
	c.errs = append(c.errs, err)
}

func (c *captured) CapturePanic(_ context.Context, recovered any, _ map[string]any) {
	c.panics = append(c.panics, recovered)
}

func TestErrorHandler(t *testing.T) {
	reporter := &captured{}
	router := gin.New()
	router.Use(RequestID(), ErrorHandler(testutil.QuietLogger(t), reporter))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("db down"))
		c.Status(http.StatusInternalServerError)
	})
	router.GET("/client", func(c *gin.Context) {
		_ = c.Error(domainerr.ErrValidation)
		c.Status(http.StatusBadRequest)
	})
	router.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, coreport.RequestIDFrom(c.Request.Context()))
	})

	for _, path := range []string{"/panic", "/fail", "/client"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, []any{"boom"}, reporter.panics)
	require.Len(t, reporter.errs, 1)
	assert.EqualError(t, reporter.errs[0], "db down")

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-7", rec.Body.String())
	assert.Equal(t, "req-7", rec.Header().Get(RequestIDHeader))
}
