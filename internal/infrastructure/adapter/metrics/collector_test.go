package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/clipforge/internal/domain/usecase/video"
)

var _ video.Observer = (*Collector)(nil)

func TestCollector_Observer(t *testing.T) {
	c := NewCollector("test")

	c.JobCreated("sora", "standard", 30)
	c.JobCreated("sora", "standard", 30)
	c.Refunded("failed", 30)
	c.DispatchFinished("sora", nil)
	c.DispatchFinished("sora", errors.New("boom"))
	c.CallbackHandled("completed", true)
	c.QueueDropped()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.jobsCreated.WithLabelValues("sora", "standard")))
	assert.Equal(t, 60.0, testutil.ToFloat64(c.creditsCharged.WithLabelValues("sora")))
	assert.Equal(t, 30.0, testutil.ToFloat64(c.creditsRefunded))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.dispatches.WithLabelValues("sora", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.callbacksHandled.WithLabelValues("completed", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.queueDropped))
}

func TestCollector_MiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := NewCollector("test")

	router := gin.New()
	router.Use(c.Middleware())
	router.GET("/ping", func(ctx *gin.Context) { ctx.String(http.StatusOK, "pong") })
	router.GET("/metrics", c.Handler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("GET", "/ping", "200")))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "clipforge_http_requests_total")
	assert.Contains(t, rec.Body.String(), "clipforge_build_info")
}
