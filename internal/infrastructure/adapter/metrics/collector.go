// Package metrics exports Prometheus metrics for the HTTP surface and the
// video job lifecycle.
package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clipforge"

// Collector owns a registry and every metric the service exports
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	inFlight            prometheus.Gauge

	jobsCreated      *prometheus.CounterVec
	creditsCharged   *prometheus.CounterVec
	callbacksHandled *prometheus.CounterVec
	refunds          *prometheus.CounterVec
	creditsRefunded  prometheus.Counter
	dispatches       *prometheus.CounterVec
	queueDropped     prometheus.Counter
}

// NewCollector registers all metrics on a fresh registry
func NewCollector(version string) *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "endpoint", "status"})

	c.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	c.inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "Requests currently being served",
	})

	c.jobsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "video_jobs_created_total",
		Help:      "Video jobs accepted and charged",
	}, []string{"service", "tier"})

	c.creditsCharged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credits_charged_total",
		Help:      "Credits debited for video jobs",
	}, []string{"service"})

	c.callbacksHandled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "video_callbacks_total",
		Help:      "Worker callbacks by reported status and whether they changed the job",
	}, []string{"status", "applied"})

	c.refunds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "video_refunds_total",
		Help:      "Refunds issued for failed jobs",
	}, []string{"reason"})

	c.creditsRefunded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credits_refunded_total",
		Help:      "Credits returned to users",
	})

	c.dispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "video_dispatches_total",
		Help:      "Dispatch attempts to the generation worker",
	}, []string{"service", "result"})

	c.queueDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_queue_dropped_total",
		Help:      "Jobs that could not be queued for dispatch",
	})

	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information",
	}, []string{"version"})
	buildInfo.WithLabelValues(version).Set(1)

	c.registry.MustRegister(
		c.httpRequestsTotal, c.httpRequestDuration, c.inFlight,
		c.jobsCreated, c.creditsCharged, c.callbacksHandled,
		c.refunds, c.creditsRefunded, c.dispatches, c.queueDropped,
		buildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// RegisterDB exports connection pool statistics of db
func (c *Collector) RegisterDB(db *sql.DB) {
	c.registry.MustRegister(collectors.NewDBStatsCollector(db, namespace))
}

// Middleware records request count and latency per route
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		c.inFlight.Inc()
		defer c.inFlight.Dec()

		ctx.Next()

		endpoint := ctx.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		method := ctx.Request.Method
		c.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.httpRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() gin.HandlerFunc {
	handler := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	return gin.WrapH(handler)
}

// JobCreated implements video.Observer
func (c *Collector) JobCreated(service, tier string, credits int64) {
	c.jobsCreated.WithLabelValues(service, tier).Inc()
	c.creditsCharged.WithLabelValues(service).Add(float64(credits))
}

// CallbackHandled implements video.Observer
func (c *Collector) CallbackHandled(status string, applied bool) {
	c.callbacksHandled.WithLabelValues(status, strconv.FormatBool(applied)).Inc()
}

// Refunded implements video.Observer
func (c *Collector) Refunded(reason string, credits int64) {
	c.refunds.WithLabelValues(reason).Inc()
	c.creditsRefunded.Add(float64(credits))
}

// DispatchFinished implements video.Observer
func (c *Collector) DispatchFinished(service string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.dispatches.WithLabelValues(service, result).Inc()
}

// QueueDropped implements video.Observer
func (c *Collector) QueueDropped() {
	c.queueDropped.Inc()
}
