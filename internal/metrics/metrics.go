package metrics

import (
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mediavault_http_requests_total",
		Help: "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	// IngestsTotal counts ingestion attempts by outcome (ok, validation,
	// not_found, storage, unknown).
	IngestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mediavault_ingests_total",
		Help: "Asset ingestion attempts by outcome.",
	}, []string{"outcome"})

	// CompensationsTotal counts compensating object deletes by result (ok, failed).
	CompensationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mediavault_compensations_total",
		Help: "Compensating object deletes by result.",
	}, []string{"result"})

	// EventsTotal counts asset_ingested publishes by result (ok, failed).
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mediavault_events_published_total",
		Help: "asset_ingested event publishes by result.",
	}, []string{"result"})
)

// InitMetrics registers the service collectors. Safe to call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequestsTotal, IngestsTotal, CompensationsTotal, EventsTotal)
	})
}

// Middleware counts every request once the handler chain completes.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}
