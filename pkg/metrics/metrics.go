// Package metrics exposes Prometheus collectors for HTTP traffic, the
// geocoder and the cache.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Payphone-Digital/locatory/pkg/circuit"
	"github.com/Payphone-Digital/locatory/pkg/geo"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "locatory"

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	geocodeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding requests by outcome",
		},
		[]string{"provider", "result"}, // ok / empty / error / circuit_open
	)

	geocodeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_request_duration_seconds",
			Help:      "Geocoding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"name"},
	)

	cacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_total",
			Help:      "Cache lookups by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestDuration,
		httpRequestsTotal,
		geocodeRequestsTotal,
		geocodeDuration,
		breakerState,
		cacheTotal,
	)
}

// Middleware records request duration and count per route pattern.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveBreaker is a circuit.Config.OnStateChange hook.
func ObserveBreaker(name string, _, to circuit.State) {
	breakerState.WithLabelValues(name).Set(float64(to))
}

// ObserveCache counts a cache hit or miss.
func ObserveCache(hit bool) {
	if hit {
		cacheTotal.WithLabelValues("hit").Inc()
		return
	}
	cacheTotal.WithLabelValues("miss").Inc()
}

// InstrumentedGeocoder counts and times calls to the wrapped geocoder.
type InstrumentedGeocoder struct {
	next     geo.Geocoder
	provider string
}

func InstrumentGeocoder(next geo.Geocoder, provider string) *InstrumentedGeocoder {
	return &InstrumentedGeocoder{next: next, provider: provider}
}

func (g *InstrumentedGeocoder) Geocode(ctx context.Context, query string) ([]geo.Location, error) {
	start := time.Now()
	matches, err := g.next.Geocode(ctx, query)
	geocodeDuration.WithLabelValues(g.provider).Observe(time.Since(start).Seconds())

	result := "ok"
	switch {
	case errors.Is(err, circuit.ErrCircuitOpen), errors.Is(err, circuit.ErrTooManyRequests):
		result = "circuit_open"
	case err != nil:
		result = "error"
	case len(matches) == 0:
		result = "empty"
	}
	geocodeRequestsTotal.WithLabelValues(g.provider, result).Inc()
	return matches, err
}
