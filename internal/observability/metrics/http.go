package metrics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics holds the Prometheus request instruments scraped from /metrics.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

func NewHTTPMetrics(cfg Config) (*HTTPMetrics, error) {
	return newHTTPMetrics(prometheus.DefaultRegisterer, cfg)
}

func newHTTPMetrics(registerer prometheus.Registerer, cfg Config) (*HTTPMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	constLabels := prometheus.Labels{
		"service": serviceLabel(cfg.ServiceName),
		"env":     strings.TrimSpace(cfg.Environment),
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "touchbase_http_requests_total",
		Help:        "HTTP requests by route, method and status.",
		ConstLabels: constLabels,
	}, []string{"route", "method", "status_code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "touchbase_http_request_duration_seconds",
		Help:        "HTTP request latency by route and method.",
		ConstLabels: constLabels,
		Buckets:     prometheus.DefBuckets,
	}, []string{"route", "method"})
	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "touchbase_http_requests_in_flight",
		Help:        "HTTP requests currently being served.",
		ConstLabels: constLabels,
	})

	var err error
	if requests, err = registerCollector(registerer, requests); err != nil {
		return nil, err
	}
	if duration, err = registerCollector(registerer, duration); err != nil {
		return nil, err
	}
	if inflight, err = registerCollector(registerer, inflight); err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		requests: requests,
		duration: duration,
		inflight: inflight,
	}, nil
}

// registerCollector reuses an already registered collector of the same shape.
func registerCollector[T prometheus.Collector](registerer prometheus.Registerer, collector T) (T, error) {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}

// GinMiddleware records request counts and latency per matched route.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		m.inflight.Inc()
		start := time.Now()

		c.Next()

		m.inflight.Dec()
		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

func serviceLabel(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "touchbase"
	}
	return name
}
