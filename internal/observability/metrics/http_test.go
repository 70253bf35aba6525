package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGinMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m, err := newHTTPMetrics(registry, Config{ServiceName: "touchbase", Environment: "test"})
	require.NoError(t, err)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/api/leaderboards/org", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboards/org", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	count := testutil.ToFloat64(m.requests.WithLabelValues("/api/leaderboards/org", http.MethodGet, "200"))
	assert.Equal(t, float64(3), count)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.inflight))
}

func TestNewHTTPMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first, err := newHTTPMetrics(registry, Config{ServiceName: "touchbase"})
	require.NoError(t, err)
	second, err := newHTTPMetrics(registry, Config{ServiceName: "touchbase"})
	require.NoError(t, err)
	assert.Same(t, first.requests, second.requests)
}
