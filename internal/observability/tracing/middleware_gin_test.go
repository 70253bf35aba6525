package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/touchbase/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordedEngine(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/xp/award", func(c *gin.Context) {
		ctx := obscontext.WithOrgID(c.Request.Context(), "42")
		ctx = obscontext.WithActor(ctx, "user", "7")
		c.Request = c.Request.WithContext(ctx)
		c.Set("xp_action", "complete_step")
		c.Status(http.StatusOK)
	})
	r.GET("/api/leaderboard", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusInternalServerError)
	})
	return r, recorder
}

func spanAttributes(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestGinMiddlewareTagsAwardSpan(t *testing.T) {
	r, recorder := recordedEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/xp/award", nil))
	require.Equal(t, http.StatusOK, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST /api/xp/award", spans[0].Name())
	attrs := spanAttributes(spans[0])
	assert.Equal(t, "42", attrs["touchbase.org_id"].AsString())
	assert.Equal(t, "7", attrs["touchbase.actor_id"].AsString())
	assert.Equal(t, "complete_step", attrs["touchbase.xp_action"].AsString())
	assert.EqualValues(t, http.StatusOK, attrs["http.status_code"].AsInt64())
}

func TestGinMiddlewareSkipsHealth(t *testing.T) {
	r, recorder := recordedEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorder.Ended())
}

func TestGinMiddlewareMarksServerErrors(t *testing.T) {
	r, recorder := recordedEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}
