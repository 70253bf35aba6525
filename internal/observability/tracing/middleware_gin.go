package tracing

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/touchbase/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "touchbase/http"

// untracedPaths are polled by infrastructure and never traced.
var untracedPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// GinMiddleware opens a server span per API request. The span is named after
// the matched route and tagged with the org, member and XP action the request
// resolved to.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer(tracerName)
	return func(c *gin.Context) {
		if _, skip := untracedPaths[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		method := strings.ToUpper(c.Request.Method)
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		span.SetName(method + " " + route)

		status := c.Writer.Status()
		span.SetAttributes(requestAttributes(c, route, status)...)
		if status >= http.StatusInternalServerError {
			if last := c.Errors.Last(); last != nil {
				span.RecordError(SafeError(last.Err))
			}
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

// requestAttributes reads the scope the handlers attached to the request context.
func requestAttributes(c *gin.Context, route string, status int) []attribute.KeyValue {
	ctx := c.Request.Context()
	attrs := []attribute.KeyValue{
		attribute.String("http.method", c.Request.Method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	}
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		attrs = append(attrs, attribute.String("request_id", requestID))
	}
	if orgID := obscontext.OrgIDFromContext(ctx); orgID != "" {
		attrs = append(attrs, attribute.String("touchbase.org_id", orgID))
	}
	if _, actorID := obscontext.ActorFromContext(ctx); actorID != "" {
		attrs = append(attrs, attribute.String("touchbase.actor_id", actorID))
	}
	if action := c.GetString("xp_action"); action != "" {
		attrs = append(attrs, attribute.String("touchbase.xp_action", action))
	}
	return SafeAttributes(attrs...)
}
