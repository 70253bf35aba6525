package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/touchbase/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/touchbase/internal/observability/metrics"
	"github.com/smallbiznis/touchbase/internal/ratelimit"
	"go.uber.org/zap"
)

const rateLimitReasonUserRate = "user-rate"

type xpAwardLimiter interface {
	Enabled() bool
	Allow(ctx context.Context, orgID, userID string) (*ratelimit.RateLimitResult, error)
}

// XPAwardRateLimit applies the per (org, user) token bucket to XP award calls.
// Limiter failures let the request through.
func (s *Server) XPAwardRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.xpLimiter == nil || !s.xpLimiter.Enabled() {
			c.Next()
			return
		}

		orgID, userID, ok := s.scope(c)
		if !ok {
			return
		}

		endpoint := normalizeRateLimitEndpoint(c)
		ctx := c.Request.Context()

		result, err := s.xpLimiter.Allow(ctx, orgID.String(), userID.String())
		if err != nil {
			logger.FromContext(ctx).Warn("xp award rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if result != nil && result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		}
		if result != nil && !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			denyXPAwardRateLimit(c, endpoint, orgID.String(), retryAfter, s.obsMetrics)
			return
		}

		recordRateLimitAllowed(ctx, endpoint, orgID.String(), s.obsMetrics)
		c.Next()
	}
}

func denyXPAwardRateLimit(c *gin.Context, endpoint, orgID string, retryAfter int, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Debug("xp award rate limit exceeded",
		zap.String("reason", rateLimitReasonUserRate),
		zap.String("endpoint", endpoint),
	)
	recordRateLimitDenied(ctx, endpoint, orgID, rateLimitReasonUserRate, metrics)

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-Rate-Limited-Reason", rateLimitReasonUserRate)
	AbortWithError(c, ErrRateLimited)
}

func recordRateLimitAllowed(ctx context.Context, endpoint, orgID string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitAllowed(ctx, orgID, endpoint)
}

func recordRateLimitDenied(ctx context.Context, endpoint, orgID, reason string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitDenied(ctx, orgID, endpoint, reason)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
