package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	xpAwarded        metric.Int64Counter
	xpPoints         metric.Int64Counter
	badgesAwarded    metric.Int64Counter
	streakUpdates    metric.Int64Counter
	progressUpdates  metric.Int64Counter
	rateLimitAllowed metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
	jobRuns          metric.Int64Counter
	jobDuration      metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "touchbase"
	}
	meter := provider.Meter(name)

	xpAwarded, err := meter.Int64Counter("touchbase_xp_awarded_total")
	if err != nil {
		return nil, err
	}
	xpPoints, err := meter.Int64Counter("touchbase_xp_points_total")
	if err != nil {
		return nil, err
	}
	badgesAwarded, err := meter.Int64Counter("touchbase_badges_awarded_total")
	if err != nil {
		return nil, err
	}
	streakUpdates, err := meter.Int64Counter("touchbase_streak_updates_total")
	if err != nil {
		return nil, err
	}
	progressUpdates, err := meter.Int64Counter("touchbase_progress_updates_total")
	if err != nil {
		return nil, err
	}
	rateLimitAllowed, err := meter.Int64Counter("touchbase_rate_limit_allowed_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("touchbase_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	jobRuns, err := meter.Int64Counter("touchbase_scheduler_job_runs_total")
	if err != nil {
		return nil, err
	}
	jobDuration, err := meter.Float64Histogram("touchbase_scheduler_job_duration_seconds", metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		xpAwarded:        xpAwarded,
		xpPoints:         xpPoints,
		badgesAwarded:    badgesAwarded,
		streakUpdates:    streakUpdates,
		progressUpdates:  progressUpdates,
		rateLimitAllowed: rateLimitAllowed,
		rateLimitDenied:  rateLimitDenied,
		jobRuns:          jobRuns,
		jobDuration:      jobDuration,
	}, nil
}

// RecordXPAward counts an award and the points it carried.
func (m *Metrics) RecordXPAward(ctx context.Context, action string, points int64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("action", strings.TrimSpace(action)))
	m.xpAwarded.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.xpPoints.Add(ctx, points, metric.WithAttributes(attrs...))
}

// RecordBadgeAwarded increments newly granted badge counts.
func (m *Metrics) RecordBadgeAwarded(ctx context.Context, badgeCode string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("badge", strings.TrimSpace(badgeCode)))
	m.badgesAwarded.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordStreakUpdate counts streak updates by outcome.
func (m *Metrics) RecordStreakUpdate(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.streakUpdates.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordProgressUpdate counts progress updates by outcome.
func (m *Metrics) RecordProgressUpdate(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.progressUpdates.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitAllowed increments rate limit allow counts.
func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, orgID, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("org_id", strings.TrimSpace(orgID)),
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
	)
	m.rateLimitAllowed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, orgID, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("org_id", strings.TrimSpace(orgID)),
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordJobRun counts one scheduler job run and its duration.
func (m *Metrics) RecordJobRun(ctx context.Context, job, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("job", strings.TrimSpace(job)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.jobRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.jobDuration.Record(ctx, took.Seconds(), metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"org_id":      {},
	"endpoint":    {},
	"status_code": {},
	"action":      {},
	"badge":       {},
	"outcome":     {},
	"reason":      {},
	"job":         {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
