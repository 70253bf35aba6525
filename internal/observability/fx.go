package observability

import (
	"github.com/smallbiznis/touchbase/internal/observability/logger"
	"github.com/smallbiznis/touchbase/internal/observability/metrics"
	"github.com/smallbiznis/touchbase/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		provideLoggerConfig,
		logger.New,
		provideTracingConfig,
		tracing.NewProvider,
		provideMetricsConfig,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	fx.Invoke(logStartup),
)

// logStartup forces the tracer provider to be built before the HTTP server starts.
func logStartup(cfg Config, _ *sdktrace.TracerProvider, log *zap.Logger) {
	log.Info("observability ready",
		zap.String("log_level", cfg.LogLevel),
		zap.String("log_format", cfg.LogFormat),
		zap.Bool("otel_enabled", cfg.OtelEnabled),
		zap.String("otel_protocol", cfg.OtelExporterProtocol),
		zap.Float64("sampling_ratio", cfg.OtelSamplingRatio),
		zap.Bool("debug", cfg.Debug()),
	)
}

func provideLoggerConfig(cfg Config) logger.Config {
	return logger.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Debug:       cfg.Debug(),
	}
}

func provideTracingConfig(cfg Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.OtelEnabled,
		ServiceName:      cfg.ServiceName,
		ServiceVersion:   cfg.Version,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		SamplingRatio:    cfg.OtelSamplingRatio,
	}
}

func provideMetricsConfig(cfg Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.OtelEnabled,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		ServiceName:      cfg.ServiceName,
		Environment:      cfg.Environment,
	}
}
