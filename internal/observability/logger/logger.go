package logger

import (
	"context"
	"fmt"
	"strings"
	"time"

	obscontext "github.com/smallbiznis/touchbase/internal/observability/context"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configures the process logger.
type Config struct {
	ServiceName string
	Environment string
	Version     string
	Level       string
	Format      string
	// Debug adds caller and error stacks and turns off sampling.
	Debug bool
}

// New builds the process logger, installs it as the zap global and flushes it on stop.
func New(lc fx.Lifecycle, cfg Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stdout"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}
	zapCfg.Sampling = nil

	level := strings.TrimSpace(cfg.Level)
	if level == "" {
		level = "info"
	}
	if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	options := []zap.Option{}
	if cfg.Debug {
		options = append(options, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		// Bursts of identical award logs from one hot org are thinned out.
		options = append(options, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
		}))
	}

	log, err := zapCfg.Build(options...)
	if err != nil {
		return nil, err
	}
	log = log.With(
		zap.String("service", cfg.ServiceName),
		zap.String("env", cfg.Environment),
		zap.String("version", cfg.Version),
	)
	zap.ReplaceGlobals(log)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				_ = log.Sync()
				return nil
			},
		})
	}
	return log, nil
}

// FromContext returns the global logger with the request or job scope attached.
func FromContext(ctx context.Context) *zap.Logger {
	return WithContext(ctx, zap.L())
}

// WithContext attaches the correlation fields present on ctx. Absent ones are omitted.
func WithContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if ctx == nil || base == nil {
		return base
	}

	fields := make([]zap.Field, 0, 7)
	fields = appendNonEmpty(fields, "request_id", obscontext.RequestIDFromContext(ctx))
	fields = appendNonEmpty(fields, "job", obscontext.JobFromContext(ctx))
	fields = appendNonEmpty(fields, "org_id", obscontext.OrgIDFromContext(ctx))
	actorType, actorID := obscontext.ActorFromContext(ctx)
	fields = appendNonEmpty(fields, "actor_type", actorType)
	fields = appendNonEmpty(fields, "actor_id", actorID)

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

func appendNonEmpty(fields []zap.Field, key, value string) []zap.Field {
	if value == "" {
		return fields
	}
	return append(fields, zap.String(key, value))
}
