package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	obscontext "github.com/smallbiznis/touchbase/internal/observability/context"
	"github.com/smallbiznis/touchbase/internal/orgcontext"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// GormLoggerConfig configures the GORM zap logger.
type GormLoggerConfig struct {
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
	// ExpectedError marks store errors the services translate themselves,
	// such as unique violations on insert-if-absent paths. They log at debug.
	ExpectedError func(error) bool
}

func DefaultGormLoggerConfig() GormLoggerConfig {
	return GormLoggerConfig{
		Level:         gormlogger.Warn,
		SlowThreshold: 200 * time.Millisecond,
	}
}

// GormLogger writes query logs through zap with the org and member that issued them.
type GormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	expected      func(error) bool
	base          *zap.Logger
}

func NewGormLogger(cfg GormLoggerConfig) *GormLogger {
	return &GormLogger{
		level:         cfg.Level,
		slowThreshold: cfg.SlowThreshold,
		expected:      cfg.ExpectedError,
	}
}

// WithLogger returns a copy writing through log instead of the global logger.
func (l *GormLogger) WithLogger(log *zap.Logger) *GormLogger {
	clone := *l
	clone.base = log
	return &clone
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.message(ctx, zap.InfoLevel, msg, data)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.message(ctx, zap.WarnLevel, msg, data)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.message(ctx, zap.ErrorLevel, msg, data)
	}
}

func (l *GormLogger) message(ctx context.Context, level zapcore.Level, msg string, data []interface{}) {
	fields := []zap.Field{zap.String("component", "gorm")}
	if len(data) > 0 {
		fields = append(fields, zap.Any("data", data))
	}
	l.logger(ctx).Log(level, msg, fields...)
}

// Trace logs failed and slow statements. Record-not-found is never logged:
// repositories map it to nil results or domain not-found errors.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && errors.Is(err, gormlogger.ErrRecordNotFound):
		return
	case err != nil && l.expected != nil && l.expected(err):
		if l.level >= gormlogger.Info {
			l.logQuery(ctx, fc, elapsed, err, zap.DebugLevel)
		}
	case err != nil && l.level >= gormlogger.Error:
		l.logQuery(ctx, fc, elapsed, err, zap.ErrorLevel)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		l.logQuery(ctx, fc, elapsed, nil, zap.WarnLevel)
	case l.level >= gormlogger.Info:
		l.logQuery(ctx, fc, elapsed, nil, zap.DebugLevel)
	}
}

// ParamsFilter drops bound values; step data and metadata payloads never reach the logs.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

func (l *GormLogger) logQuery(ctx context.Context, fc func() (string, int64), elapsed time.Duration, err error, level zapcore.Level) {
	sql, rows := fc()
	op, table := describeSQL(sql)
	fields := []zap.Field{
		zap.String("component", "gorm"),
		zap.String("operation", op),
		zap.String("table", table),
		zap.String("sql", strings.TrimSpace(sql)),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows_affected", rows))
	}
	if level == zap.WarnLevel {
		fields = append(fields, zap.Int64("slow_threshold_ms", l.slowThreshold.Milliseconds()))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.logger(ctx).Log(level, "gorm.query", fields...)
}

// logger falls back to the org scope set by the org middleware when the
// request logger has not recorded one, as in service calls made from jobs and tests.
func (l *GormLogger) logger(ctx context.Context) *zap.Logger {
	if ctx == nil {
		ctx = context.Background()
	}
	if obscontext.OrgIDFromContext(ctx) == "" {
		if orgID, ok := orgcontext.OrgIDFromContext(ctx); ok {
			ctx = obscontext.WithOrgID(ctx, orgID.String())
		}
	}
	if actorType, _ := obscontext.ActorFromContext(ctx); actorType == "" {
		if userID, ok := orgcontext.UserIDFromContext(ctx); ok {
			ctx = obscontext.WithActor(ctx, "member", userID.String())
		}
	}
	base := l.base
	if base == nil {
		base = zap.L()
	}
	return WithContext(ctx, base)
}

// describeSQL returns the statement verb and the first table it touches.
func describeSQL(sql string) (string, string) {
	tokens := strings.Fields(strings.TrimSpace(sql))
	op := "UNKNOWN"
	for i, raw := range tokens {
		token := strings.ToUpper(strings.Trim(raw, "();"))
		switch token {
		case "SELECT", "INSERT", "UPDATE", "DELETE", "MERGE":
			if op == "UNKNOWN" {
				op = token
			}
			if token == "UPDATE" && i+1 < len(tokens) {
				return op, tableName(tokens[i+1])
			}
		case "FROM", "INTO":
			if op != "UNKNOWN" && i+1 < len(tokens) {
				return op, tableName(tokens[i+1])
			}
		}
	}
	return op, ""
}

func tableName(raw string) string {
	name := strings.Trim(raw, "`\"();,")
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		name = name[dot+1:]
	}
	return strings.Trim(strings.ToLower(name), "`\"")
}

var _ gormlogger.Interface = (*GormLogger)(nil)
