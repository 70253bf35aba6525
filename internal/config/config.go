package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewGamificationRulesHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	Observability ObservabilityConfig
	Auth          AuthConfig
	RateLimit   RateLimitConfig
	Streak      StreakConfig
	Leaderboard LeaderboardConfig
	Scheduler   SchedulerConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBRunMigrations   bool
	DBSeedDemo        bool
	DBSlowQueryMillis int
}

// ObservabilityConfig covers logging and OpenTelemetry export.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string

	OtelEnabled       bool
	OtelProtocol      string
	OtelSamplingRatio float64
}

// AuthConfig controls bearer token verification for the identity provider.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Audience  string
	// DevBypass accepts the X-Dev-User header outside production.
	DevBypass bool
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	XPAwardRate  float64
	XPAwardBurst int

	StreakLockTTLSeconds int
}

type StreakConfig struct {
	Timezone string
}

type LeaderboardConfig struct {
	DefaultLimit    int
	MaxLimit        int
	CacheTTLSeconds int
}

// SchedulerConfig drives the background maintenance jobs.
type SchedulerConfig struct {
	Enabled            bool
	RunIntervalSeconds int
	BatchSize          int
	EnabledJobs        []string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	devBypass := getenvBool("AUTH_DEV_BYPASS", false)
	if environment == "production" {
		devBypass = false
	}

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "touchbase"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  environment,
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317")),
		Observability: ObservabilityConfig{
			LogLevel:          strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:         strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", defaultLogFormat(environment)))),
			OtelEnabled:       getenvBool("OTEL_ENABLED", true),
			OtelProtocol:      strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			OtelSamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", defaultSamplingRatio(environment)),
		},
		Auth: AuthConfig{
			JWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
			Issuer:    strings.TrimSpace(getenv("AUTH_JWT_ISSUER", "")),
			Audience:  strings.TrimSpace(getenv("AUTH_JWT_AUDIENCE", "authenticated")),
			DevBypass: devBypass,
		},
		RateLimit: RateLimitConfig{
			Enabled:              getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:            strings.TrimSpace(getenv("REDIS_ADDR", "")),
			RedisPassword:        strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			RedisDB:              getenvInt("REDIS_DB", 0),
			XPAwardRate:          getenvFloat("RATE_LIMIT_XP_AWARD_RATE", 2),
			XPAwardBurst:         getenvInt("RATE_LIMIT_XP_AWARD_BURST", 20),
			StreakLockTTLSeconds: getenvInt("STREAK_LOCK_TTL_SECONDS", 5),
		},
		Streak: StreakConfig{
			Timezone: getenv("STREAK_TIMEZONE", "UTC"),
		},
		Leaderboard: LeaderboardConfig{
			DefaultLimit:    getenvInt("LEADERBOARD_DEFAULT_LIMIT", 10),
			MaxLimit:        getenvInt("LEADERBOARD_MAX_LIMIT", 100),
			CacheTTLSeconds: getenvInt("LEADERBOARD_CACHE_TTL_SECONDS", 0),
		},
		Scheduler: SchedulerConfig{
			Enabled:            getenvBool("SCHEDULER_ENABLED", true),
			RunIntervalSeconds: getenvInt("SCHEDULER_RUN_INTERVAL_SECONDS", 300),
			BatchSize:          getenvInt("SCHEDULER_BATCH_SIZE", 100),
			EnabledJobs:        splitList(getenv("SCHEDULER_JOBS", "")),
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "postgres"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "touchbase.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBRunMigrations:   getenvBool("DATABASE_RUN_MIGRATIONS", true),
		DBSeedDemo:        getenvBool("DATABASE_SEED_DEMO", false),
		DBSlowQueryMillis: getenvInt("DATABASE_SLOW_QUERY_MS", 200),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// Local runs log for humans and trace every request.
func defaultLogFormat(environment string) string {
	if environment == "production" {
		return "json"
	}
	return "console"
}

func defaultSamplingRatio(environment string) float64 {
	if environment == "production" {
		return 0.1
	}
	return 1
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
