package observability

import (
	"strings"

	"github.com/smallbiznis/touchbase/internal/config"
)

const defaultServiceName = "touchbase"

// Config is the observability view of the application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	obs := cfg.Observability
	level := obs.LogLevel
	if level == "" {
		level = "info"
	}
	format := obs.LogFormat
	if format != "console" {
		format = "json"
	}
	protocol := "grpc"
	if strings.HasPrefix(obs.OtelProtocol, "http") {
		protocol = "http"
	}

	return Config{
		ServiceName:          serviceName,
		Environment:          strings.ToLower(strings.TrimSpace(cfg.Environment)),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             level,
		LogFormat:            format,
		OtelEnabled:          obs.OtelEnabled && strings.TrimSpace(cfg.OTLPEndpoint) != "",
		OtelExporterEndpoint: strings.TrimSpace(cfg.OTLPEndpoint),
		OtelExporterProtocol: protocol,
		OtelSamplingRatio:    clampRatio(obs.OtelSamplingRatio),
	}
}

// Debug turns on gin debug mode, error stacks and request stack fields.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch c.Environment {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func clampRatio(ratio float64) float64 {
	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	default:
		return ratio
	}
}
