package observability

import (
	"testing"

	"github.com/smallbiznis/touchbase/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigNormalizesSettings(t *testing.T) {
	cfg := LoadConfig(config.Config{
		Environment:  " Production ",
		AppVersion:   "1.4.0",
		OTLPEndpoint: "collector:4318",
		Observability: config.ObservabilityConfig{
			LogFormat:         "logfmt",
			OtelEnabled:       true,
			OtelProtocol:      "http/protobuf",
			OtelSamplingRatio: 3,
		},
	})

	assert.Equal(t, "touchbase", cfg.ServiceName)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "http", cfg.OtelExporterProtocol)
	assert.True(t, cfg.OtelEnabled)
	assert.Equal(t, 1.0, cfg.OtelSamplingRatio)
	assert.False(t, cfg.Debug())
}

func TestLoadConfigDisablesExportWithoutEndpoint(t *testing.T) {
	cfg := LoadConfig(config.Config{
		Environment:   "development",
		Observability: config.ObservabilityConfig{OtelEnabled: true, LogFormat: "console"},
	})

	assert.False(t, cfg.OtelEnabled)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.True(t, cfg.Debug())
}
