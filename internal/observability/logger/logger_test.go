package logger

import (
	"context"
	"testing"

	obscontext "github.com/smallbiznis/touchbase/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextOmitsMissingFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := obscontext.WithJob(context.Background(), "leaderboard_warm")
	ctx = obscontext.WithOrgID(ctx, "42")

	WithContext(ctx, zap.New(core)).Info("refreshed")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, map[string]interface{}{
		"job":    "leaderboard_warm",
		"org_id": "42",
	}, entries[0].ContextMap())
}

func TestWithContextCarriesRequestScope(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithActor(ctx, "user", "7")

	WithContext(ctx, zap.New(core)).Info("awarded")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "user", fields["actor_type"])
	assert.Equal(t, "7", fields["actor_id"])
	assert.NotContains(t, fields, "trace_id")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "chatty"})
	assert.Error(t, err)
}
