package domain

import (
	"testing"

	"github.com/smallbiznis/touchbase/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	levels := config.DefaultGamificationRules().Levels

	cur, next := LevelFor(levels, 0)
	assert.Equal(t, 1, cur.Level)
	require.NotNil(t, next)
	assert.Equal(t, int64(100), next.MinXP)

	cur, next = LevelFor(levels, 100)
	assert.Equal(t, 2, cur.Level)
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Level)

	cur, next = LevelFor(levels, 5000)
	assert.Equal(t, 5, cur.Level)
	assert.Nil(t, next)
}

func TestLevelForWithoutLevels(t *testing.T) {
	cur, next := LevelFor(nil, 42)
	assert.Equal(t, 1, cur.Level)
	assert.Nil(t, next)
}
