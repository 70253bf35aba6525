package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 10, ClampLimit(0, 10, 100))
	assert.Equal(t, 10, ClampLimit(-5, 10, 100))
	assert.Equal(t, 25, ClampLimit(25, 10, 100))
	assert.Equal(t, 100, ClampLimit(1000, 10, 100))
	assert.Equal(t, 10, ClampLimit(0, 0, 0))
}

func TestNormalizeMetric(t *testing.T) {
	m, ok := NormalizeMetric("")
	assert.True(t, ok)
	assert.Equal(t, MetricXP, m)

	m, ok = NormalizeMetric(" Streak ")
	assert.True(t, ok)
	assert.Equal(t, MetricStreak, m)

	_, ok = NormalizeMetric("goals")
	assert.False(t, ok)
}
