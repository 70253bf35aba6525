package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBadgeQualifies(t *testing.T) {
	xp100 := Badge{Criteria: CriteriaXPTotal, Threshold: 100, Active: true}
	streak7 := Badge{Criteria: CriteriaStreak, Threshold: 7, Active: true}
	firstStep := Badge{Criteria: CriteriaMilestone, MilestoneKey: MilestoneFirstStep, Active: true}

	assert.False(t, xp100.Qualifies(XPTrigger(99)))
	assert.True(t, xp100.Qualifies(XPTrigger(100)))
	assert.False(t, xp100.Qualifies(StreakTrigger(500)))

	assert.True(t, streak7.Qualifies(StreakTrigger(8)))
	assert.False(t, streak7.Qualifies(StreakTrigger(6)))

	assert.True(t, firstStep.Qualifies(MilestoneTrigger(MilestoneFirstStep)))
	assert.False(t, firstStep.Qualifies(MilestoneTrigger(MilestoneModuleCompleted)))
	assert.False(t, firstStep.Qualifies(Trigger{}))
}

func TestInactiveBadgeNeverQualifies(t *testing.T) {
	b := Badge{Criteria: CriteriaXPTotal, Threshold: 1, Active: false}
	assert.False(t, b.Qualifies(XPTrigger(1000)))
}
