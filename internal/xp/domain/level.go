package domain

import "github.com/smallbiznis/touchbase/internal/config"

// LevelFor returns the highest level whose threshold total has reached and the level after it.
func LevelFor(levels []config.Level, total int64) (Level, *Level) {
	current := Level{Level: 1, Name: "Level 1"}
	var next *Level
	for i, l := range levels {
		if total >= l.MinXP {
			current = Level{Level: l.Level, Name: l.Name, MinXP: l.MinXP}
			continue
		}
		n := Level{Level: levels[i].Level, Name: levels[i].Name, MinXP: levels[i].MinXP}
		next = &n
		break
	}
	return current, next
}
