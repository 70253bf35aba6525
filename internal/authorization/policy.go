package authorization

import "strings"

const (
	ObjectXP          = "xp"
	ObjectStreak      = "streak"
	ObjectBadge       = "badge"
	ObjectLeaderboard = "leaderboard"
	ObjectModule      = "module"
	ObjectProgress    = "progress"
	ObjectClass       = "class"
	ObjectAssignment  = "assignment"
	ObjectTeam        = "team"
	ObjectMember      = "member"
)

const (
	ActionXPAward   = "xp.award"
	ActionXPView    = "xp.view"
	ActionStreakLog = "streak.update"

	ActionBadgeView   = "badge.view"
	ActionBadgeManage = "badge.manage"

	ActionLeaderboardView = "leaderboard.view"

	ActionModuleView   = "module.view"
	ActionModuleManage = "module.manage"

	ActionProgressTrack = "progress.track"

	ActionClassView   = "class.view"
	ActionClassManage = "class.manage"
	ActionClassJoin   = "class.join"

	ActionAssignmentView   = "assignment.view"
	ActionAssignmentManage = "assignment.manage"
	ActionAssignmentSubmit = "assignment.submit"
	ActionAssignmentGrade  = "assignment.grade"

	ActionTeamView   = "team.view"
	ActionTeamManage = "team.manage"

	ActionMemberView   = "member.view"
	ActionMemberManage = "member.manage"
)

var (
	everyone     = []string{"owner", "admin", "coach", "teacher", "student", "player", "viewer"}
	participants = []string{"owner", "admin", "coach", "teacher", "student", "player"}
	educators    = []string{"owner", "admin", "teacher"}
	coaches      = []string{"owner", "admin", "coach"}
	managers     = []string{"owner", "admin"}
)

// rolePolicy maps each action to the membership roles allowed to perform it.
var rolePolicy = map[string][]string{
	ActionXPAward:          participants,
	ActionXPView:           everyone,
	ActionStreakLog:        participants,
	ActionBadgeView:        everyone,
	ActionBadgeManage:      managers,
	ActionLeaderboardView:  everyone,
	ActionModuleView:       everyone,
	ActionModuleManage:     educators,
	ActionProgressTrack:    participants,
	ActionClassView:        everyone,
	ActionClassManage:      educators,
	ActionClassJoin:        participants,
	ActionAssignmentView:   everyone,
	ActionAssignmentManage: educators,
	ActionAssignmentSubmit: {"student"},
	ActionAssignmentGrade:  educators,
	ActionTeamView:         everyone,
	ActionTeamManage:       coaches,
	ActionMemberView:       everyone,
	ActionMemberManage:     managers,
}

func policies() [][]string {
	out := make([][]string, 0, len(rolePolicy)*len(everyone)+len(rolePolicy))
	for action, roles := range rolePolicy {
		object, _, _ := strings.Cut(action, ".")
		for _, role := range roles {
			out = append(out, []string{"role:" + role, object, action})
		}
		out = append(out, []string{"role:system", object, action})
	}
	return out
}
