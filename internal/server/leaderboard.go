package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	leaderboarddomain "github.com/smallbiznis/touchbase/internal/leaderboard/domain"
)

type leaderboardQuery struct {
	Type    string `form:"type"`
	Limit   string `form:"limit"`
	ClassID string `form:"classId"`
}

func (s *Server) GetOrgLeaderboard(c *gin.Context) {
	var query leaderboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	s.rank(c, query.Type, query)
}

// GetStreakLeaderboard is the streak-only view of the org leaderboard.
func (s *Server) GetStreakLeaderboard(c *gin.Context) {
	var query leaderboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	s.rank(c, leaderboarddomain.MetricStreak, query)
}

func (s *Server) GetClassLeaderboard(c *gin.Context) {
	var query leaderboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(query.ClassID) == "" {
		AbortWithError(c, newValidationError("classId", "required", "classId is required"))
		return
	}
	s.rank(c, query.Type, query)
}

func (s *Server) rank(c *gin.Context, metric string, query leaderboardQuery) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}

	metric, valid := leaderboarddomain.NormalizeMetric(metric)
	if !valid {
		AbortWithError(c, newValidationError("type", "invalid_type", "type must be xp or streak"))
		return
	}

	limit := 0
	if raw := strings.TrimSpace(query.Limit); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
			return
		}
		limit = parsed
	}

	classID, err := optionalID(query.ClassID, "classId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entries, err := s.leaderboardSvc.Rank(c.Request.Context(), leaderboarddomain.Query{
		OrgID:   orgID,
		ClassID: classID,
		Metric:  metric,
		Limit:   limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
