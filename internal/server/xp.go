package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/touchbase/internal/observability/logger"
	xpdomain "github.com/smallbiznis/touchbase/internal/xp/domain"
	"github.com/smallbiznis/touchbase/pkg/db/pagination"
	"go.uber.org/zap"
)

type awardXPRequest struct {
	Action        string          `json:"action"`
	SkillCategory string          `json:"skillCategory"`
	Metadata      json.RawMessage `json:"metadata"`
}

func (s *Server) AwardXP(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}

	var req awardXPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	action := strings.TrimSpace(req.Action)
	if action == "" {
		AbortWithError(c, newValidationError("action", "required", "action is required"))
		return
	}
	c.Set("xp_action", action)

	result, err := s.xpSvc.Award(c.Request.Context(), xpdomain.AwardRequest{
		OrgID:         orgID,
		UserID:        userID,
		Action:        action,
		SkillCategory: req.SkillCategory,
		Metadata:      req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	logger.FromContext(c.Request.Context()).Debug("xp awarded",
		zap.String("action", result.Action),
		zap.Int64("delta", result.Delta),
		zap.Int64("total", result.Total),
	)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"total":   result.Total,
		"delta":   result.Delta,
		"badges":  result.Badges,
	})
}

func (s *Server) GetXPSummary(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}

	resp, err := s.xpSvc.Summary(c.Request.Context(), orgID, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListXPEvents(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}

	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.xpSvc.ListEvents(c.Request.Context(), xpdomain.ListEventsRequest{
		OrgID:      orgID,
		UserID:     userID,
		Pagination: query,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
