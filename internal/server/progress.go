package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	progressdomain "github.com/smallbiznis/touchbase/internal/progress/domain"
)

type startProgressRequest struct {
	ModuleID looseID `json:"moduleId"`
}

type updateProgressRequest struct {
	ModuleID  looseID         `json:"moduleId"`
	StepIndex *int            `json:"stepIndex"`
	StepData  json.RawMessage `json:"stepData"`
}

func (s *Server) StartProgress(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}

	var req startProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	moduleID, err := requiredID(req.ModuleID.String(), "moduleId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.progressSvc.Start(c.Request.Context(), progressdomain.StartRequest{
		OrgID:    orgID,
		UserID:   userID,
		ModuleID: moduleID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": result.Progress, "created": result.Created})
}

func (s *Server) UpdateProgress(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}

	var req updateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	moduleID, err := requiredID(req.ModuleID.String(), "moduleId")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if req.StepIndex == nil {
		AbortWithError(c, newValidationError("stepIndex", "required", "stepIndex is required"))
		return
	}

	result, err := s.progressSvc.Update(c.Request.Context(), progressdomain.UpdateRequest{
		OrgID:     orgID,
		UserID:    userID,
		ModuleID:  moduleID,
		StepIndex: *req.StepIndex,
		StepData:  req.StepData,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"progress":   result.Progress,
		"outcome":    result.Outcome,
		"xp_awarded": result.XPAwarded,
		"badges":     result.Badges,
	})
}

func (s *Server) ListProgress(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}

	resp, err := s.progressSvc.ListForUser(c.Request.Context(), orgID, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProgress(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}
	moduleID, err := requiredID(strings.TrimSpace(c.Param("moduleId")), "moduleId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.progressSvc.Get(c.Request.Context(), orgID, userID, moduleID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
