package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	rosterdomain "github.com/smallbiznis/touchbase/internal/roster/domain"
)

func (s *Server) CreateTeam(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}

	var req rosterdomain.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrgID = orgID

	resp, err := s.rosterSvc.CreateTeam(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTeams(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	coachID, err := optionalID(c.Query("coachId"), "coachId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.rosterSvc.ListTeams(c.Request.Context(), rosterdomain.ListTeamsRequest{
		OrgID:   orgID,
		CoachID: coachID,
		Season:  strings.TrimSpace(c.Query("season")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTeam(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.rosterSvc.GetTeam(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTeam(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req rosterdomain.UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrgID = orgID
	req.ID = id

	resp, err := s.rosterSvc.UpdateTeam(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTeam(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.rosterSvc.DeleteTeam(c.Request.Context(), orgID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) AddPlayer(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	teamID, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req rosterdomain.AddPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrgID = orgID
	req.TeamID = teamID

	resp, err := s.rosterSvc.AddPlayer(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPlayers(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	teamID, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	includeInactive, err := parseOptionalBool(c.Query("includeInactive"))
	if err != nil {
		AbortWithError(c, newValidationError("includeInactive", "invalid_include_inactive", "invalid includeInactive"))
		return
	}

	resp, err := s.rosterSvc.ListPlayers(c.Request.Context(), orgID, teamID, includeInactive != nil && *includeInactive)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePlayer(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req rosterdomain.UpdatePlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrgID = orgID
	req.ID = id

	resp, err := s.rosterSvc.UpdatePlayer(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemovePlayer(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.rosterSvc.RemovePlayer(c.Request.Context(), orgID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
