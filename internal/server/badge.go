package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	badgedomain "github.com/smallbiznis/touchbase/internal/badge/domain"
)

func (s *Server) ListUserBadges(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}

	badges, err := s.badgeSvc.ListForUser(c.Request.Context(), orgID, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

func (s *Server) ListBadges(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}

	badges, err := s.badgeSvc.List(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": badges})
}

func (s *Server) CreateBadge(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}

	var req badgedomain.CreateBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrgID = orgID

	resp, err := s.badgeSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SeedDefaultBadges(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}

	n, err := s.badgeSvc.SeedDefaults(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"seeded": n}})
}
