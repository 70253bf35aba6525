package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	profiledomain "github.com/smallbiznis/touchbase/internal/profile/domain"
)

func (s *Server) Me(c *gin.Context) {
	userID, ok := s.userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	profile, err := s.profileSvc.GetByID(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	orgs, err := s.organizationSvc.ListOrganizationsByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"profile": profile, "orgs": orgs}})
}

func (s *Server) UpdateMe(c *gin.Context) {
	userID, ok := s.userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req profiledomain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	profile, err := s.profileSvc.Update(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": profile})
}
