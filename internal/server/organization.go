package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	organizationdomain "github.com/smallbiznis/touchbase/internal/organization/domain"
)

type createOrgRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	UserID looseID `json:"userId"`
	Role   string  `json:"role"`
}

type updateMemberRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) CreateOrg(c *gin.Context) {
	userID, ok := s.userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	org, err := s.organizationSvc.Create(c.Request.Context(), userID, organizationdomain.CreateOrganizationRequest{
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": org})
}

func (s *Server) ListMyOrgs(c *gin.Context) {
	userID, ok := s.userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	orgs, err := s.organizationSvc.ListOrganizationsByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orgs})
}

func (s *Server) GetOrg(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}

	org, err := s.organizationSvc.GetByID(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": org})
}

func (s *Server) ListMembers(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}

	members, err := s.organizationSvc.ListMembers(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": members})
}

func (s *Server) AddMember(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	userID, err := requiredID(req.UserID.String(), "userId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	member, err := s.organizationSvc.AddMember(c.Request.Context(), orgID, organizationdomain.AddMemberRequest{
		UserID: userID,
		Role:   req.Role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": member})
}

func (s *Server) UpdateMemberRole(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	userID, err := requiredID(c.Param("userId"), "userId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.organizationSvc.UpdateMemberRole(c.Request.Context(), orgID, userID, req.Role); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
