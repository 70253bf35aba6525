package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	moduledomain "github.com/smallbiznis/touchbase/internal/module/domain"
	organizationdomain "github.com/smallbiznis/touchbase/internal/organization/domain"
	"github.com/smallbiznis/touchbase/pkg/db/pagination"
)

func canSeeDrafts(c *gin.Context) bool {
	return hasAnyRole(c, organizationdomain.RoleOwner, organizationdomain.RoleAdmin, organizationdomain.RoleTeacher)
}

func (s *Server) CreateModule(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}

	var req moduledomain.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrgID = orgID
	req.AuthorID = userID

	resp, err := s.moduleSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListModules(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}

	var query struct {
		pagination.Pagination
		Difficulty string `form:"difficulty"`
		Published  string `form:"published"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	published, err := parseOptionalBool(query.Published)
	if err != nil {
		AbortWithError(c, newValidationError("published", "invalid_published", "invalid published"))
		return
	}

	publishedOnly := !canSeeDrafts(c) || (published != nil && *published)
	resp, err := s.moduleSvc.List(c.Request.Context(), moduledomain.ListModulesRequest{
		OrgID:         orgID,
		PublishedOnly: publishedOnly,
		Difficulty:    strings.TrimSpace(query.Difficulty),
		Pagination:    query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetModule(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.moduleSvc.Get(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !resp.Published && !canSeeDrafts(c) {
		AbortWithError(c, moduledomain.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateModule(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req moduledomain.UpdateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrgID = orgID
	req.ID = id

	resp, err := s.moduleSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PublishModule(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.moduleSvc.Publish(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteModule(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.moduleSvc.Delete(c.Request.Context(), orgID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
