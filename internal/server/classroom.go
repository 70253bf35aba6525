package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	classroomdomain "github.com/smallbiznis/touchbase/internal/classroom/domain"
	organizationdomain "github.com/smallbiznis/touchbase/internal/organization/domain"
)

func (s *Server) CreateClass(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}

	var req classroomdomain.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrgID = orgID
	req.TeacherID = userID

	resp, err := s.classSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListClasses(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}

	includeArchived, err := parseOptionalBool(c.Query("includeArchived"))
	if err != nil {
		AbortWithError(c, newValidationError("includeArchived", "invalid_include_archived", "invalid includeArchived"))
		return
	}

	req := classroomdomain.ListClassesRequest{
		OrgID:           orgID,
		IncludeArchived: includeArchived != nil && *includeArchived,
	}
	switch {
	case hasAnyRole(c, organizationdomain.RoleOwner, organizationdomain.RoleAdmin):
	case hasAnyRole(c, organizationdomain.RoleTeacher):
		req.TeacherID = userID
	default:
		req.StudentID = userID
	}

	resp, err := s.classSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetClass(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.classSvc.Get(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) JoinClass(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}

	var req classroomdomain.JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrgID = orgID
	req.StudentID = userID

	resp, err := s.classSvc.Join(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetClassRoster(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.classSvc.Roster(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RegenerateClassCode(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.classSvc.RegenerateCode(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ArchiveClass(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.classSvc.Archive(c.Request.Context(), orgID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
