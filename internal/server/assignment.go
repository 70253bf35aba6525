package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	assignmentdomain "github.com/smallbiznis/touchbase/internal/assignment/domain"
)

type submissionRequest struct {
	Content json.RawMessage `json:"content"`
}

func (s *Server) CreateAssignment(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}

	var req assignmentdomain.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrgID = orgID
	req.CreatedBy = userID

	resp, err := s.assignmentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAssignments(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	classID, err := optionalID(c.Query("classId"), "classId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.assignmentSvc.List(c.Request.Context(), assignmentdomain.ListAssignmentsRequest{
		OrgID:         orgID,
		ClassID:       classID,
		PublishedOnly: !canSeeDrafts(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAssignment(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.assignmentSvc.Get(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if resp.Status != assignmentdomain.StatusPublished && !canSeeDrafts(c) {
		AbortWithError(c, assignmentdomain.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PublishAssignment(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.assignmentSvc.Publish(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAssignmentSubmissions(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.assignmentSvc.ListSubmissions(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMySubmission(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.assignmentSvc.GetSubmission(c.Request.Context(), orgID, id, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SaveSubmissionDraft(c *gin.Context) {
	req, ok := s.bindSubmission(c)
	if !ok {
		return
	}

	resp, err := s.assignmentSvc.SaveDraft(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SubmitAssignment(c *gin.Context) {
	req, ok := s.bindSubmission(c)
	if !ok {
		return
	}

	resp, err := s.assignmentSvc.Submit(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) bindSubmission(c *gin.Context) (assignmentdomain.SubmitRequest, bool) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return assignmentdomain.SubmitRequest{}, false
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return assignmentdomain.SubmitRequest{}, false
	}

	var body submissionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return assignmentdomain.SubmitRequest{}, false
	}

	return assignmentdomain.SubmitRequest{
		OrgID:        orgID,
		AssignmentID: id,
		StudentID:    userID,
		Content:      body.Content,
	}, true
}

func (s *Server) GradeSubmission(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req assignmentdomain.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrgID = orgID
	req.SubmissionID = id

	resp, err := s.assignmentSvc.Grade(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReturnSubmission(c *gin.Context) {
	orgID, _, ok := s.scope(c)
	if !ok {
		return
	}
	id, err := requiredID(c.Param("id"), "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.assignmentSvc.Return(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
