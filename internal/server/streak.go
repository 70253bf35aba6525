package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) UpdateStreak(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}

	result, err := s.streakSvc.Update(c.Request.Context(), orgID, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"current":   result.Current,
		"longest":   result.Longest,
		"continued": result.Continued,
		"outcome":   result.Outcome,
	})
}

func (s *Server) GetMyStreak(c *gin.Context) {
	orgID, userID, ok := s.scope(c)
	if !ok {
		return
	}

	resp, err := s.streakSvc.Get(c.Request.Context(), orgID, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
