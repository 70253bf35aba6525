package server

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorSystem ActorType = "system"
)

type Actor struct {
	Type  ActorType
	OrgID snowflake.ID
	ID    string
}

// authorizeOrgAction runs after OrgContext and checks the casbin policy for the caller's role.
func (s *Server) authorizeOrgAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorizeOrgActionWithContext(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeOrgActionWithContext(c *gin.Context, object string, action string) error {
	actor, ok := s.actorFromContext(c)
	if !ok {
		return ErrUnauthorized
	}
	if actor.OrgID == 0 {
		return ErrOrgRequired
	}
	if s.authzSvc == nil {
		return ErrForbidden
	}
	return s.authzSvc.Authorize(c.Request.Context(), actor.subject(), actor.OrgID.String(), strings.TrimSpace(object), strings.TrimSpace(action))
}

func (s *Server) actorFromContext(c *gin.Context) (Actor, bool) {
	userID, ok := s.userIDFromContext(c)
	if !ok {
		return Actor{}, false
	}
	orgID, _ := s.orgIDFromContext(c)
	return Actor{Type: ActorUser, OrgID: orgID, ID: userID.String()}, true
}

func (a Actor) subject() string {
	switch a.Type {
	case ActorUser:
		return fmt.Sprintf("user:%s", a.ID)
	case ActorSystem:
		return "system"
	default:
		return ""
	}
}
