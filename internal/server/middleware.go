package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/touchbase/internal/auth"
	obscontext "github.com/smallbiznis/touchbase/internal/observability/context"
	"github.com/smallbiznis/touchbase/internal/observability/logger"
	organizationdomain "github.com/smallbiznis/touchbase/internal/organization/domain"
	"github.com/smallbiznis/touchbase/internal/orgcontext"
	profiledomain "github.com/smallbiznis/touchbase/internal/profile/domain"
)

const (
	HeaderOrg        = "X-Org-ID"
	HeaderDevUser    = "X-Dev-User"
	contextUserIDKey = "user_id"
	contextOrgIDKey  = "org_id"
	contextRoleKey   = "org_role"
	contextProfile   = "profile"

	maxRequestBody = 8 << 20
)

// AuthRequired verifies the bearer token and loads the caller's profile.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := s.identify(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		profile, err := s.profileSvc.EnsureProfile(c.Request.Context(), profiledomain.EnsureProfileRequest{
			ExternalID:  identity.Subject,
			Email:       identity.Email,
			DisplayName: identity.Name,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := orgcontext.WithUserID(c.Request.Context(), profile.ID)
		ctx = obscontext.WithActor(ctx, string(ActorUser), profile.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextUserIDKey, profile.ID.String())
		c.Set(contextProfile, profile)
		c.Next()
	}
}

func (s *Server) identify(c *gin.Context) (*auth.Identity, error) {
	if s.cfg.Auth.DevBypass && !s.cfg.IsProduction() {
		if subject := strings.TrimSpace(c.GetHeader(HeaderDevUser)); subject != "" {
			return &auth.Identity{Subject: subject}, nil
		}
	}

	raw, err := auth.BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		return nil, err
	}
	identity, err := s.verifier.Verify(raw)
	if err != nil {
		if errors.Is(err, auth.ErrNotConfigured) {
			logger.FromContext(c.Request.Context()).Warn("bearer token rejected: verifier not configured")
		}
		return nil, err
	}
	return identity, nil
}

// OrgContext resolves the active organization and checks membership.
// Order: explicit orgId (path, query, JSON body), X-Org-ID header, profile default org.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := s.userIDFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		orgID, err := s.resolveOrgID(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		role, err := s.organizationSvc.RoleOf(c.Request.Context(), orgID, userID)
		if err != nil {
			if errors.Is(err, organizationdomain.ErrNotMember) {
				AbortWithError(c, ErrForbidden)
				return
			}
			AbortWithError(c, err)
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), orgID)
		ctx = orgcontext.WithRole(ctx, role)
		ctx = obscontext.WithOrgID(ctx, orgID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextOrgIDKey, orgID.String())
		c.Set(contextRoleKey, role)
		c.Next()
	}
}

func (s *Server) resolveOrgID(c *gin.Context) (snowflake.ID, error) {
	bodyOrg, err := peekBodyOrgID(c)
	if err != nil {
		if errors.Is(err, ErrPayloadTooLarge) {
			return 0, err
		}
		return 0, invalidRequestError()
	}

	for _, raw := range []string{c.Param("orgId"), c.Query("orgId"), bodyOrg, c.GetHeader(HeaderOrg)} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parsed, err := snowflake.ParseString(raw)
		if err != nil || parsed == 0 {
			return 0, ErrOrgRequired
		}
		return parsed, nil
	}

	if profile, ok := profileFromContext(c); ok && profile.DefaultOrgID != nil && *profile.DefaultOrgID != 0 {
		return *profile.DefaultOrgID, nil
	}
	return 0, ErrOrgRequired
}

// peekBodyOrgID reads orgId from a JSON body and restores the full body for the handler.
// Bodies above maxRequestBody are rejected.
func peekBodyOrgID(c *gin.Context) (string, error) {
	if c.Request.Body == nil || c.Request.Method == http.MethodGet {
		return "", nil
	}
	if !strings.Contains(strings.ToLower(c.ContentType()), "json") {
		return "", nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", ErrPayloadTooLarge
		}
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if len(bytes.TrimSpace(body)) == 0 {
		return "", nil
	}

	var payload struct {
		OrgID json.RawMessage `json:"orgId"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		// the handler reports malformed bodies
		return "", nil
	}
	raw := strings.TrimSpace(string(payload.OrgID))
	if raw == "" || raw == "null" {
		return "", nil
	}
	return strings.Trim(raw, `"`), nil
}

func (s *Server) userIDFromContext(c *gin.Context) (snowflake.ID, bool) {
	if c == nil {
		return 0, false
	}
	return orgcontext.UserIDFromContext(c.Request.Context())
}

func (s *Server) orgIDFromContext(c *gin.Context) (snowflake.ID, bool) {
	if c == nil {
		return 0, false
	}
	return orgcontext.OrgIDFromContext(c.Request.Context())
}

// scope returns the active organization and caller, aborting when either is missing.
func (s *Server) scope(c *gin.Context) (snowflake.ID, snowflake.ID, bool) {
	userID, ok := s.userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return 0, 0, false
	}
	orgID, ok := s.orgIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrOrgRequired)
		return 0, 0, false
	}
	return orgID, userID, true
}

func profileFromContext(c *gin.Context) (*profiledomain.Profile, bool) {
	value, ok := c.Get(contextProfile)
	if !ok {
		return nil, false
	}
	profile, ok := value.(*profiledomain.Profile)
	return profile, ok && profile != nil
}

func roleFromContext(c *gin.Context) string {
	return orgcontext.RoleFromContext(c.Request.Context())
}

func hasAnyRole(c *gin.Context, roles ...string) bool {
	current := roleFromContext(c)
	for _, role := range roles {
		if current == role {
			return true
		}
	}
	return false
}
