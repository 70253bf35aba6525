// Package orgcontext carries the resolved tenant scope of a request.
package orgcontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type orgKey struct{}
type userKey struct{}
type roleKey struct{}

// WithOrgID stores the active organization for the request.
func WithOrgID(ctx context.Context, orgID snowflake.ID) context.Context {
	return context.WithValue(ctx, orgKey{}, orgID)
}

// OrgIDFromContext returns the active organization, if one was resolved.
func OrgIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	switch typed := ctx.Value(orgKey{}).(type) {
	case snowflake.ID:
		return typed, typed != 0
	case int64:
		return snowflake.ID(typed), typed != 0
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil && parsed != 0 {
			return parsed, true
		}
	}
	return 0, false
}

// WithUserID stores the authenticated profile id.
func WithUserID(ctx context.Context, userID snowflake.ID) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(userKey{}).(snowflake.ID)
	return id, ok && id != 0
}

// WithRole stores the caller's membership role in the active organization.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, strings.ToLower(strings.TrimSpace(role)))
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}
