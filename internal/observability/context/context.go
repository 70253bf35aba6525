package context

import (
	stdcontext "context"
	"strings"
)

type requestIDKey struct{}
type orgIDKey struct{}
type actorKey struct{}

type actor struct {
	Type string
	ID   string
}

func WithRequestID(ctx stdcontext.Context, requestID string) stdcontext.Context {
	return stdcontext.WithValue(ctx, requestIDKey{}, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx stdcontext.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

func WithOrgID(ctx stdcontext.Context, orgID string) stdcontext.Context {
	return stdcontext.WithValue(ctx, orgIDKey{}, strings.TrimSpace(orgID))
}

func OrgIDFromContext(ctx stdcontext.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(orgIDKey{}).(string)
	return value
}

func WithActor(ctx stdcontext.Context, actorType, actorID string) stdcontext.Context {
	return stdcontext.WithValue(ctx, actorKey{}, actor{
		Type: strings.TrimSpace(actorType),
		ID:   strings.TrimSpace(actorID),
	})
}

func ActorFromContext(ctx stdcontext.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	value, ok := ctx.Value(actorKey{}).(actor)
	if !ok {
		return "", ""
	}
	return value.Type, value.ID
}

type jobKey struct{}

// WithJob marks ctx as belonging to a scheduler job run.
func WithJob(ctx stdcontext.Context, job string) stdcontext.Context {
	return stdcontext.WithValue(ctx, jobKey{}, strings.TrimSpace(job))
}

func JobFromContext(ctx stdcontext.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(jobKey{}).(string)
	return value
}
