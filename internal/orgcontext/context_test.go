package orgcontext

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

func TestOrgIDRoundTrip(t *testing.T) {
	ctx := WithOrgID(context.Background(), snowflake.ID(42))

	id, ok := OrgIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, snowflake.ID(42), id)
}

func TestOrgIDMissing(t *testing.T) {
	_, ok := OrgIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = OrgIDFromContext(WithOrgID(context.Background(), 0))
	assert.False(t, ok)
}

func TestUserAndRole(t *testing.T) {
	ctx := WithUserID(context.Background(), snowflake.ID(7))
	ctx = WithRole(ctx, " Coach ")

	id, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, snowflake.ID(7), id)
	assert.Equal(t, "coach", RoleFromContext(ctx))
}
