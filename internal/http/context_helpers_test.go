package httpx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/target/jobboard-portal/internal/domain/auth"
)

func TestUserContextRoundTrip(t *testing.T) {
	user := &domainauth.UserView{ID: "u1", Role: domainauth.RoleAdmin}
	ctx := SetUserInContext(context.Background(), user)

	got, ok := GetUserFromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, user, got)
}

func TestSetUserInContextNil(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, SetUserInContext(ctx, nil))

	_, ok := GetUserFromContext(ctx)
	assert.False(t, ok)
}
