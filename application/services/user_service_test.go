package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyfront-backend/domain"
	apperrors "storyfront-backend/pkg/errors"
)

func TestEnsureProfileCreatesThenRefreshes(t *testing.T) {
	env := newTestEnv()
	svc := env.userService()
	ctx := context.Background()

	created, err := svc.EnsureProfile(ctx, "u-1", "ada@example.com", "Ada")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, created.Role)

	refreshed, err := svc.EnsureProfile(ctx, "u-1", "ada@newmail.com", "Ada L.")
	require.NoError(t, err)
	assert.Equal(t, "ada@newmail.com", refreshed.Email)
	assert.Equal(t, "Ada L.", refreshed.Name)
	assert.Equal(t, created.CreatedAt, refreshed.CreatedAt)
}

func TestRoleChangePurgesCachedIdentity(t *testing.T) {
	env := newTestEnv()
	svc := env.userService()
	ctx := context.Background()

	_, err := svc.EnsureProfile(ctx, "u-1", "ada@example.com", "Ada")
	require.NoError(t, err)

	// Warm the identity cache.
	cached, err := svc.GetByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, cached.Role)

	_, err = svc.SetRole(ctx, admin, "u-1", domain.RoleAdmin)
	require.NoError(t, err)

	fresh, err := svc.GetByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, fresh.Role,
		"the cached identity must not survive a role change")
}

func TestSetRoleValidation(t *testing.T) {
	env := newTestEnv()
	svc := env.userService()
	ctx := context.Background()

	_, err := svc.EnsureProfile(ctx, "u-1", "ada@example.com", "Ada")
	require.NoError(t, err)

	_, err = svc.SetRole(ctx, reader, "u-1", domain.RoleAdmin)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	_, err = svc.SetRole(ctx, admin, "u-1", domain.Role("superuser"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDeletedUserStopsResolving(t *testing.T) {
	env := newTestEnv()
	svc := env.userService()
	ctx := context.Background()

	_, err := svc.EnsureProfile(ctx, "u-1", "ada@example.com", "Ada")
	require.NoError(t, err)
	_, err = svc.GetByID(ctx, "u-1")
	require.NoError(t, err)

	self := &Actor{ID: "u-1", Name: "Ada"}
	require.NoError(t, svc.Delete(ctx, self, "u-1"))

	_, err = svc.GetByID(ctx, "u-1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound),
		"deletion must purge the cached identity")
}

func TestProfileUpdateIsSelfOrAdmin(t *testing.T) {
	env := newTestEnv()
	svc := env.userService()
	ctx := context.Background()

	_, err := svc.EnsureProfile(ctx, "u-1", "ada@example.com", "Ada")
	require.NoError(t, err)

	bio := "hello"
	_, err = svc.UpdateProfile(ctx, reader, "u-1", UpdateProfileInput{Bio: &bio})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	self := &Actor{ID: "u-1", Name: "Ada"}
	updated, err := svc.UpdateProfile(ctx, self, "u-1", UpdateProfileInput{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Bio)
}

func TestAddressOwnership(t *testing.T) {
	env := newTestEnv()
	svc := env.userService()
	ctx := context.Background()

	self := &Actor{ID: "u-1", Name: "Ada"}
	addr, err := svc.PutAddress(ctx, self, &domain.Address{
		Label:      "home",
		Line1:      "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, addr.ID)
	assert.Equal(t, "u-1", addr.UserID)

	_, err = svc.ListAddresses(ctx, reader, "u-1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	mine, err := svc.ListAddresses(ctx, self, "u-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, svc.DeleteAddress(ctx, self, addr.ID))
	mine, err = svc.ListAddresses(ctx, self, "u-1")
	require.NoError(t, err)
	assert.Empty(t, mine)
}
