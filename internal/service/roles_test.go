package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paymenthub/internal/domain"
)

func TestRoles_DeployerIsAdmin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	ok, err := f.roles.HasRole(context.Background(), domain.RoleAdmin, deployer)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.roles.HasRole(context.Background(), domain.RoleAdmin, stranger)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoles_OnlyAdminsMutate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	require.ErrorIs(t, f.roles.RegisterMerchant(ctx, merchant, stranger), domain.ErrUnauthorized)
	require.ErrorIs(t, f.roles.RevokeMerchant(ctx, consumer, merchant), domain.ErrUnauthorized)
	require.ErrorIs(t, f.roles.GrantRole(ctx, stranger, domain.RoleAdmin, stranger), domain.ErrUnauthorized)

	ok, err := f.roles.HasRole(ctx, domain.RoleMerchant, stranger)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoles_GrantAndRevokeAreVisibleImmediately(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.roles.RegisterMerchant(ctx, admin, stranger))
	ok, err := f.roles.HasRole(ctx, domain.RoleMerchant, stranger)
	require.NoError(t, err)
	assert.True(t, ok)

	merchants, err := f.roles.ListByRole(ctx, domain.RoleMerchant)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Address{merchant, stranger}, merchants)

	require.NoError(t, f.roles.RevokeMerchant(ctx, admin, stranger))
	ok, err = f.roles.HasRole(ctx, domain.RoleMerchant, stranger)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoles_EventsOnlyOnChange(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.roles.RegisterMerchant(ctx, deployer, stranger))
	require.NoError(t, f.roles.RegisterMerchant(ctx, deployer, stranger))
	require.NoError(t, f.roles.RevokeMerchant(ctx, deployer, stranger))
	require.NoError(t, f.roles.RevokeMerchant(ctx, deployer, stranger))

	events, err := f.store.Events().ListByKey(ctx, stranger.String())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventRoleGranted, events[0].Type)
	assert.Equal(t, domain.EventRoleRevoked, events[1].Type)
}

func TestRoles_AdminCanRevokeOwnAdmin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.roles.RevokeRole(ctx, admin, domain.RoleAdmin, admin))
	require.ErrorIs(t, f.platform.Pause(ctx, admin), domain.ErrUnauthorized)
}

func TestRoles_RejectsZeroAddress(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	err := f.roles.RegisterMerchant(context.Background(), deployer, domain.ZeroAddress)
	require.ErrorIs(t, err, domain.ErrInvalidAddress)
}
