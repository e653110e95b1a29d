package service

import (
	"context"
	"testing"

	"github.com/oapi-codegen/nullable"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
)

func seededProfiles() *stubTable[domain.UserProfile] {
	return newStubTable(
		domain.UserProfile{ID: adminIdentity.ID, Name: "Admin", Email: adminIdentity.Email, Role: domain.RoleAdmin, Status: domain.StatusActive},
		domain.UserProfile{ID: guestIdentity.ID, Name: "Guest", Email: guestIdentity.Email, Role: domain.RoleGuest, Status: domain.StatusActive},
	)
}

func TestUserStore_SelfDeletionBlocked(t *testing.T) {
	ctx := context.Background()
	table := seededProfiles()
	users := NewUserStore(table, as(adminIdentity), newFixedClock(), nil, zerolog.Nop())
	users.Load(ctx)
	before := users.List()
	calls := table.Calls()

	err := users.Delete(ctx, adminIdentity.ID)
	assert.ErrorIs(t, err, domain.ErrSelfDeletion)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, before, users.List())
	assert.Equal(t, calls, table.Calls(), "no remote call attempted")
}

func TestUserStore_DeleteOtherProfile(t *testing.T) {
	ctx := context.Background()
	users := NewUserStore(seededProfiles(), as(adminIdentity), newFixedClock(), nil, zerolog.Nop())
	users.Load(ctx)

	require.NoError(t, users.Delete(ctx, guestIdentity.ID))
	_, ok := users.Get(guestIdentity.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, users.Len())
}

func TestUserStore_GuestDeleteIsUnauthorized(t *testing.T) {
	users := NewUserStore(seededProfiles(), as(guestIdentity), newFixedClock(), nil, zerolog.Nop())
	err := users.Delete(context.Background(), guestIdentity.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUserStore_UpdateRole(t *testing.T) {
	ctx := context.Background()
	users := NewUserStore(seededProfiles(), as(adminIdentity), newFixedClock(), nil, zerolog.Nop())
	users.Load(ctx)

	updated, err := users.Update(ctx, guestIdentity.ID, domain.UserProfilePatch{Role: nullable.NewNullableWithValue(domain.RoleAdmin)})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)
	assert.Equal(t, "Guest", updated.Name)

	_, err = users.Update(ctx, guestIdentity.ID, domain.UserProfilePatch{Status: nullable.NewNullableWithValue(domain.Status("banned"))})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUserStore_ProvisionUsesProviderID(t *testing.T) {
	ctx := context.Background()
	prov := &stubProvisioner{id: "provider-42"}
	users := NewUserStore(seededProfiles(), as(adminIdentity), newFixedClock(), prov, zerolog.Nop())

	p, err := users.Provision(ctx, domain.UserProfile{Name: "New Officer", Email: " Officer@AlphaBeta.org ", Role: domain.RoleGuest, Status: domain.StatusActive}, "long-password")
	require.NoError(t, err)
	assert.Equal(t, "provider-42", p.ID)
	assert.Equal(t, "officer@alphabeta.org", p.Email)
	assert.Equal(t, "officer@alphabeta.org", prov.email)

	got, ok := users.Get("provider-42")
	require.True(t, ok)
	assert.Equal(t, "New Officer", got.Name)
}

func TestUserStore_ProvisionFailures(t *testing.T) {
	ctx := context.Background()
	profile := domain.UserProfile{Name: "X", Email: "x@alphabeta.org", Role: domain.RoleGuest, Status: domain.StatusActive}

	users := NewUserStore(seededProfiles(), as(adminIdentity), newFixedClock(), nil, zerolog.Nop())
	_, err := users.Provision(ctx, profile, "long-password")
	assert.ErrorIs(t, err, domain.ErrProvisioningUnavailable)

	prov := &stubProvisioner{err: domain.ErrDuplicate}
	users = NewUserStore(seededProfiles(), as(adminIdentity), newFixedClock(), prov, zerolog.Nop())
	_, err = users.Provision(ctx, profile, "long-password")
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Zero(t, users.Len())

	users = NewUserStore(seededProfiles(), as(guestIdentity), newFixedClock(), &stubProvisioner{id: "p"}, zerolog.Nop())
	_, err = users.Provision(ctx, profile, "long-password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
