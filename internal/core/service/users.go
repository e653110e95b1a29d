package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
)

// UserStore is the profile store. Deletion refuses to remove the caller's
// own profile, and provisioning goes through the identity provider.
type UserStore struct {
	*Store[domain.UserProfile, *domain.UserProfile]
	provisioner ports.Provisioner
}

// NewUserStore builds the profile store. provisioner may be nil, in which
// case Provision fails with domain.ErrProvisioningUnavailable.
func NewUserStore(
	remote ports.RemoteTable[domain.UserProfile],
	caller IdentitySource,
	clock ports.Clock,
	provisioner ports.Provisioner,
	log zerolog.Logger,
) *UserStore {
	return &UserStore{
		Store:       NewStore[domain.UserProfile](TableProfiles, remote, caller, clock, log),
		provisioner: provisioner,
	}
}

// Delete removes a profile other than the caller's own.
func (u *UserStore) Delete(ctx context.Context, id string) error {
	caller := u.caller.Identity()
	if err := RequireAdmin(caller); err != nil {
		u.count("delete", err)
		return err
	}
	if caller.ID == id {
		u.count("delete", domain.ErrSelfDeletion)
		return domain.ErrSelfDeletion
	}
	return u.remove(ctx, id)
}

// Provision creates provider credentials and stores the profile under the
// account id the provider assigned.
func (u *UserStore) Provision(ctx context.Context, profile domain.UserProfile, password string) (domain.UserProfile, error) {
	if err := RequireAdmin(u.caller.Identity()); err != nil {
		u.count("provision", err)
		return domain.UserProfile{}, err
	}
	if u.provisioner == nil {
		return domain.UserProfile{}, domain.ErrProvisioningUnavailable
	}
	if err := profile.Validate(); err != nil {
		return domain.UserProfile{}, fmt.Errorf("provision: %w", err)
	}

	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	id, err := u.provisioner.Provision(ctx, profile.Email, password)
	if err != nil {
		u.count("provision", err)
		return domain.UserProfile{}, fmt.Errorf("provision %s: %w", profile.Email, err)
	}
	return u.insert(ctx, "provision", profile, id)
}
