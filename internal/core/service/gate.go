package service

import "github.com/alphabeta/chapter-portal/internal/core/domain"

// RequireAdmin fails with domain.ErrUnauthorized unless identity is present
// and holds the admin role. It has no side effects.
func RequireAdmin(identity *domain.Identity) error {
	if !identity.IsAdmin() {
		return domain.ErrUnauthorized
	}
	return nil
}

// IdentitySource yields the caller a store acts on behalf of.
type IdentitySource interface {
	// Identity returns nil while no identity is present.
	Identity() *domain.Identity
}

// StaticIdentity is a fixed caller, used for bootstrap and background jobs.
type StaticIdentity struct{ ID *domain.Identity }

func (s StaticIdentity) Identity() *domain.Identity { return s.ID }
