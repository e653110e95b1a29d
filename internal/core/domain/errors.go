package domain

import "errors"

// Error taxonomy shared by the stores, the session holder and the transport layer.
var (
	// ErrUnauthorized is returned by the permission gate when the caller is absent or not an admin.
	ErrUnauthorized = errors.New("unauthorized: admins only")
	// ErrNotFound is signalled by a remote table when the target id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrSelfDeletion blocks an admin from deleting their own profile.
	ErrSelfDeletion = errors.New("cannot delete own profile")
	// ErrRemote wraps any transport or storage failure reported by a remote table.
	ErrRemote = errors.New("remote store failure")
	// ErrInactiveAccount is raised while resolving an identity whose profile is not active.
	ErrInactiveAccount = errors.New("account is inactive, please contact the administrator")
	// ErrInvalidCredentials is the identity provider's generic authentication failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoSession means the identity provider holds no session for the caller.
	ErrNoSession = errors.New("no active session")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("record already exists")
	// ErrProvisioningUnavailable is returned when no identity provisioner is configured.
	ErrProvisioningUnavailable = errors.New("user provisioning is not available")
)
