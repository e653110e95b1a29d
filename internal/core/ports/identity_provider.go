package ports

import (
	"context"
	"time"
)

// Session is an authenticated provider session.
type Session struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type AuthEventType string

const (
	AuthSignedIn  AuthEventType = "SIGNED_IN"
	AuthSignedOut AuthEventType = "SIGNED_OUT"
)

// AuthEvent is pushed by the provider whenever its session changes.
type AuthEvent struct {
	Type    AuthEventType
	Session *Session // nil on sign-out
}

// IdentityProvider authenticates credentials and holds the current session
// for one client.
type IdentityProvider interface {
	// CurrentSession returns nil and no error when no session exists.
	CurrentSession(ctx context.Context) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	Events() <-chan AuthEvent
}

// Provisioner creates provider accounts on behalf of an administrator.
type Provisioner interface {
	Provision(ctx context.Context, email, password string) (string, error)
}
