package ports

import (
	"context"
	"time"
)

// SessionRecord is what the identity provider persists per issued token.
type SessionRecord struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore persists provider sessions keyed by session id.
type SessionStore interface {
	Save(ctx context.Context, id string, rec SessionRecord, ttl time.Duration) error
	// Find returns nil and no error when the session is unknown or expired.
	Find(ctx context.Context, id string) (*SessionRecord, error)
	Delete(ctx context.Context, id string) error
}

// Credential is a provider account.
type Credential struct {
	ID           string
	Email        string
	PasswordHash string
}

// CredentialRepository stores provider accounts. Create returns
// domain.ErrDuplicate when the email is taken.
type CredentialRepository interface {
	FindByEmail(ctx context.Context, email string) (*Credential, error)
	Create(ctx context.Context, c Credential) error
}
