package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
)

// Credentials is an in-memory ports.CredentialRepository keyed by
// lower-cased email.
type Credentials struct {
	mu      sync.RWMutex
	byEmail map[string]ports.Credential
}

func NewCredentials() *Credentials {
	return &Credentials{byEmail: make(map[string]ports.Credential)}
}

func (c *Credentials) FindByEmail(_ context.Context, email string) (*ports.Credential, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cred, ok := c.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cred, nil
}

func (c *Credentials) Create(_ context.Context, cred ports.Credential) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.ToLower(cred.Email)
	if _, ok := c.byEmail[key]; ok {
		return domain.ErrDuplicate
	}
	c.byEmail[key] = cred
	return nil
}
