package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
	"github.com/alphabeta/chapter-portal/internal/pkg/metrics"
)

// IdentityClients hands out a provider client bound to one session token.
// An empty token yields a client with no session.
type IdentityClients interface {
	Client(token string) ports.IdentityProvider
}

// Registry maps session tokens to their portals. A cached portal is checked
// against the provider on every lookup and its profile is read again once it
// is older than deps.ProfileTTL.
type Registry struct {
	clients IdentityClients
	deps    PortalDeps
	log     zerolog.Logger

	mu      sync.Mutex
	portals map[string]*tracked
}

type tracked struct {
	portal  *Portal
	checked time.Time // last profile resolution
}

func NewRegistry(clients IdentityClients, deps PortalDeps, log zerolog.Logger) *Registry {
	return &Registry{
		clients: clients,
		deps:    deps,
		log:     log,
		portals: make(map[string]*tracked),
	}
}

// Login signs in and registers a portal under the new session token.
func (r *Registry) Login(ctx context.Context, email, password string) (string, *Portal, error) {
	p := NewPortal(r.clients.Client(""), r.deps, r.log)
	id, err := p.Session.Login(ctx, email, password)
	if err != nil {
		p.Close()
		return "", nil, err
	}
	token := p.Session.Session().Token
	if got := r.track(token, p); got != p {
		p.Close()
		p = got
	}
	r.log.Info().Str("user_id", id.ID).Str("role", string(id.Role)).Msg("user logged in")
	return token, p, nil
}

// Resolve returns the portal for token, restoring it from the provider
// session when this process has not seen the token yet.
func (r *Registry) Resolve(ctx context.Context, token string) (*Portal, error) {
	if t := r.lookup(token); t != nil {
		return r.revalidate(ctx, token, t)
	}

	p := NewPortal(r.clients.Client(token), r.deps, r.log)
	if err := p.Session.Init(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if _, ok := p.Session.Current(); !ok {
		p.Close()
		return nil, domain.ErrNoSession
	}

	got := r.track(token, p)
	if got != p {
		p.Close()
	}
	return got, nil
}

// Logout signs the session out and forgets its portal.
func (r *Registry) Logout(ctx context.Context, token string) error {
	p := r.drop(token, nil)
	if p == nil {
		return domain.ErrNoSession
	}
	defer p.Close()
	return p.Session.Logout(ctx)
}

// Len reports the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.portals)
}

// Close releases every portal without signing out.
func (r *Registry) Close() {
	r.mu.Lock()
	portals := r.portals
	r.portals = make(map[string]*tracked)
	r.mu.Unlock()
	for _, t := range portals {
		t.portal.Close()
	}
	metrics.ActiveSessions.Sub(float64(len(portals)))
}

// revalidate confirms the provider still holds the session and, once the
// cached profile is stale, that the account is still active with the same
// role. A session that ended is dropped.
func (r *Registry) revalidate(ctx context.Context, token string, t *tracked) (*Portal, error) {
	now := r.deps.Clock.Now()
	r.mu.Lock()
	stale := now.Sub(t.checked) >= r.deps.ProfileTTL
	r.mu.Unlock()

	err := t.portal.Session.Revalidate(ctx, stale)
	if _, ok := t.portal.Session.Current(); !ok {
		if r.drop(token, t.portal) != nil {
			t.portal.Close()
		}
		if err == nil {
			err = domain.ErrNoSession
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if stale {
		r.mu.Lock()
		t.checked = now
		r.mu.Unlock()
	}
	return t.portal, nil
}

// track registers p under token unless another portal got there first, in
// which case that portal is returned.
func (r *Registry) track(token string, p *Portal) *Portal {
	r.mu.Lock()
	if t, ok := r.portals[token]; ok {
		r.mu.Unlock()
		return t.portal
	}
	r.portals[token] = &tracked{portal: p, checked: r.deps.Clock.Now()}
	r.mu.Unlock()
	metrics.ActiveSessions.Inc()

	// The provider may end the session on its own, e.g. on expiry.
	p.Session.OnChange(func(id *domain.Identity) {
		if id == nil && r.drop(token, p) != nil {
			p.Close()
		}
	})
	return p
}

func (r *Registry) lookup(token string) *tracked {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.portals[token]
}

// drop forgets token. With a non-nil only, the entry is removed only while it
// still holds that portal.
func (r *Registry) drop(token string, only *Portal) *Portal {
	r.mu.Lock()
	t, ok := r.portals[token]
	if ok && only != nil && t.portal != only {
		ok = false
	}
	if ok {
		delete(r.portals, token)
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}
	metrics.ActiveSessions.Dec()
	return t.portal
}
