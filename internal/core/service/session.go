package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
	"github.com/alphabeta/chapter-portal/internal/pkg/metrics"
)

// RetryPolicies configures the two kinds of identity calls separately.
type RetryPolicies struct {
	Session RetryPolicy // provider session lookups and sign-in
	Profile RetryPolicy // profile row lookups
}

// SessionHolder tracks the identity of one client. It is present only after
// the provider session resolved to an active profile.
type SessionHolder struct {
	provider ports.IdentityProvider
	profiles ports.RemoteTable[domain.UserProfile]
	retry    RetryPolicies
	log      zerolog.Logger

	mu        sync.RWMutex
	identity  *domain.Identity
	session   *ports.Session
	loading   bool
	settled   chan struct{}
	listeners []func(*domain.Identity)
}

// NewSessionHolder returns a holder in the loading state; it stays loading
// until Init, Login or Logout resolves it.
func NewSessionHolder(
	provider ports.IdentityProvider,
	profiles ports.RemoteTable[domain.UserProfile],
	retry RetryPolicies,
	log zerolog.Logger,
) *SessionHolder {
	return &SessionHolder{
		provider: provider,
		profiles: profiles,
		retry:    retry,
		log:      log,
		loading:  true,
		settled:  make(chan struct{}),
	}
}

// Current returns a copy of the identity, if any.
func (h *SessionHolder) Current() (domain.Identity, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.identity == nil {
		return domain.Identity{}, false
	}
	return *h.identity, true
}

// Identity implements IdentitySource.
func (h *SessionHolder) Identity() *domain.Identity {
	id, ok := h.Current()
	if !ok {
		return nil
	}
	return &id
}

// Session returns the provider session backing the identity.
func (h *SessionHolder) Session() *ports.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return nil
	}
	s := *h.session
	return &s
}

func (h *SessionHolder) IsLoading() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loading
}

// Wait blocks until the holder leaves the loading state or ctx ends.
func (h *SessionHolder) Wait(ctx context.Context) error {
	h.mu.RLock()
	ch := h.settled
	h.mu.RUnlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnChange registers fn to run after every identity transition. fn receives
// nil when the identity becomes absent.
func (h *SessionHolder) OnChange(fn func(*domain.Identity)) {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

// Init resolves a session left over from an earlier login.
//
// A provider that cannot be reached leaves the holder absent without signing
// out, so a slow but valid session can be picked up by the next attempt.
// A missing session or an inactive profile is definitive.
func (h *SessionHolder) Init(ctx context.Context) error {
	h.begin()

	sess, err := retry(ctx, h.retry.Session, h.log, retried("session"), h.provider.CurrentSession)
	if err != nil {
		h.log.Warn().Err(err).Msg("session lookup failed, continuing without identity")
		h.settle(nil, nil)
		return fmt.Errorf("init session: %w", err)
	}
	if sess == nil {
		h.settle(nil, nil)
		return domain.ErrNoSession
	}
	return h.adopt(ctx, sess)
}

// Login signs in with the provider and resolves the resulting profile.
// Provider errors are returned as they are.
func (h *SessionHolder) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	h.begin()

	sess, err := retry(ctx, h.retry.Session, h.log, retried("sign_in"), func(ctx context.Context) (*ports.Session, error) {
		return h.provider.SignIn(ctx, email, password)
	})
	if err != nil {
		h.settle(nil, nil)
		return nil, err
	}
	if err := h.adopt(ctx, sess); err != nil {
		return nil, err
	}
	return h.Identity(), nil
}

// Logout signs out with the provider. Local state is cleared even when the
// provider call fails.
func (h *SessionHolder) Logout(ctx context.Context) error {
	err := h.provider.SignOut(ctx)
	h.settle(nil, nil)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Revalidate checks that the provider still holds the session. With profile
// set it also reads the profile again, so a deactivated account loses its
// identity and a role change takes effect. A provider or profile lookup that
// cannot be completed leaves the identity as it was.
func (h *SessionHolder) Revalidate(ctx context.Context, profile bool) error {
	sess, err := h.provider.CurrentSession(ctx)
	if err != nil {
		return fmt.Errorf("revalidate session: %w: %w", domain.ErrRemote, err)
	}
	if sess == nil {
		h.settle(nil, nil)
		return domain.ErrNoSession
	}
	if !profile {
		return nil
	}

	id, err := h.resolve(ctx, sess)
	if err != nil {
		if !permanent(err) {
			return fmt.Errorf("revalidate profile: %w: %w", domain.ErrRemote, err)
		}
		if serr := h.provider.SignOut(ctx); serr != nil {
			h.log.Warn().Err(serr).Msg("sign out after failed revalidation")
		}
		h.settle(nil, nil)
		return err
	}
	h.settle(id, sess)
	return nil
}

// Watch applies provider sign-in and sign-out events until ctx ends or the
// event stream closes.
func (h *SessionHolder) Watch(ctx context.Context) {
	events := h.provider.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case ports.AuthSignedOut:
				h.log.Debug().Msg("provider signed out")
				h.settle(nil, nil)
			case ports.AuthSignedIn:
				if ev.Session == nil || h.holds(ev.Session.Token) {
					continue
				}
				h.begin()
				if err := h.adopt(ctx, ev.Session); err != nil {
					h.log.Warn().Err(err).Msg("sign-in event did not resolve to an identity")
				}
			}
		}
	}
}

// adopt resolves sess to an active profile and settles the holder.
func (h *SessionHolder) adopt(ctx context.Context, sess *ports.Session) error {
	id, err := h.resolve(ctx, sess)
	if err != nil {
		if permanent(err) {
			if serr := h.provider.SignOut(ctx); serr != nil {
				h.log.Warn().Err(serr).Msg("sign out after failed resolution")
			}
		}
		h.settle(nil, nil)
		return err
	}
	h.settle(id, sess)
	return nil
}

func (h *SessionHolder) resolve(ctx context.Context, sess *ports.Session) (*domain.Identity, error) {
	profile, err := retry(ctx, h.retry.Profile, h.log, retried("profile"), func(ctx context.Context) (*domain.UserProfile, error) {
		return h.profiles.Get(ctx, sess.UserID)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("resolve profile %s: %w", sess.UserID, domain.ErrNoSession)
		}
		return nil, fmt.Errorf("resolve profile %s: %w", sess.UserID, err)
	}
	if profile.Status != domain.StatusActive {
		return nil, domain.ErrInactiveAccount
	}
	id := profile.Identity()
	return &id, nil
}

func (h *SessionHolder) holds(token string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session != nil && h.session.Token == token
}

func (h *SessionHolder) begin() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loading {
		return
	}
	h.loading = true
	h.settled = make(chan struct{})
}

// settle leaves the loading state and notifies listeners when the identity
// changed.
func (h *SessionHolder) settle(id *domain.Identity, sess *ports.Session) {
	h.mu.Lock()
	changed := !sameIdentity(h.identity, id)
	h.identity, h.session = id, sess
	if h.loading {
		h.loading = false
		close(h.settled)
	}
	listeners := append([]func(*domain.Identity){}, h.listeners...)
	h.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		if id == nil {
			fn(nil)
			continue
		}
		cp := *id
		fn(&cp)
	}
}

func sameIdentity(a, b *domain.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func retried(call string) func() {
	return func() { metrics.IdentityRetriesTotal.WithLabelValues(call).Inc() }
}
