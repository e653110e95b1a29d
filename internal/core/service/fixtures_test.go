package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
	"github.com/alphabeta/chapter-portal/internal/infrastructure/db/memory"
)

var errTransport = errors.New("connection reset by peer")

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type identified interface{ EntityID() string }

// stubTable wraps the in-memory table, counting calls and injecting failures.
type stubTable[T identified] struct {
	*memory.Table[T]

	mu        sync.Mutex
	calls     int
	selectErr error
	writeErr  error
	getErr    []error // consumed one per Get call
}

func newStubTable[T identified](rows ...T) *stubTable[T] {
	t := &stubTable[T]{Table: memory.NewTable[T]()}
	for _, r := range rows {
		_, _ = t.Table.Insert(context.Background(), r)
	}
	return t
}

func (t *stubTable[T]) hit() {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
}

func (t *stubTable[T]) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func (t *stubTable[T]) SelectAll(ctx context.Context) ([]T, error) {
	t.hit()
	if t.selectErr != nil {
		return nil, t.selectErr
	}
	return t.Table.SelectAll(ctx)
}

func (t *stubTable[T]) Get(ctx context.Context, id string) (*T, error) {
	t.hit()
	t.mu.Lock()
	var err error
	if len(t.getErr) > 0 {
		err, t.getErr = t.getErr[0], t.getErr[1:]
	}
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return t.Table.Get(ctx, id)
}

func (t *stubTable[T]) Insert(ctx context.Context, rec T) (*T, error) {
	t.hit()
	if t.writeErr != nil {
		return nil, t.writeErr
	}
	return t.Table.Insert(ctx, rec)
}

func (t *stubTable[T]) Update(ctx context.Context, id string, fields map[string]any) (*T, error) {
	t.hit()
	if t.writeErr != nil {
		return nil, t.writeErr
	}
	return t.Table.Update(ctx, id, fields)
}

func (t *stubTable[T]) Delete(ctx context.Context, id string) error {
	t.hit()
	if t.writeErr != nil {
		return t.writeErr
	}
	return t.Table.Delete(ctx, id)
}

// fixedClock returns the same instant until advanced.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// stubProvider is a scripted identity provider.
type stubProvider struct {
	mu          sync.Mutex
	session     *ports.Session
	sessionErrs []error // consumed one per CurrentSession call
	signInErr   error
	users       map[string]string // email -> user id
	signInCalls int
	signOuts    int
	events      chan ports.AuthEvent
}

func newStubProvider() *stubProvider {
	return &stubProvider{users: map[string]string{}, events: make(chan ports.AuthEvent, 8)}
}

func (p *stubProvider) CurrentSession(ctx context.Context) (*ports.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sessionErrs) > 0 {
		err := p.sessionErrs[0]
		p.sessionErrs = p.sessionErrs[1:]
		return nil, err
	}
	if p.session == nil {
		return nil, nil
	}
	s := *p.session
	return &s, nil
}

func (p *stubProvider) SignIn(ctx context.Context, email, password string) (*ports.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signInCalls++
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	id, ok := p.users[email]
	if !ok || password != "secret" {
		return nil, domain.ErrInvalidCredentials
	}
	p.session = &ports.Session{Token: "tok-" + id, UserID: id, Email: email}
	s := *p.session
	return &s, nil
}

func (p *stubProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOuts++
	p.session = nil
	return nil
}

func (p *stubProvider) Events() <-chan ports.AuthEvent { return p.events }

func (p *stubProvider) SignOuts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signOuts
}

type stubProvisioner struct {
	id    string
	err   error
	email string
}

func (p *stubProvisioner) Provision(_ context.Context, email, _ string) (string, error) {
	p.email = email
	return p.id, p.err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	adminIdentity = &domain.Identity{ID: "admin-1", Name: "Admin", Email: "admin@alphabeta.org", Role: domain.RoleAdmin, Status: domain.StatusActive}
	guestIdentity = &domain.Identity{ID: "guest-1", Name: "Guest", Email: "guest@alphabeta.org", Role: domain.RoleGuest, Status: domain.StatusActive}
)

func as(id *domain.Identity) IdentitySource { return StaticIdentity{ID: id} }

func sampleMember(last string) domain.Member {
	return domain.Member{
		LastName:  last,
		FirstName: "Ana",
		Gender:    domain.GenderMale,
		BatchYear: "2024",
		Semester:  domain.SemesterA,
		School:    "Central University",
	}
}

func noRetry() RetryPolicies {
	p := RetryPolicy{MaxAttempts: 1}
	return RetryPolicies{Session: p, Profile: p}
}

func quickRetry(attempts int) RetryPolicies {
	p := RetryPolicy{MaxAttempts: attempts, Delay: time.Millisecond, Multiplier: 2, AttemptTimeout: time.Second}
	return RetryPolicies{Session: p, Profile: p}
}
