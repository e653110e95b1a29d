// Package apitest assembles an in-memory portal backend for HTTP tests.
package apitest

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/service"
	"github.com/alphabeta/chapter-portal/internal/infrastructure/clock"
	"github.com/alphabeta/chapter-portal/internal/infrastructure/db/memory"
	"github.com/alphabeta/chapter-portal/internal/infrastructure/identity"
)

const (
	Secret        = "test-secret"
	AdminEmail    = "admin@alphabeta.org"
	GuestEmail    = "guest@alphabeta.org"
	Password      = "correct-horse"
	PublicBaseURL = "http://portal.test"
)

// Backend is a registry over memory tables with one admin and one guest
// account.
type Backend struct {
	Registry *service.Registry
	Identity *identity.Service
	Tables   service.Tables
	Assets   *memory.Assets

	Members  *memory.Table[domain.Member]
	Profiles *memory.Table[domain.UserProfile]
	Pages    *memory.Table[domain.ContentPage]

	AdminID string
	GuestID string
}

func NewBackend(t testing.TB) *Backend {
	t.Helper()
	log := zerolog.Nop()

	b := &Backend{
		Assets:   memory.NewAssets(PublicBaseURL),
		Members:  memory.NewTable[domain.Member](),
		Profiles: memory.NewTable[domain.UserProfile](),
		Pages:    memory.NewTable[domain.ContentPage](),
	}
	b.Identity = identity.NewService(memory.NewCredentials(), memory.NewSessions(), Secret, time.Hour, log)
	b.Tables = service.Tables{
		Members:    b.Members,
		Organizers: memory.NewTable[domain.Organizer](),
		Affiliates: memory.NewTable[domain.Affiliate](),
		HonorRoll:  memory.NewTable[domain.HonorRollEntry](),
		Profiles:   b.Profiles,
		Pages:      b.Pages,
		Timeline:   memory.NewTable[domain.TimelineEvent](),
	}

	retry := service.RetryPolicy{MaxAttempts: 1}
	b.Registry = service.NewRegistry(b.Identity, service.PortalDeps{
		Tables:             b.Tables,
		Assets:             b.Assets,
		Provisioner:        b.Identity,
		Clock:              clock.System{},
		Retry:              service.RetryPolicies{Session: retry, Profile: retry},
		DefaultChapterName: "ALPHA BETA",
	}, log)
	t.Cleanup(b.Registry.Close)

	b.AdminID = b.AddUser(t, domain.UserProfile{Name: "Admin", Email: AdminEmail, Role: domain.RoleAdmin, Status: domain.StatusActive})
	b.GuestID = b.AddUser(t, domain.UserProfile{Name: "Guest", Email: GuestEmail, Role: domain.RoleGuest, Status: domain.StatusActive})
	return b
}

// AddUser creates credentials with Password and the matching profile.
func (b *Backend) AddUser(t testing.TB, profile domain.UserProfile) string {
	t.Helper()
	ctx := context.Background()
	id, err := b.Identity.Provision(ctx, profile.Email, Password)
	if err != nil {
		t.Fatalf("provision %s: %v", profile.Email, err)
	}
	profile.ID = id
	if _, err := b.Profiles.Insert(ctx, profile); err != nil {
		t.Fatalf("insert profile %s: %v", profile.Email, err)
	}
	return id
}

// Login returns a live session token for email.
func (b *Backend) Login(t testing.TB, email string) (string, *service.Portal) {
	t.Helper()
	token, p, err := b.Registry.Login(context.Background(), email, Password)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return token, p
}
