package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
)

func TestPageStore_UpsertCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	table := newStubTable[domain.ContentPage]()
	clock := newFixedClock()
	pages := NewPageStore(table, as(adminIdentity), clock, zerolog.Nop())

	created, err := pages.Upsert(ctx, "about_history", "", "Founded in 1963.")
	require.NoError(t, err)
	assert.Equal(t, "about_history", created.ID)
	assert.Equal(t, "about_history", created.Title, "title defaults to id")
	assert.Equal(t, "Founded in 1963.", created.Content)
	assert.True(t, created.UpdatedAt.Equal(clock.Now()))

	updated, err := pages.Upsert(ctx, "about_history", "", "Founded in 1963 in Manila.")
	require.NoError(t, err)
	assert.Equal(t, "about_history", updated.Title)
	assert.Equal(t, "Founded in 1963 in Manila.", updated.Content)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	renamed, err := pages.Upsert(ctx, "about_history", "Our History", "Founded in 1963 in Manila.")
	require.NoError(t, err)
	assert.Equal(t, "Our History", renamed.Title)

	require.Equal(t, 1, pages.Len())
	got, ok := pages.Get("about_history")
	require.True(t, ok)
	assert.Equal(t, renamed, got)
}

func TestPageStore_UpsertGuestDenied(t *testing.T) {
	table := newStubTable[domain.ContentPage]()
	pages := NewPageStore(table, as(guestIdentity), newFixedClock(), zerolog.Nop())

	_, err := pages.Upsert(context.Background(), "about_history", "", "x")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Zero(t, table.Calls())
}

func TestPageStore_UpsertRemoteFailure(t *testing.T) {
	table := newStubTable[domain.ContentPage]()
	table.writeErr = errTransport
	pages := NewPageStore(table, as(adminIdentity), newFixedClock(), zerolog.Nop())

	_, err := pages.Upsert(context.Background(), "about_history", "", "x")
	assert.ErrorIs(t, err, domain.ErrRemote)
	assert.Zero(t, pages.Len())
}
