// Package contracttest holds behaviour every storage adapter must share.
// Each adapter package runs these against its own implementation.
package contracttest

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
)

type CleanupFunc = func()

type MemberTableFactory func(t *testing.T) (ports.RemoteTable[domain.Member], CleanupFunc)
type CredentialRepoFactory func(t *testing.T) (ports.CredentialRepository, CleanupFunc)
type AssetStoreFactory func(t *testing.T) (ports.AssetStore, CleanupFunc)

func newMember(last string, at time.Time) domain.Member {
	return domain.Member{
		ID:          uuid.NewString(),
		LastName:    last,
		FirstName:   "Ana",
		Gender:      domain.GenderFemale,
		BatchYear:   "2024",
		Semester:    domain.SemesterA,
		School:      "Central University",
		DateCreated: at,
		DateUpdated: at,
	}
}

func RunRemoteTable(t *testing.T, newTable MemberTableFactory) {
	t.Helper()
	ctx := context.Background()

	table, cleanup := newTable(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	first, err := table.Insert(ctx, newMember("Cruz", at))
	require.NoError(t, err)
	assert.Equal(t, "Cruz", first.LastName)
	assert.True(t, first.DateCreated.Equal(at))

	second, err := table.Insert(ctx, newMember("Reyes", at))
	require.NoError(t, err)

	_, err = table.Insert(ctx, *first)
	assert.ErrorIs(t, err, domain.ErrDuplicate, "same id twice")

	rows, err := table.SelectAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID, "insertion order")
	assert.Equal(t, second.ID, rows[1].ID)

	later := at.Add(time.Hour)
	updated, err := table.Update(ctx, first.ID, map[string]any{
		"batchYear":   "2025",
		"dateUpdated": later,
	})
	require.NoError(t, err)
	assert.Equal(t, "2025", updated.BatchYear)
	assert.Equal(t, "Ana", updated.FirstName, "untouched field kept")
	assert.True(t, updated.DateUpdated.Equal(later))
	assert.True(t, updated.DateCreated.Equal(at))

	got, err := table.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025", got.BatchYear)

	_, err = table.Update(ctx, "missing", map[string]any{"batchYear": "1999"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = table.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, table.Delete(ctx, first.ID))
	assert.ErrorIs(t, table.Delete(ctx, first.ID), domain.ErrNotFound)

	rows, err = table.SelectAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.ID, rows[0].ID)
}

func RunCredentialRepo(t *testing.T, newRepo CredentialRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	cred := ports.Credential{ID: uuid.NewString(), Email: "officer@alphabeta.org", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, cred))
	assert.ErrorIs(t, repo.Create(ctx, cred), domain.ErrDuplicate)

	got, err := repo.FindByEmail(ctx, "officer@alphabeta.org")
	require.NoError(t, err)
	assert.Equal(t, cred.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = repo.FindByEmail(ctx, "nobody@alphabeta.org")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func RunAssetStore(t *testing.T, newStore AssetStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	url, err := store.Upload(ctx, "logo.png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Contains(t, url, "/assets/logo.png")

	rc, err := store.Open(ctx, "logo.png")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, err = store.Open(ctx, "nope.png")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
