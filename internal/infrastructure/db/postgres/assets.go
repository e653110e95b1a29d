package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
)

// AssetStore keeps uploaded files in portal_assets.
type AssetStore struct {
	pool    *pgxpool.Pool
	baseURL string
}

func NewAssetStore(pool *pgxpool.Pool, baseURL string) *AssetStore {
	return &AssetStore{pool: pool, baseURL: strings.TrimRight(baseURL, "/")}
}

func (a *AssetStore) Upload(ctx context.Context, name string, data []byte) (string, error) {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO portal_assets (name, data) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data
	`, name, data)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return a.baseURL + "/assets/" + name, nil
}

func (a *AssetStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	var data []byte
	err := a.pool.QueryRow(ctx, `SELECT data FROM portal_assets WHERE name = $1`, name).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
