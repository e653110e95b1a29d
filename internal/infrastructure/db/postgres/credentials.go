package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
)

type CredentialRepository struct {
	pool *pgxpool.Pool
}

func NewCredentialRepository(pool *pgxpool.Pool) *CredentialRepository {
	return &CredentialRepository{pool: pool}
}

func (r *CredentialRepository) Create(ctx context.Context, c ports.Credential) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO auth_credentials (id, email, password_hash) VALUES ($1, $2, $3)`,
		c.ID, strings.ToLower(c.Email), c.PasswordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*ports.Credential, error) {
	var c ports.Credential
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash FROM auth_credentials WHERE email = $1`,
		strings.ToLower(email),
	).Scan(&c.ID, &c.Email, &c.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &c, nil
}
