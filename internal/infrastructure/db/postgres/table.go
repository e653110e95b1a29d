package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
)

type identified interface {
	EntityID() string
}

// Table is a remote table stored as JSONB rows of portal_records. Partial
// updates merge into the stored document.
type Table[T identified] struct {
	pool *pgxpool.Pool
	name string
}

func NewTable[T identified](pool *pgxpool.Pool, name string) *Table[T] {
	return &Table[T]{pool: pool, name: name}
}

func (t *Table[T]) SelectAll(ctx context.Context) ([]T, error) {
	rows, err := t.pool.Query(ctx, `SELECT doc FROM portal_records WHERE tbl = $1 ORDER BY seq`, t.name)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.name, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		rec, err := decode[T](raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", t.name, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", t.name, err)
	}
	return out, nil
}

func (t *Table[T]) Get(ctx context.Context, id string) (*T, error) {
	var raw []byte
	err := t.pool.QueryRow(ctx, `SELECT doc FROM portal_records WHERE tbl = $1 AND id = $2`, t.name, id).Scan(&raw)
	return t.row(raw, err, "get", id)
}

func (t *Table[T]) Insert(ctx context.Context, rec T) (*T, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", t.name, err)
	}

	var raw []byte
	err = t.pool.QueryRow(ctx, `
		INSERT INTO portal_records (tbl, id, doc) VALUES ($1, $2, $3::jsonb)
		RETURNING doc
	`, t.name, rec.EntityID(), string(doc)).Scan(&raw)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("insert %s/%s: %w", t.name, rec.EntityID(), domain.ErrDuplicate)
	}
	return t.row(raw, err, "insert", rec.EntityID())
}

func (t *Table[T]) Update(ctx context.Context, id string, fields map[string]any) (*T, error) {
	patch := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != "id" {
			patch[k] = v
		}
	}
	doc, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", t.name, id, err)
	}

	var raw []byte
	err = t.pool.QueryRow(ctx, `
		UPDATE portal_records SET doc = doc || $3::jsonb
		WHERE tbl = $1 AND id = $2
		RETURNING doc
	`, t.name, id, string(doc)).Scan(&raw)
	return t.row(raw, err, "update", id)
}

func (t *Table[T]) Delete(ctx context.Context, id string) error {
	tag, err := t.pool.Exec(ctx, `DELETE FROM portal_records WHERE tbl = $1 AND id = $2`, t.name, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", t.name, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s/%s: %w", t.name, id, domain.ErrNotFound)
	}
	return nil
}

func (t *Table[T]) row(raw []byte, err error, op, id string) (*T, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s %s/%s: %w", op, t.name, id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%s %s/%s: %w", op, t.name, id, err)
	}
	rec, err := decode[T](raw)
	if err != nil {
		return nil, fmt.Errorf("%s %s/%s: %w", op, t.name, id, err)
	}
	return &rec, nil
}

func decode[T any](raw []byte) (T, error) {
	var rec T
	err := json.Unmarshal(raw, &rec)
	return rec, err
}
