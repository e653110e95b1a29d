// Package memory holds in-process implementations of the storage ports.
// They back the "memory" storage backend and the tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
)

type identified interface {
	EntityID() string
}

// Table is an in-memory remote table. Rows keep insertion order. It is safe
// for concurrent use.
type Table[T identified] struct {
	mu   sync.RWMutex
	rows []T
}

func NewTable[T identified]() *Table[T] {
	return &Table[T]{}
}

func (t *Table[T]) SelectAll(_ context.Context) ([]T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, len(t.rows))
	copy(out, t.rows)
	return out, nil
}

func (t *Table[T]) Get(_ context.Context, id string) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i := t.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
	}
	row := t.rows[i]
	return &row, nil
}

func (t *Table[T]) Insert(_ context.Context, rec T) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rec.EntityID() == "" {
		return nil, fmt.Errorf("insert: %w: empty id", domain.ErrInvalidInput)
	}
	if t.indexOf(rec.EntityID()) >= 0 {
		return nil, fmt.Errorf("insert %s: %w", rec.EntityID(), domain.ErrDuplicate)
	}
	t.rows = append(t.rows, rec)
	return &rec, nil
}

// Update merges fields into the stored row through its JSON form, the way a
// document store applies a partial update.
func (t *Table[T]) Update(_ context.Context, id string, fields map[string]any) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("update %s: %w", id, domain.ErrNotFound)
	}

	merged, err := merge(t.rows[i], fields)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", id, err)
	}
	t.rows[i] = merged
	return &merged, nil
}

func (t *Table[T]) Delete(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexOf(id)
	if i < 0 {
		return fmt.Errorf("delete %s: %w", id, domain.ErrNotFound)
	}
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	return nil
}

func (t *Table[T]) indexOf(id string) int {
	for i := range t.rows {
		if t.rows[i].EntityID() == id {
			return i
		}
	}
	return -1
}

func merge[T any](row T, fields map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(row)
	if err != nil {
		return out, err
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return out, err
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	raw, err = json.Marshal(doc)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return out, nil
}
