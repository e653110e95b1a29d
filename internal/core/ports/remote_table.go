package ports

import (
	"context"
)

// RemoteTable is one named table in the remote store. Implementations return
// domain.ErrNotFound when the target id does not exist and wrap every other
// failure; callers never see driver errors directly.
type RemoteTable[T any] interface {
	// SelectAll returns every row in insertion order.
	SelectAll(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	// Insert stores the record and returns the server representation.
	Insert(ctx context.Context, rec T) (*T, error)
	// Update applies fields, keyed by wire name, and returns the updated row.
	Update(ctx context.Context, id string, fields map[string]any) (*T, error)
	Delete(ctx context.Context, id string) error
}
