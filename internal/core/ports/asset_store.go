package ports

import (
	"context"
	"io"
)

// AssetStore keeps uploaded binary assets such as the chapter logo.
type AssetStore interface {
	// Upload stores data under name and returns its public URL.
	Upload(ctx context.Context, name string, data []byte) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
