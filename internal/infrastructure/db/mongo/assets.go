package mongo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
)

// AssetStore keeps uploaded files in GridFS and serves them under baseURL.
type AssetStore struct {
	db      *mongo.Database
	baseURL string
}

func NewAssetStore(db *mongo.Database, baseURL string) *AssetStore {
	return &AssetStore{db: db, baseURL: strings.TrimRight(baseURL, "/")}
}

// bucket is created per call because deadlines are bucket state.
func (a *AssetStore) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(a.db)
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := b.SetWriteDeadline(dl); err != nil {
			return nil, err
		}
		if err := b.SetReadDeadline(dl); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (a *AssetStore) Upload(ctx context.Context, name string, data []byte) (string, error) {
	b, err := a.bucket(ctx)
	if err != nil {
		return "", err
	}
	if _, err := b.UploadFromStream(name, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return a.baseURL + "/assets/" + name, nil
}

func (a *AssetStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	b, err := a.bucket(ctx)
	if err != nil {
		return nil, err
	}
	stream, err := b.OpenDownloadStreamByName(name)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return stream, nil
}
