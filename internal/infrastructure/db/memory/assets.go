package memory

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
)

// Assets keeps uploaded files in memory and serves them under baseURL.
type Assets struct {
	baseURL string

	mu    sync.RWMutex
	files map[string][]byte
}

func NewAssets(baseURL string) *Assets {
	return &Assets{baseURL: strings.TrimRight(baseURL, "/"), files: make(map[string][]byte)}
}

func (a *Assets) Upload(_ context.Context, name string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files[name] = bytes.Clone(data)
	return a.baseURL + "/assets/" + name, nil
}

func (a *Assets) Open(_ context.Context, name string) (io.ReadCloser, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.files[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
