package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
)

// PageStore holds the editable content pages keyed by caller-chosen ids.
type PageStore struct {
	*Store[domain.ContentPage, *domain.ContentPage]
}

func NewPageStore(
	remote ports.RemoteTable[domain.ContentPage],
	caller IdentitySource,
	clock ports.Clock,
	log zerolog.Logger,
) *PageStore {
	return &PageStore{Store: NewStore[domain.ContentPage](TablePages, remote, caller, clock, log)}
}

// Upsert updates the page content, creating the page when it does not exist
// yet. An empty title leaves the existing title alone and defaults to id for
// new pages.
func (p *PageStore) Upsert(ctx context.Context, id, title, content string) (domain.ContentPage, error) {
	fields := domain.Fields{"content": content}
	if title != "" {
		fields["title"] = title
	}

	page, err := p.update(ctx, "upsert", id, fields)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return page, err
	}

	if title == "" {
		title = id
	}
	return p.insert(ctx, "upsert", domain.ContentPage{ID: id, Title: title, Content: content}, id)
}
