package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/service"
)

func NewMemberHandler() *EntityHandler[domain.Member, domain.MemberPatch] {
	return NewEntityHandler[domain.Member, domain.MemberPatch](func(p *service.Portal) EntityStore[domain.Member] {
		return p.Members
	})
}

func NewOrganizerHandler() *EntityHandler[domain.Organizer, domain.OrganizerPatch] {
	return NewEntityHandler[domain.Organizer, domain.OrganizerPatch](func(p *service.Portal) EntityStore[domain.Organizer] {
		return p.Organizers
	})
}

func NewAffiliateHandler() *EntityHandler[domain.Affiliate, domain.AffiliatePatch] {
	return NewEntityHandler[domain.Affiliate, domain.AffiliatePatch](func(p *service.Portal) EntityStore[domain.Affiliate] {
		return p.Affiliates
	})
}

// NewHonorRollHandler serves the honor roll; ?type=GC|GLC selects one list.
func NewHonorRollHandler() *EntityHandler[domain.HonorRollEntry, domain.HonorRollPatch] {
	h := NewEntityHandler[domain.HonorRollEntry, domain.HonorRollPatch](func(p *service.Portal) EntityStore[domain.HonorRollEntry] {
		return p.HonorRoll
	})
	return h.WithFilter(func(c echo.Context, items []domain.HonorRollEntry) ([]domain.HonorRollEntry, error) {
		kind := domain.HonorRollType(c.QueryParam("type"))
		if kind == "" {
			return items, nil
		}
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: type must be GC or GLC", domain.ErrInvalidInput)
		}
		return keep(items, func(e domain.HonorRollEntry) bool { return e.Type == kind }), nil
	})
}

// NewTimelineHandler serves the timeline; ?category= selects one category.
func NewTimelineHandler() *EntityHandler[domain.TimelineEvent, domain.TimelinePatch] {
	h := NewEntityHandler[domain.TimelineEvent, domain.TimelinePatch](func(p *service.Portal) EntityStore[domain.TimelineEvent] {
		return p.Timeline
	})
	return h.WithFilter(func(c echo.Context, items []domain.TimelineEvent) ([]domain.TimelineEvent, error) {
		category := domain.TimelineCategory(c.QueryParam("category"))
		if category == "" {
			return items, nil
		}
		if !category.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, category)
		}
		return keep(items, func(e domain.TimelineEvent) bool { return e.Category == category }), nil
	})
}

func keep[T any](items []T, match func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}
