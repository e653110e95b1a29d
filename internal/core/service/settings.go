package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
)

// SettingsStore keeps the application settings in two reserved content
// pages and serves a snapshot with read-side defaults.
type SettingsStore struct {
	pages       *PageStore
	assets      ports.AssetStore
	defaultName string
	log         zerolog.Logger

	mu      sync.RWMutex
	current domain.Settings
}

func NewSettingsStore(pages *PageStore, assets ports.AssetStore, defaultName string, log zerolog.Logger) *SettingsStore {
	return &SettingsStore{
		pages:       pages,
		assets:      assets,
		defaultName: defaultName,
		log:         log.With().Str("store", "settings").Logger(),
		current:     domain.Settings{ChapterName: defaultName},
	}
}

func (s *SettingsStore) Get() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Refresh rebuilds the snapshot from the loaded content pages.
func (s *SettingsStore) Refresh() {
	next := domain.Settings{ChapterName: s.defaultName}
	if p, ok := s.pages.Get(domain.SettingChapterName); ok && p.Content != "" {
		next.ChapterName = p.Content
	}
	if p, ok := s.pages.Get(domain.SettingLogoURL); ok {
		next.LogoURL = p.Content
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
}

// Update writes each present field to its reserved page. The snapshot
// reflects every write that succeeded, even when a later one fails.
func (s *SettingsStore) Update(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	if patch.ChapterName != nil {
		if _, err := s.pages.Upsert(ctx, domain.SettingChapterName, "", *patch.ChapterName); err != nil {
			return s.Get(), fmt.Errorf("update chapter name: %w", err)
		}
		name := *patch.ChapterName
		if name == "" {
			name = s.defaultName
		}
		s.mu.Lock()
		s.current.ChapterName = name
		s.mu.Unlock()
	}
	if patch.LogoURL != nil {
		if _, err := s.pages.Upsert(ctx, domain.SettingLogoURL, "", *patch.LogoURL); err != nil {
			return s.Get(), fmt.Errorf("update logo: %w", err)
		}
		s.mu.Lock()
		s.current.LogoURL = *patch.LogoURL
		s.mu.Unlock()
	}
	return s.Get(), nil
}

// UploadLogo stores the image in the asset store and records its public URL
// as the logo.
func (s *SettingsStore) UploadLogo(ctx context.Context, filename string, data []byte) (domain.Settings, error) {
	if err := RequireAdmin(s.pages.caller.Identity()); err != nil {
		return s.Get(), err
	}
	if s.assets == nil {
		return s.Get(), fmt.Errorf("upload logo: %w: no asset store configured", domain.ErrInvalidInput)
	}
	if len(data) == 0 {
		return s.Get(), fmt.Errorf("upload logo: %w: empty file", domain.ErrInvalidInput)
	}

	name := "logo-" + uuid.NewString() + strings.ToLower(path.Ext(filename))
	url, err := s.assets.Upload(ctx, name, data)
	if err != nil {
		return s.Get(), fmt.Errorf("upload logo: %w: %w", domain.ErrRemote, err)
	}
	s.log.Info().Str("asset", name).Msg("logo uploaded")

	return s.Update(ctx, domain.SettingsPatch{LogoURL: &url})
}
