package domain

import "time"

// Reserved content-page ids that hold application settings.
const (
	SettingChapterName = "app_chapter_name"
	SettingLogoURL     = "app_logo_url"
)

// ContentPage is an editable page section. ID is the lookup key chosen by
// the caller, not a generated surrogate.
type ContentPage struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	UpdatedAt time.Time `json:"lastUpdated" bson:"lastUpdated"`
}

func (p ContentPage) EntityID() string { return p.ID }

// Stamp keeps a caller-chosen id.
func (p *ContentPage) Stamp(id string, now time.Time) {
	if p.ID == "" {
		p.ID = id
	}
	p.UpdatedAt = now
}

func (p ContentPage) LastUpdated() time.Time { return p.UpdatedAt }

func (p ContentPage) UpdatedField() string { return "lastUpdated" }

func (p ContentPage) Validate() error { return nil }

// Settings is the application-wide configuration stored in reserved pages.
type Settings struct {
	ChapterName string `json:"chapterName"`
	LogoURL     string `json:"logoUrl"`
}

// SettingsPatch carries only the settings being changed.
type SettingsPatch struct {
	ChapterName *string `json:"chapterName,omitempty"`
	LogoURL     *string `json:"logoUrl,omitempty"`
}
