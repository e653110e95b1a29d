package handler

import (
	"time"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      domain.Identity `json:"user"`
}

// --- Users ---

type provisionUserRequest struct {
	Name     string `json:"name"     validate:"required,max=120"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"     validate:"required,oneof=admin guest"`
	Status   string `json:"status"   validate:"omitempty,oneof=active inactive"`
}

func (r provisionUserRequest) profile() domain.UserProfile {
	status := domain.Status(r.Status)
	if status == "" {
		status = domain.StatusActive
	}
	return domain.UserProfile{
		Name:   r.Name,
		Email:  r.Email,
		Role:   domain.Role(r.Role),
		Status: status,
	}
}

// --- Content ---

type upsertPageRequest struct {
	Title   string `json:"title"   validate:"max=200"`
	Content string `json:"content" validate:"max=200000"`
}

type settingsRequest struct {
	ChapterName *string `json:"chapterName" validate:"omitnil,min=1,max=120"`
	LogoURL     *string `json:"logoUrl"     validate:"omitempty,url"`
}

func (r settingsRequest) patch() domain.SettingsPatch {
	return domain.SettingsPatch{ChapterName: r.ChapterName, LogoURL: r.LogoURL}
}
