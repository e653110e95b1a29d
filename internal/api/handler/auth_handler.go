package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alphabeta/chapter-portal/internal/core/service"
)

// Sessions opens and closes portal sessions.
type Sessions interface {
	Login(ctx context.Context, email, password string) (string, *service.Portal, error)
	Logout(ctx context.Context, token string) error
}

type AuthHandler struct {
	sessions Sessions
}

func NewAuthHandler(sessions Sessions) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// Login authenticates a user and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	token, p, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	resp := loginResponse{Token: token}
	if sess := p.Session.Session(); sess != nil {
		resp.ExpiresAt = sess.ExpiresAt
	}
	if id, ok := p.Session.Current(); ok {
		resp.User = id
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout ends the caller's session.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401   {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessions.Logout(c.Request().Context(), ctxToken(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's identity.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  domain.Identity
// @Failure      401   {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, _ := c.Get("portal").(*service.Portal)
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	id, ok := p.Session.Current()
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
	}
	return c.JSON(http.StatusOK, id)
}
