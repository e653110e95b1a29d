package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/service"
)

// UserHandler serves user profiles. Records are created by provisioning
// an account rather than by a plain insert.
type UserHandler struct {
	*EntityHandler[domain.UserProfile, domain.UserProfilePatch]
}

func NewUserHandler() *UserHandler {
	return &UserHandler{
		EntityHandler: NewEntityHandler[domain.UserProfile, domain.UserProfilePatch](func(p *service.Portal) EntityStore[domain.UserProfile] {
			return p.Users
		}),
	}
}

// Provision handles POST /v1/users.
//
// @Summary      Provision a user account
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      provisionUserRequest  true  "Account and profile"
// @Success      201   {object}  domain.UserProfile
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      501   {object}  errorResponse
// @Router       /v1/users [post]
func (h *UserHandler) Provision(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	var req provisionUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	profile, err := p.Users.Provision(c.Request().Context(), req.profile(), req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, profile)
}
