package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alphabeta/chapter-portal/internal/core/service"
)

type PortalHandler struct{}

func NewPortalHandler() *PortalHandler {
	return &PortalHandler{}
}

// Refresh handles POST /v1/refresh, reloading every collection from the
// backend. Failed collections keep their previous contents.
//
// @Summary      Reload all collections
// @Tags         portal
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  service.Stats
// @Failure      401  {object}  errorResponse
// @Router       /v1/refresh [post]
func (h *PortalHandler) Refresh(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	if err := p.Load(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, service.ComputeStats(p))
}

// Stats handles GET /v1/stats.
//
// @Summary      Dashboard statistics
// @Tags         portal
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  service.Stats
// @Router       /v1/stats [get]
func (h *PortalHandler) Stats(c echo.Context) error {
	p, err := ctxPortal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, service.ComputeStats(p))
}
