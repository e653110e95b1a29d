package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alphabeta/chapter-portal/internal/core/service"
)

// ctxPortal returns the portal injected by the Auth middleware once its
// first load has finished. A missing portal means the middleware did not run.
func ctxPortal(c echo.Context) (*service.Portal, error) {
	p, _ := c.Get("portal").(*service.Portal)
	if p == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	if err := p.AwaitLoaded(c.Request().Context()); err != nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "portal is still loading")
	}
	return p, nil
}

func ctxToken(c echo.Context) string {
	token, _ := c.Get("token").(string)
	return token
}
