package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/service"
)

// SessionResolver maps a bearer token to the caller's portal.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*service.Portal, error)
}

// Auth resolves the bearer token into a portal and injects it, the token
// and the caller's role into the context.
func Auth(sessions SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}
			token := strings.TrimSpace(parts[1])

			// Reject anything that is not a JWT before touching the session store.
			if _, _, err := jwt.NewParser().ParseUnverified(token, &jwt.RegisteredClaims{}); err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			portal, err := sessions.Resolve(c.Request().Context(), token)
			switch {
			case errors.Is(err, domain.ErrInactiveAccount):
				return echo.NewHTTPError(http.StatusForbidden, "account inactive")
			case errors.Is(err, domain.ErrNoSession):
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
			case err != nil:
				return err
			}

			id, ok := portal.Session.Current()
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
			}

			c.Set("portal", portal)
			c.Set("token", token)
			c.Set("user_id", id.ID)
			c.Set("role", string(id.Role))

			return next(c)
		}
	}
}
