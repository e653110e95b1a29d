package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/alphabeta/chapter-portal/internal/api/apitest"
	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/service"
)

func runAuth(t *testing.T, b *apitest.Backend, header string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(b.Registry)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, c, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	b := apitest.NewBackend(t)
	token, portal := b.Login(t, apitest.AdminEmail)

	rec, c, called := runAuth(t, b, "Bearer "+token)

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got, _ := c.Get("portal").(*service.Portal); got != portal {
		t.Fatalf("portal not set to the logged-in portal")
	}
	if c.Get("role") != "admin" {
		t.Fatalf("role not set, got %v", c.Get("role"))
	}
	if c.Get("user_id") != b.AdminID {
		t.Fatalf("user_id not set")
	}
	if c.Get("token") != token {
		t.Fatalf("token not set")
	}
}

func TestAuthMiddleware_RestoresUnknownSession(t *testing.T) {
	b := apitest.NewBackend(t)
	sess, err := b.Identity.Authenticate(context.Background(), apitest.GuestEmail, apitest.Password)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	rec, c, called := runAuth(t, b, "bearer "+sess.Token)

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from next, got %d (called=%v)", rec.Code, called)
	}
	if c.Get("role") != "guest" {
		t.Fatalf("expected guest role, got %v", c.Get("role"))
	}
	if b.Registry.Len() != 1 {
		t.Fatalf("expected restored session to be tracked, got %d", b.Registry.Len())
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	b := apitest.NewBackend(t)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        "sid",
		Subject:   b.AdminID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Token abc",
		"no token":       "Bearer",
		"not a jwt":      "Bearer not-a-token",
		"forged":         "Bearer " + forged,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec, _, called := runAuth(t, b, header)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	b := apitest.NewBackend(t)
	token, _ := b.Login(t, apitest.AdminEmail)
	if err := b.Registry.Logout(context.Background(), token); err != nil {
		t.Fatalf("logout: %v", err)
	}

	rec, _, called := runAuth(t, b, "Bearer "+token)
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InactiveAccount(t *testing.T) {
	b := apitest.NewBackend(t)
	b.AddUser(t, domain.UserProfile{Name: "Former", Email: "former@alphabeta.org", Role: domain.RoleGuest, Status: domain.StatusInactive})
	sess, err := b.Identity.Authenticate(context.Background(), "former@alphabeta.org", apitest.Password)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	rec, _, called := runAuth(t, b, "Bearer "+sess.Token)
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
