package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/alphabeta/chapter-portal/internal/api/apitest"
	"github.com/alphabeta/chapter-portal/internal/api/handler"
	"github.com/alphabeta/chapter-portal/internal/core/domain"
)

func newTestRouter(t *testing.T, checks map[string]handler.Check) (*echo.Echo, *apitest.Backend) {
	t.Helper()
	b := apitest.NewBackend(t)
	reg := prometheus.NewRegistry()
	e := NewRouter(Deps{
		Sessions:   b.Registry,
		Assets:     b.Assets,
		Checks:     checks,
		Log:        zerolog.Nop(),
		Registerer: reg,
		Gatherer:   reg,
	})
	return e, b
}

func do(e *echo.Echo, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func login(t *testing.T, e *echo.Echo, email string) string {
	t.Helper()
	rec := do(e, http.MethodPost, "/auth/login", "", `{"email":"`+email+`","password":"`+apitest.Password+`"}`)
	expectStatus(t, rec, http.StatusOK)
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, rec, &resp)
	if resp.Token == "" {
		t.Fatalf("empty token")
	}
	return resp.Token
}

func TestHealth(t *testing.T) {
	e, _ := newTestRouter(t, map[string]handler.Check{
		"store": func(context.Context) error { return nil },
	})
	expectStatus(t, do(e, http.MethodGet, "/health", "", ""), http.StatusOK)
	expectStatus(t, do(e, http.MethodGet, "/health/ready", "", ""), http.StatusOK)

	e, _ = newTestRouter(t, map[string]handler.Check{
		"store": func(context.Context) error { return errors.New("connection refused") },
	})
	rec := do(e, http.MethodGet, "/health/ready", "", "")
	expectStatus(t, rec, http.StatusServiceUnavailable)
	if !strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("expected dependency error in body, got %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e, _ := newTestRouter(t, nil)
	do(e, http.MethodGet, "/health", "", "")
	rec := do(e, http.MethodGet, "/metrics", "", "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "portal_http_") {
		t.Fatalf("expected http metrics, got %s", rec.Body.String())
	}
}

func TestLogin(t *testing.T) {
	e, b := newTestRouter(t, nil)

	rec := do(e, http.MethodPost, "/auth/login", "", `{"email":"admin@alphabeta.org","password":"wrong"}`)
	expectStatus(t, rec, http.StatusUnauthorized)
	var errResp map[string]string
	decode(t, rec, &errResp)
	if errResp["error"] != "invalid credentials" {
		t.Fatalf("unexpected error body: %v", errResp)
	}

	expectStatus(t, do(e, http.MethodPost, "/auth/login", "", `{"email":"not-an-email","password":"x"}`), http.StatusUnprocessableEntity)
	expectStatus(t, do(e, http.MethodPost, "/auth/login", "", `{"email":`), http.StatusBadRequest)

	rec = do(e, http.MethodPost, "/auth/login", "", `{"email":"admin@alphabeta.org","password":"`+apitest.Password+`"}`)
	expectStatus(t, rec, http.StatusOK)
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
	}
	decode(t, rec, &resp)
	if resp.User.ID != b.AdminID || resp.User.Role != "admin" {
		t.Fatalf("unexpected user: %+v", resp.User)
	}
}

func TestMeAndLogout(t *testing.T) {
	e, _ := newTestRouter(t, nil)
	token := login(t, e, apitest.GuestEmail)

	rec := do(e, http.MethodGet, "/auth/me", token, "")
	expectStatus(t, rec, http.StatusOK)
	var me map[string]string
	decode(t, rec, &me)
	if me["email"] != apitest.GuestEmail || me["role"] != "guest" {
		t.Fatalf("unexpected identity: %v", me)
	}

	expectStatus(t, do(e, http.MethodPost, "/auth/logout", token, ""), http.StatusNoContent)
	expectStatus(t, do(e, http.MethodGet, "/auth/me", token, ""), http.StatusUnauthorized)
	expectStatus(t, do(e, http.MethodGet, "/v1/members", "", ""), http.StatusUnauthorized)
}

func TestMembersCRUD(t *testing.T) {
	e, _ := newTestRouter(t, nil)
	token := login(t, e, apitest.AdminEmail)

	rec := do(e, http.MethodPost, "/v1/members", token,
		`{"lastName":"Cruz","firstName":"Ana","gender":"Male","batchYear":"2024","semester":"A","school":"Central University"}`)
	expectStatus(t, rec, http.StatusCreated)
	var created map[string]any
	decode(t, rec, &created)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("expected generated id, got %v", created)
	}

	rec = do(e, http.MethodGet, "/v1/members", token, "")
	expectStatus(t, rec, http.StatusOK)
	var list []map[string]any
	decode(t, rec, &list)
	if len(list) != 1 || list[0]["lastName"] != "Cruz" {
		t.Fatalf("unexpected list: %v", list)
	}

	rec = do(e, http.MethodPatch, "/v1/members/"+id, token, `{"school":null,"batchYear":"2025"}`)
	expectStatus(t, rec, http.StatusOK)
	var updated map[string]any
	decode(t, rec, &updated)
	if updated["school"] != "" || updated["batchYear"] != "2025" || updated["lastName"] != "Cruz" {
		t.Fatalf("unexpected update: %v", updated)
	}

	expectStatus(t, do(e, http.MethodPatch, "/v1/members/"+id, token, `{"gender":null}`), http.StatusUnprocessableEntity)
	expectStatus(t, do(e, http.MethodPost, "/v1/members", token, `{"lastName":"Reyes","gender":"Other"}`), http.StatusUnprocessableEntity)
	expectStatus(t, do(e, http.MethodPatch, "/v1/members/missing", token, `{"school":"North"}`), http.StatusNotFound)

	expectStatus(t, do(e, http.MethodGet, "/v1/members/"+id, token, ""), http.StatusOK)
	expectStatus(t, do(e, http.MethodDelete, "/v1/members/"+id, token, ""), http.StatusNoContent)
	expectStatus(t, do(e, http.MethodGet, "/v1/members/"+id, token, ""), http.StatusNotFound)
}

func TestGuestIsReadOnly(t *testing.T) {
	e, _ := newTestRouter(t, nil)
	token := login(t, e, apitest.GuestEmail)

	expectStatus(t, do(e, http.MethodGet, "/v1/members", token, ""), http.StatusOK)

	rec := do(e, http.MethodPost, "/v1/organizers", token, `{"lastName":"Santos"}`)
	expectStatus(t, rec, http.StatusForbidden)
	var errResp map[string]string
	decode(t, rec, &errResp)
	if errResp["error"] != "admin role required" {
		t.Fatalf("unexpected error body: %v", errResp)
	}

	expectStatus(t, do(e, http.MethodGet, "/v1/users", token, ""), http.StatusForbidden)
	expectStatus(t, do(e, http.MethodPatch, "/v1/settings", token, `{"chapterName":"GAMMA"}`), http.StatusForbidden)
}

func TestUsers(t *testing.T) {
	e, b := newTestRouter(t, nil)
	token := login(t, e, apitest.AdminEmail)

	rec := do(e, http.MethodGet, "/v1/users", token, "")
	expectStatus(t, rec, http.StatusOK)
	var users []map[string]any
	decode(t, rec, &users)
	if len(users) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(users))
	}

	body := `{"name":"New Officer","email":"Officer@AlphaBeta.org","password":"long-enough","role":"guest"}`
	rec = do(e, http.MethodPost, "/v1/users", token, body)
	expectStatus(t, rec, http.StatusCreated)
	var created map[string]any
	decode(t, rec, &created)
	if created["email"] != "officer@alphabeta.org" || created["status"] != "active" {
		t.Fatalf("unexpected profile: %v", created)
	}

	expectStatus(t, do(e, http.MethodPost, "/v1/users", token, body), http.StatusConflict)
	expectStatus(t, do(e, http.MethodPost, "/v1/users", token, `{"name":"X","email":"x@alphabeta.org","password":"short","role":"guest"}`), http.StatusUnprocessableEntity)

	rec = do(e, http.MethodDelete, "/v1/users/"+b.AdminID, token, "")
	expectStatus(t, rec, http.StatusConflict)

	expectStatus(t, do(e, http.MethodPatch, "/v1/users/"+b.GuestID, token, `{"role":"admin"}`), http.StatusOK)
	expectStatus(t, do(e, http.MethodDelete, "/v1/users/"+b.GuestID, token, ""), http.StatusNoContent)
}

func TestHonorRollFilter(t *testing.T) {
	e, _ := newTestRouter(t, nil)
	token := login(t, e, apitest.AdminEmail)

	expectStatus(t, do(e, http.MethodPost, "/v1/honor-roll", token, `{"lastName":"Lopez","year":"2023","term":"1st","type":"GC"}`), http.StatusCreated)
	expectStatus(t, do(e, http.MethodPost, "/v1/honor-roll", token, `{"lastName":"Diaz","year":"2023","term":"1st","type":"GLC"}`), http.StatusCreated)

	rec := do(e, http.MethodGet, "/v1/honor-roll?type=GLC", token, "")
	expectStatus(t, rec, http.StatusOK)
	var list []map[string]any
	decode(t, rec, &list)
	if len(list) != 1 || list[0]["lastName"] != "Diaz" {
		t.Fatalf("unexpected filtered list: %v", list)
	}

	expectStatus(t, do(e, http.MethodGet, "/v1/honor-roll?type=XYZ", token, ""), http.StatusUnprocessableEntity)
}

func TestPagesAndSettings(t *testing.T) {
	e, _ := newTestRouter(t, nil)
	token := login(t, e, apitest.AdminEmail)

	rec := do(e, http.MethodPut, "/v1/pages/about", token, `{"title":"About","content":"# Hello\nfirst\nsecond <script>x</script>"}`)
	expectStatus(t, rec, http.StatusOK)

	rec = do(e, http.MethodGet, "/v1/pages/about/html", token, "")
	expectStatus(t, rec, http.StatusOK)
	html := rec.Body.String()
	if !strings.Contains(html, "<h1>Hello</h1>") || !strings.Contains(html, "<br") {
		t.Fatalf("unexpected html: %s", html)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("raw html must not be rendered: %s", html)
	}
	expectStatus(t, do(e, http.MethodGet, "/v1/pages/missing/html", token, ""), http.StatusNotFound)

	rec = do(e, http.MethodGet, "/v1/settings", token, "")
	expectStatus(t, rec, http.StatusOK)
	var settings map[string]string
	decode(t, rec, &settings)
	if settings["chapterName"] != "ALPHA BETA" {
		t.Fatalf("expected default chapter name, got %v", settings)
	}

	expectStatus(t, do(e, http.MethodPatch, "/v1/settings", token, `{"chapterName":"GAMMA"}`), http.StatusOK)
	expectStatus(t, do(e, http.MethodPatch, "/v1/settings", token, `{"chapterName":""}`), http.StatusUnprocessableEntity)

	rec = do(e, http.MethodGet, "/v1/settings", token, "")
	decode(t, rec, &settings)
	if settings["chapterName"] != "GAMMA" {
		t.Fatalf("expected GAMMA, got %v", settings)
	}

	rec = do(e, http.MethodGet, "/v1/pages/app_chapter_name", token, "")
	expectStatus(t, rec, http.StatusOK)

	expectStatus(t, do(e, http.MethodDelete, "/v1/pages/app_chapter_name", token, ""), http.StatusNoContent)
	expectStatus(t, do(e, http.MethodDelete, "/v1/pages/app_chapter_name", token, ""), http.StatusNotFound)
	rec = do(e, http.MethodGet, "/v1/settings", token, "")
	decode(t, rec, &settings)
	if settings["chapterName"] != "ALPHA BETA" {
		t.Fatalf("expected default after delete, got %v", settings)
	}

	guest := login(t, e, apitest.GuestEmail)
	expectStatus(t, do(e, http.MethodDelete, "/v1/pages/about", guest, ""), http.StatusForbidden)
	expectStatus(t, do(e, http.MethodGet, "/v1/pages/about", guest, ""), http.StatusOK)
}

func TestRevokedSessionRejected(t *testing.T) {
	e, b := newTestRouter(t, nil)
	token := login(t, e, apitest.AdminEmail)
	expectStatus(t, do(e, http.MethodGet, "/auth/me", token, ""), http.StatusOK)

	if err := b.Identity.Revoke(context.Background(), token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	expectStatus(t, do(e, http.MethodGet, "/auth/me", token, ""), http.StatusUnauthorized)
	if n := b.Registry.Len(); n != 0 {
		t.Fatalf("expected revoked portal to be dropped, %d left", n)
	}
}

func TestDeactivatedUserLosesAccess(t *testing.T) {
	e, b := newTestRouter(t, nil)
	id := b.AddUser(t, domain.UserProfile{Name: "Second", Email: "second@alphabeta.org", Role: domain.RoleAdmin, Status: domain.StatusActive})
	admin := login(t, e, apitest.AdminEmail)
	second := login(t, e, "second@alphabeta.org")

	member := `{"lastName":"Reyes","firstName":"Ana","gender":"Male","batchYear":"2024","semester":"A"}`
	expectStatus(t, do(e, http.MethodPost, "/v1/members", second, member), http.StatusCreated)

	expectStatus(t, do(e, http.MethodPatch, "/v1/users/"+id, admin, `{"role":"guest"}`), http.StatusOK)
	expectStatus(t, do(e, http.MethodPost, "/v1/members", second, member), http.StatusForbidden)

	expectStatus(t, do(e, http.MethodPatch, "/v1/users/"+id, admin, `{"status":"inactive"}`), http.StatusOK)
	expectStatus(t, do(e, http.MethodGet, "/v1/members", second, ""), http.StatusForbidden)
}

func TestLogoUploadAndServe(t *testing.T) {
	e, _ := newTestRouter(t, nil)
	token := login(t, e, apitest.AdminEmail)
	png := []byte("\x89PNG\r\n\x1a\nfake")

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "Chapter.PNG")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write(png)
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/settings/logo", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)

	var settings map[string]string
	decode(t, rec, &settings)
	logo := settings["logoUrl"]
	if !strings.HasPrefix(logo, apitest.PublicBaseURL+"/assets/logo-") || !strings.HasSuffix(logo, ".png") {
		t.Fatalf("unexpected logo url %q", logo)
	}

	rec = do(e, http.MethodGet, "/assets/"+path.Base(logo), "", "")
	expectStatus(t, rec, http.StatusOK)
	if !bytes.Equal(rec.Body.Bytes(), png) {
		t.Fatalf("asset body mismatch")
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}

	expectStatus(t, do(e, http.MethodGet, "/assets/missing.png", "", ""), http.StatusNotFound)
}

func TestStatsAndRefresh(t *testing.T) {
	e, b := newTestRouter(t, nil)
	token := login(t, e, apitest.GuestEmail)

	rec := do(e, http.MethodGet, "/v1/stats", token, "")
	expectStatus(t, rec, http.StatusOK)
	var stats struct {
		Totals struct {
			Members int `json:"members"`
		} `json:"totals"`
	}
	decode(t, rec, &stats)
	if stats.Totals.Members != 0 {
		t.Fatalf("expected no members, got %d", stats.Totals.Members)
	}

	// A write from another client is picked up by refresh.
	_, admin := b.Login(t, apitest.AdminEmail)
	member := domain.Member{LastName: "Cruz", FirstName: "Ana", Gender: domain.GenderMale, BatchYear: "2024"}
	if _, err := admin.Members.Add(context.Background(), member); err != nil {
		t.Fatalf("add member: %v", err)
	}

	rec = do(e, http.MethodPost, "/v1/refresh", token, "")
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &stats)
	if stats.Totals.Members != 1 {
		t.Fatalf("expected 1 member after refresh, got %d", stats.Totals.Members)
	}
}
