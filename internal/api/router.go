package api

import (
	"context"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/alphabeta/chapter-portal/docs"
	"github.com/alphabeta/chapter-portal/internal/api/handler"
	"github.com/alphabeta/chapter-portal/internal/api/middleware"
	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
	"github.com/alphabeta/chapter-portal/internal/core/service"
)

// Sessions is the session registry the API runs on.
type Sessions interface {
	Login(ctx context.Context, email, password string) (string, *service.Portal, error)
	Logout(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) (*service.Portal, error)
}

// Deps are the collaborators of the HTTP surface. Nil metrics fields fall
// back to the default Prometheus registry.
type Deps struct {
	Sessions   Sessions
	Assets     ports.AssetStore
	Checks     map[string]handler.Check
	Log        zerolog.Logger
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

type crudHandler interface {
	List(echo.Context) error
	Get(echo.Context) error
	Create(echo.Context) error
	Patch(echo.Context) error
	Delete(echo.Context) error
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "portal",
		Subsystem:  "http",
		Registerer: d.Registerer,
	}))

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Checks).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/assets/:name", handler.NewAssetHandler(d.Assets).Serve)

	// --- Auth ---
	auth := handler.NewAuthHandler(d.Sessions)
	authenticated := middleware.Auth(d.Sessions)
	e.POST("/auth/login", auth.Login)
	e.POST("/auth/logout", auth.Logout, authenticated)
	e.GET("/auth/me", auth.Me, authenticated)

	// --- Portal ---
	v1 := e.Group("/v1", authenticated)

	portal := handler.NewPortalHandler()
	v1.POST("/refresh", portal.Refresh)
	v1.GET("/stats", portal.Stats)

	mountCRUD(v1.Group("/members"), handler.NewMemberHandler())
	mountCRUD(v1.Group("/organizers"), handler.NewOrganizerHandler())
	mountCRUD(v1.Group("/affiliates"), handler.NewAffiliateHandler())
	mountCRUD(v1.Group("/honor-roll"), handler.NewHonorRollHandler())
	mountCRUD(v1.Group("/timeline"), handler.NewTimelineHandler())

	users := handler.NewUserHandler()
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	v1.GET("/users", users.List, adminOnly)
	v1.GET("/users/:id", users.Get, adminOnly)
	v1.POST("/users", users.Provision)
	v1.PATCH("/users/:id", users.Patch)
	v1.DELETE("/users/:id", users.Delete)

	pages := handler.NewPageHandler()
	v1.GET("/pages", pages.List)
	v1.GET("/pages/:id", pages.Get)
	v1.GET("/pages/:id/html", pages.HTML)
	v1.PUT("/pages/:id", pages.Put)
	v1.DELETE("/pages/:id", pages.Delete)

	settings := handler.NewSettingsHandler()
	v1.GET("/settings", settings.Get)
	v1.PATCH("/settings", settings.Patch)
	v1.POST("/settings/logo", settings.Logo)

	return e
}

func mountCRUD(g *echo.Group, h crudHandler) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PATCH("/:id", h.Patch)
	g.DELETE("/:id", h.Delete)
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
