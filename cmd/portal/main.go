// Command portal serves the chapter membership portal API.
//
// @title                       Chapter Portal API
// @version                     1.0
// @description                 Roster, honor roll, timeline and content management for the chapter membership portal.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/alphabeta/chapter-portal/internal/api"
	"github.com/alphabeta/chapter-portal/internal/core/service"
	"github.com/alphabeta/chapter-portal/internal/infrastructure/clock"
	"github.com/alphabeta/chapter-portal/internal/infrastructure/identity"
	"github.com/alphabeta/chapter-portal/internal/infrastructure/queue"
	"github.com/alphabeta/chapter-portal/internal/pkg/config"
	"github.com/alphabeta/chapter-portal/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "chapter-portal",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("failed to open storage backend")
	}
	defer b.close()

	idp := identity.NewService(b.credentials, b.sessions, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, logger.Component("identity"))
	if err := bootstrapAdmin(ctx, cfg.Bootstrap, b, idp); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap administrator")
	}

	loader := queue.NewLoader(cfg.LoaderWorkers, logger.Component("loader"))
	loader.Start(ctx)

	registry := service.NewRegistry(idp, service.PortalDeps{
		Tables:             b.tables,
		Assets:             b.assets,
		Provisioner:        idp,
		Clock:              clock.System{},
		Retry:              retryPolicies(cfg.Identity),
		DefaultChapterName: cfg.DefaultChapterName,
		Loader:             loader,
		ProfileTTL:         cfg.Identity.ProfileTTL,
	}, logger.Component("portal"))
	defer registry.Close()

	e := api.NewRouter(api.Deps{
		Sessions: registry,
		Assets:   b.assets,
		Checks:   b.checks,
		Log:      logger.Component("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("storage", cfg.StorageBackend).
			Str("sessions", cfg.SessionStore).
			Msg("portal listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func retryPolicies(c config.IdentityConfig) service.RetryPolicies {
	base := service.RetryPolicy{
		MaxAttempts: c.MaxAttempts,
		Delay:       c.RetryDelay,
		Multiplier:  2,
	}
	session, profile := base, base
	session.AttemptTimeout = c.SessionTimeout
	profile.AttemptTimeout = c.ProfileTimeout
	return service.RetryPolicies{Session: session, Profile: profile}
}
