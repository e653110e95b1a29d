package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alphabeta/chapter-portal/internal/api/handler"
	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
	"github.com/alphabeta/chapter-portal/internal/core/service"
	"github.com/alphabeta/chapter-portal/internal/infrastructure/db/memory"
	mongostore "github.com/alphabeta/chapter-portal/internal/infrastructure/db/mongo"
	"github.com/alphabeta/chapter-portal/internal/infrastructure/db/postgres"
	redisstore "github.com/alphabeta/chapter-portal/internal/infrastructure/db/redis"
	"github.com/alphabeta/chapter-portal/internal/infrastructure/identity"
	"github.com/alphabeta/chapter-portal/internal/pkg/config"
)

// backend is the storage selected by configuration.
type backend struct {
	tables      service.Tables
	credentials ports.CredentialRepository
	sessions    ports.SessionStore
	assets      ports.AssetStore
	checks      map[string]handler.Check
	closers     []func()
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	b := &backend{checks: map[string]handler.Check{}}

	switch cfg.StorageBackend {
	case config.BackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = client.Disconnect(context.Background()) })
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			b.close()
			return nil, err
		}
		b.tables = service.Tables{
			Members:    mongostore.NewTable[domain.Member](db, service.TableMembers),
			Organizers: mongostore.NewTable[domain.Organizer](db, service.TableOrganizers),
			Affiliates: mongostore.NewTable[domain.Affiliate](db, service.TableAffiliates),
			HonorRoll:  mongostore.NewTable[domain.HonorRollEntry](db, service.TableHonorRoll),
			Profiles:   mongostore.NewTable[domain.UserProfile](db, service.TableProfiles),
			Pages:      mongostore.NewTable[domain.ContentPage](db, service.TablePages),
			Timeline:   mongostore.NewTable[domain.TimelineEvent](db, service.TableTimeline),
		}
		b.credentials = mongostore.NewCredentialRepository(db)
		b.assets = mongostore.NewAssetStore(db, cfg.PublicURL)
		b.checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }

	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			b.close()
			return nil, err
		}
		b.tables = service.Tables{
			Members:    postgres.NewTable[domain.Member](pool, service.TableMembers),
			Organizers: postgres.NewTable[domain.Organizer](pool, service.TableOrganizers),
			Affiliates: postgres.NewTable[domain.Affiliate](pool, service.TableAffiliates),
			HonorRoll:  postgres.NewTable[domain.HonorRollEntry](pool, service.TableHonorRoll),
			Profiles:   postgres.NewTable[domain.UserProfile](pool, service.TableProfiles),
			Pages:      postgres.NewTable[domain.ContentPage](pool, service.TablePages),
			Timeline:   postgres.NewTable[domain.TimelineEvent](pool, service.TableTimeline),
		}
		b.credentials = postgres.NewCredentialRepository(pool)
		b.assets = postgres.NewAssetStore(pool, cfg.PublicURL)
		b.checks["postgres"] = pool.Ping

	default:
		b.tables = service.Tables{
			Members:    memory.NewTable[domain.Member](),
			Organizers: memory.NewTable[domain.Organizer](),
			Affiliates: memory.NewTable[domain.Affiliate](),
			HonorRoll:  memory.NewTable[domain.HonorRollEntry](),
			Profiles:   memory.NewTable[domain.UserProfile](),
			Pages:      memory.NewTable[domain.ContentPage](),
			Timeline:   memory.NewTable[domain.TimelineEvent](),
		}
		b.credentials = memory.NewCredentials()
		b.assets = memory.NewAssets(cfg.PublicURL)
	}

	switch cfg.SessionStore {
	case "redis":
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = rdb.Close() })
		b.sessions = redisstore.NewSessionStore(rdb)
		b.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	default:
		b.sessions = memory.NewSessions()
	}

	return b, nil
}

// bootstrapAdmin creates the first administrator account when a password is
// configured and the email is not registered yet.
func bootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig, b *backend, idp *identity.Service) error {
	if cfg.AdminPassword == "" {
		return nil
	}
	_, err := b.credentials.FindByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("look up %s: %w", cfg.AdminEmail, err)
	}

	id, err := idp.Provision(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	_, err = b.tables.Profiles.Insert(ctx, domain.UserProfile{
		ID:     id,
		Name:   cfg.AdminName,
		Email:  strings.ToLower(cfg.AdminEmail),
		Role:   domain.RoleAdmin,
		Status: domain.StatusActive,
	})
	return err
}
