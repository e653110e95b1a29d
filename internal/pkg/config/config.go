package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	PublicURL string `env:"PUBLIC_URL, default=http://localhost:8080"`

	// StorageBackend selects the remote tables: memory, mongo or postgres.
	StorageBackend string `env:"STORAGE_BACKEND, default=memory"`
	// SessionStore selects where provider sessions live: memory or redis.
	SessionStore string `env:"SESSION_STORE, default=memory"`

	DefaultChapterName string `env:"DEFAULT_CHAPTER_NAME, default=ALPHA BETA"`
	LoaderWorkers      int    `env:"LOADER_WORKERS,       default=4"`

	Auth      AuthConfig
	Identity  IdentityConfig
	Bootstrap BootstrapConfig
	Mongo     MongoConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET, required"`
	SessionTTL time.Duration `env:"SESSION_TTL, default=24h"`
}

// IdentityConfig bounds identity resolution calls.
type IdentityConfig struct {
	MaxAttempts    int           `env:"IDENTITY_MAX_ATTEMPTS,    default=3"`
	RetryDelay     time.Duration `env:"IDENTITY_RETRY_DELAY,     default=200ms"`
	SessionTimeout time.Duration `env:"IDENTITY_SESSION_TIMEOUT, default=3s"`
	ProfileTimeout time.Duration `env:"IDENTITY_PROFILE_TIMEOUT, default=4s"`
	ProfileTTL     time.Duration `env:"IDENTITY_PROFILE_TTL,     default=30s"`
}

// BootstrapConfig seeds the first administrator when no account exists.
type BootstrapConfig struct {
	AdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL, default=admin@alphabeta.org"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
	AdminName     string `env:"BOOTSTRAP_ADMIN_NAME,  default=Chapter Administrator"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=chapter_portal"`
}

type PostgresConfig struct {
	URL string `env:"POSTGRES_URL, default=postgres://localhost:5432/chapter_portal?sslmode=disable"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from l and validates the enumerated settings.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	switch cfg.StorageBackend {
	case BackendMemory, BackendMongo, BackendPostgres:
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	switch cfg.SessionStore {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}
	return &cfg, nil
}
