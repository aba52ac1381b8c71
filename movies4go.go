// Package movies4go is a movie catalogue REST service: movies, directors and
// genres over GORM-managed relational storage, with an optional Redis
// read-through cache.
package movies4go

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/ammar0144/movies4go/pkg/api"
	"github.com/ammar0144/movies4go/pkg/db"
	"github.com/ammar0144/movies4go/pkg/jsonlog"
	"github.com/ammar0144/movies4go/pkg/models"
	"github.com/ammar0144/movies4go/pkg/redis"
	"github.com/ammar0144/movies4go/pkg/store"
)

// DBConfig represents database configuration
type DBConfig = db.Config

// RedisConfig represents Redis configuration
type RedisConfig = redis.Config

// APIConfig represents HTTP-layer configuration
type APIConfig = api.Config

// Config groups the settings of every layer
type Config struct {
	DB    *DBConfig
	Redis *RedisConfig
	API   APIConfig
}

// DefaultConfig returns a SQLite-backed configuration with the cache off
// and the rate limiter on
func DefaultConfig() *Config {
	cfg := &Config{
		DB:    db.DefaultConfig(),
		Redis: redis.DefaultConfig(),
	}
	cfg.API.Env = "development"
	cfg.API.Limiter.RPS = 2
	cfg.API.Limiter.Burst = 4
	cfg.API.Limiter.Enabled = true
	return cfg
}

// App is a wired service instance
type App struct {
	db     *db.Manager
	cache  *redis.Manager
	store  *store.Store
	server *api.Server
}

// New opens the database, bootstraps missing tables when AutoMigrate is set,
// connects the cache if enabled and builds the HTTP server.
func New(ctx context.Context, cfg *Config, logger *jsonlog.Logger) (*App, error) {
	if cfg == nil || cfg.DB == nil || cfg.Redis == nil {
		return nil, errors.New("db and redis configs are required")
	}

	dbManager, err := db.NewManager(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := dbManager.Ping(ctx); err != nil {
		_ = dbManager.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}

	if cfg.DB.AutoMigrate {
		if err := dbManager.Migrate(models.All()...); err != nil {
			_ = dbManager.Close()
			return nil, err
		}
	}

	cache, err := redis.NewManager(cfg.Redis)
	if err != nil {
		_ = dbManager.Close()
		return nil, err
	}
	if err := cache.Ping(ctx); err != nil {
		_ = cache.Close()
		_ = dbManager.Close()
		return nil, err
	}

	st := store.New(dbManager, cache)

	if cfg.Redis.Enabled && cfg.Redis.WarmOnStartup {
		// A cold cache is still correct, so a failed warm-up only gets logged.
		if err := st.WarmCache(ctx); err != nil {
			logger.PrintError(fmt.Errorf("warm cache: %w", err), nil)
		}
	}

	return &App{
		db:     dbManager,
		cache:  cache,
		store:  st,
		server: api.New(cfg.API, logger, st, dbManager, cache),
	}, nil
}

// Handler returns the routed HTTP handler
func (a *App) Handler() http.Handler {
	return a.server.Routes()
}

// Store exposes the persistence layer
func (a *App) Store() *store.Store {
	return a.store
}

// CacheMetrics returns cache statistics; zero when the cache is disabled
func (a *App) CacheMetrics() redis.MetricsSnapshot {
	return a.cache.GetMetrics()
}

// DBStats returns connection pool statistics
func (a *App) DBStats() (sql.DBStats, error) {
	return a.db.Stats()
}

// Close stops the server's background work and releases the cache and
// database connections
func (a *App) Close() error {
	a.server.Close()
	return errors.Join(a.cache.Close(), a.db.Close())
}
