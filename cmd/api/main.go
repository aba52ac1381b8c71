package main

import (
	"context"
	"expvar"
	"flag"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ammar0144/movies4go"
	"github.com/ammar0144/movies4go/pkg/db"
	"github.com/ammar0144/movies4go/pkg/jsonlog"
)

type config struct {
	port     int
	logLevel string
	app      *movies4go.Config
}

type application struct {
	config config
	logger *jsonlog.Logger
	app    *movies4go.App
}

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := parseFlags()

	level, err := jsonlog.ParseLevel(cfg.logLevel)
	logger := jsonlog.New(os.Stdout, level)
	if err != nil {
		logger.PrintFatal(err, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	app, err := movies4go.New(ctx, cfg.app, logger)
	cancel()
	if err != nil {
		logger.PrintFatal(err, nil)
	}

	logger.PrintInfo("storage ready", map[string]string{
		"driver": string(cfg.app.DB.Driver),
		"cache":  boolString(cfg.app.Redis.Enabled),
	})

	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() interface{} {
		return runtime.NumGoroutine()
	}))
	expvar.Publish("database", expvar.Func(func() interface{} {
		stats, err := app.DBStats()
		if err != nil {
			return nil
		}
		return stats
	}))
	expvar.Publish("cache", expvar.Func(func() interface{} {
		return app.CacheMetrics()
	}))
	expvar.Publish("timestamp", expvar.Func(func() interface{} {
		return time.Now().Unix()
	}))

	srv := &application{
		config: cfg,
		logger: logger,
		app:    app,
	}

	// PrintFatal exits, so run closes the app before returning.
	if err := srv.run(); err != nil {
		logger.PrintFatal(err, nil)
	}
}

const version = "1.0.0"

// parseFlags reads command-line flags. Every default can be overridden by
// the environment variable named next to it.
func parseFlags() config {
	var cfg config
	cfg.app = movies4go.DefaultConfig()
	dbc := cfg.app.DB
	rc := cfg.app.Redis

	flag.IntVar(&cfg.port, "port", getEnvInt("PORT", 4000), "API server port")
	flag.StringVar(&cfg.app.API.Env, "env", getEnv("APP_ENV", cfg.app.API.Env), "Environment (development|staging|production)")
	flag.StringVar(&cfg.logLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Minimum log level (debug|info|error|fatal|off)")

	driver := flag.String("db-driver", getEnv("DB_DRIVER", string(dbc.Driver)), "Database driver (sqlite|mysql|postgres)")
	flag.StringVar(&dbc.DSN, "db-dsn", getEnv("DB_DSN", ""), "Database DSN; overrides the host settings")
	flag.StringVar(&dbc.Host, "db-host", getEnv("DB_HOST", ""), "Database host")
	flag.IntVar(&dbc.Port, "db-port", getEnvInt("DB_PORT", 0), "Database port")
	flag.StringVar(&dbc.Database, "db-name", getEnv("DB_NAME", ""), "Database name")
	flag.StringVar(&dbc.Username, "db-user", getEnv("DB_USER", ""), "Database user")
	flag.StringVar(&dbc.Password, "db-password", getEnv("DB_PASSWORD", ""), "Database password")
	flag.IntVar(&dbc.MaxOpenConns, "db-max-open-conns", getEnvInt("DB_MAX_OPEN_CONNS", dbc.MaxOpenConns), "Database max open connections")
	flag.IntVar(&dbc.MaxIdleConns, "db-max-idle-conns", getEnvInt("DB_MAX_IDLE_CONNS", dbc.MaxIdleConns), "Database max idle connections")
	flag.DurationVar(&dbc.ConnMaxLifetime, "db-conn-max-lifetime", getEnvDuration("DB_CONN_MAX_LIFETIME", dbc.ConnMaxLifetime), "Database connection max lifetime")
	flag.DurationVar(&dbc.ConnMaxIdleTime, "db-conn-max-idle-time", getEnvDuration("DB_CONN_MAX_IDLE_TIME", dbc.ConnMaxIdleTime), "Database connection max idle time")
	flag.DurationVar(&dbc.QueryTimeout, "db-query-timeout", getEnvDuration("DB_QUERY_TIMEOUT", dbc.QueryTimeout), "Per-query timeout")
	flag.BoolVar(&dbc.AutoMigrate, "db-auto-migrate", getEnvBool("DB_AUTO_MIGRATE", dbc.AutoMigrate), "Create missing tables on startup")
	flag.BoolVar(&dbc.SSL.Enabled, "db-ssl", getEnvBool("DB_SSL", false), "Use TLS for MySQL/PostgreSQL")
	flag.StringVar(&dbc.SSL.CAFile, "db-ssl-ca", getEnv("DB_SSL_CA", ""), "CA certificate file for database TLS")
	flag.StringVar(&dbc.Logging.Level, "db-log-level", getEnv("DB_LOG_LEVEL", dbc.Logging.Level), "GORM log level (silent|error|warn|info)")

	flag.BoolVar(&rc.Enabled, "redis-enabled", getEnvBool("REDIS_ENABLED", rc.Enabled), "Enable the Redis read-through cache")
	flag.StringVar(&rc.Host, "redis-host", getEnv("REDIS_HOST", rc.Host), "Redis host")
	flag.IntVar(&rc.Port, "redis-port", getEnvInt("REDIS_PORT", rc.Port), "Redis port")
	flag.StringVar(&rc.Password, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&rc.Database, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")
	flag.DurationVar(&rc.DefaultTTL, "redis-ttl", getEnvDuration("REDIS_TTL", rc.DefaultTTL), "Cache entry TTL")
	flag.BoolVar(&rc.WarmOnStartup, "redis-warm", getEnvBool("REDIS_WARM", false), "Preload listings into the cache on startup")
	flag.Func("redis-cluster-addrs", "Redis Cluster addresses (space separated)", func(val string) error {
		rc.Cluster.Addresses = strings.Fields(val)
		rc.Cluster.Enabled = len(rc.Cluster.Addresses) > 0
		return nil
	})

	flag.Float64Var(&cfg.app.API.Limiter.RPS, "limiter-rps", 2, "Rate limiter maximum requests per second")
	flag.IntVar(&cfg.app.API.Limiter.Burst, "limiter-burst", 4, "Rate limiter maximum burst")
	flag.BoolVar(&cfg.app.API.Limiter.Enabled, "limiter-enabled", true, "Enable rate limiter")

	flag.Func("cors-trusted-origins", "Trusted CORS origins (space separated)", func(val string) error {
		cfg.app.API.CORS.TrustedOrigins = strings.Fields(val)
		return nil
	})

	flag.Parse()

	dbc.Driver = db.Driver(*driver)
	switch {
	case dbc.Driver == db.DriverSQLite && dbc.DSN == "":
		dbc.DSN = "movies.db"
	case dbc.Driver == db.DriverMySQL && dbc.Port == 0:
		dbc.Port = 3306
	case dbc.Driver == db.DriverPostgres && dbc.Port == 0:
		dbc.Port = 5432
	}

	return cfg
}

func boolString(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
