package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq" // registers the "postgres" database/sql driver
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewManager opens a connection pool for the configured driver
func NewManager(config *Config) (*Manager, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dialector, conn, err := openDialector(config)
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		PrepareStmt: config.PrepareStmt,
		Logger:      logger.Default.LogMode(getLogLevel(config.Logging.Level)),
		// Foreign keys are plain columns; dangling references are allowed.
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		// gorm only closes the pool when the dialector fails; a failed ping
		// returns it open.
		if db != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
		}
		if conn != nil {
			_ = conn.Close()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	return &Manager{
		config: config,
		db:     db,
	}, nil
}

// sqlOpen is swapped out in tests to observe the postgres pool
var sqlOpen = sql.Open

// openDialector returns the GORM dialector for the configured driver. conn is
// the pool opened here on GORM's behalf, if any; the caller owns it until
// gorm.Open succeeds.
func openDialector(config *Config) (dialector gorm.Dialector, conn *sql.DB, err error) {
	dsn, err := config.GetDSN()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build dsn: %w", err)
	}

	switch config.Driver {
	case DriverSQLite:
		return sqlite.Open(sqliteDSN(dsn)), nil, nil
	case DriverMySQL:
		return mysql.Open(dsn), nil, nil
	case DriverPostgres:
		conn, err := sqlOpen("postgres", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres connection: %w", err)
		}
		return postgres.New(postgres.Config{Conn: conn}), conn, nil
	}
	return nil, nil, fmt.Errorf("unsupported database driver %q", config.Driver)
}

// DB returns the GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Namespace returns the cache namespace of this database
func (m *Manager) Namespace() string {
	return m.config.Namespace()
}

// WithQueryTimeout wraps a context with the configured query timeout
func (m *Manager) WithQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.config.QueryTimeout > 0 {
		return context.WithTimeout(ctx, m.config.QueryTimeout)
	}
	return ctx, func() {}
}

// Migrate creates missing tables for the given models
func (m *Manager) Migrate(models ...interface{}) error {
	if err := m.db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// Ping tests the database connection
func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats returns database connection statistics
func (m *Manager) Stats() (sql.DBStats, error) {
	sqlDB, err := m.db.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}

func getLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "info":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Error
	}
}
