package db

import (
	"time"

	"gorm.io/gorm"
)

// Driver names a supported storage engine
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
)

// Config holds GORM database configuration
type Config struct {
	// Engine selection. DSN, when set, is used verbatim and the connection
	// settings below are ignored. For SQLite it is the database file path.
	Driver Driver `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`

	// Connection Settings
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Database string `json:"database" yaml:"database"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`

	// Connection Pool Settings
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`

	// MySQL Specific Settings
	Collation string `json:"collation" yaml:"collation"` // Default: utf8mb4_unicode_ci
	TimeZone  string `json:"timezone" yaml:"timezone"`   // Default: UTC

	// GORM Settings
	PrepareStmt  bool          `json:"prepare_stmt" yaml:"prepare_stmt"`
	QueryTimeout time.Duration `json:"query_timeout" yaml:"query_timeout"`

	// AutoMigrate creates missing tables and columns on startup. It never
	// drops or alters existing columns.
	AutoMigrate bool `json:"auto_migrate" yaml:"auto_migrate"`

	// SSL Configuration
	SSL SSLConfig `json:"ssl" yaml:"ssl"`

	// Logging Configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SSLConfig holds SSL/TLS configuration for MySQL and PostgreSQL
type SSLConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	CAFile     string `json:"ca_file" yaml:"ca_file"`
	CertFile   string `json:"cert_file" yaml:"cert_file"`
	KeyFile    string `json:"key_file" yaml:"key_file"`
	SkipVerify bool   `json:"skip_verify" yaml:"skip_verify"`
	ServerName string `json:"server_name" yaml:"server_name"`
}

// LoggingConfig controls GORM logging
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"` // silent, error, warn, info
}

// Manager manages database connections
type Manager struct {
	config *Config
	db     *gorm.DB
}
