package db

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

const defaultSQLitePath = "movies.db"

// DefaultConfig returns a SQLite configuration suitable for local use
func DefaultConfig() *Config {
	return &Config{
		Driver:          DriverSQLite,
		DSN:             defaultSQLitePath,
		Collation:       "utf8mb4_unicode_ci",
		TimeZone:        "UTC",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		QueryTimeout:    30 * time.Second,
		AutoMigrate:     true,
		Logging:         LoggingConfig{Level: "error"},
	}
}

// Validate checks if the database configuration is valid
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		// the path falls back to defaultSQLitePath
	case DriverMySQL, DriverPostgres:
		if c.DSN == "" {
			if c.Host == "" {
				return fmt.Errorf("database host is required")
			}
			if c.Port < 1 || c.Port > 65535 {
				return fmt.Errorf("database port must be between 1 and 65535, got %d", c.Port)
			}
			if c.Database == "" {
				return fmt.Errorf("database name is required")
			}
			if c.Username == "" {
				return fmt.Errorf("database username is required")
			}
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}

	if c.MaxOpenConns < 1 {
		return fmt.Errorf("max_open_conns must be at least 1")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max_idle_conns cannot be greater than max_open_conns")
	}
	if c.QueryTimeout < 0 {
		return fmt.Errorf("query_timeout cannot be negative")
	}

	if c.SSL.Enabled && !c.SSL.SkipVerify {
		if err := c.validateTLSFiles(); err != nil {
			return fmt.Errorf("TLS configuration error: %w", err)
		}
	}

	return nil
}

// validateTLSFiles validates that TLS certificate files exist and are readable
func (c *Config) validateTLSFiles() error {
	if c.SSL.CAFile != "" {
		if _, err := os.Stat(c.SSL.CAFile); err != nil {
			return fmt.Errorf("CA file not accessible: %w", err)
		}
	}

	if c.SSL.CertFile != "" || c.SSL.KeyFile != "" {
		if c.SSL.CertFile == "" || c.SSL.KeyFile == "" {
			return fmt.Errorf("both CertFile and KeyFile must be provided together")
		}
		if _, err := os.Stat(c.SSL.CertFile); err != nil {
			return fmt.Errorf("client certificate file not accessible: %w", err)
		}
		if _, err := os.Stat(c.SSL.KeyFile); err != nil {
			return fmt.Errorf("client key file not accessible: %w", err)
		}
	}

	return nil
}

// GetDSN returns the data source name for the configured driver
func (c *Config) GetDSN() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}

	switch c.Driver {
	case DriverSQLite:
		return defaultSQLitePath, nil
	case DriverMySQL:
		return c.mysqlDSN()
	case DriverPostgres:
		return c.postgresDSN(), nil
	}
	return "", fmt.Errorf("unsupported database driver %q", c.Driver)
}

// Namespace identifies this database in cache keys so that two deployments
// sharing one Redis never read each other's entries
func (c *Config) Namespace() string {
	if c.Database != "" {
		return c.Database
	}
	if c.Driver == DriverSQLite {
		dsn, _ := c.GetDSN()
		return "sqlite-" + dsn
	}
	return string(c.Driver)
}

// mysqlDSN builds the DSN with the official MySQL driver config builder.
// ClientFoundRows makes UPDATE report matched rows instead of changed rows.
func (c *Config) mysqlDSN() (string, error) {
	cfg := mysql.Config{
		User:                 c.Username,
		Passwd:               c.Password,
		Net:                  "tcp",
		Addr:                 fmt.Sprintf("%s:%d", c.Host, c.Port),
		DBName:               c.Database,
		Collation:            c.Collation,
		Loc:                  parseLocation(c.TimeZone),
		ParseTime:            true,
		AllowNativePasswords: true,
		ClientFoundRows:      true,
	}

	if c.SSL.Enabled {
		if c.SSL.SkipVerify {
			cfg.TLSConfig = "skip-verify"
		} else {
			tlsConfig, err := c.buildTLSConfig()
			if err != nil {
				return "", err
			}
			tlsName := c.generateTLSConfigName()
			// Registering an existing name replaces it, which is fine for an
			// identical config.
			if err := mysql.RegisterTLSConfig(tlsName, tlsConfig); err != nil {
				return "", fmt.Errorf("failed to register TLS config: %w", err)
			}
			cfg.TLSConfig = tlsName
		}
	}

	return cfg.FormatDSN(), nil
}

// sqliteDSN adds the connection options concurrent writers need. Immediate
// transactions take the write lock at BEGIN, so a read-then-write
// transaction waits out the busy timeout instead of failing with
// SQLITE_BUSY on upgrade. File databases also switch to WAL so readers do
// not block behind a writer. Options already present in dsn win.
func sqliteDSN(dsn string) string {
	path, rawQuery, _ := strings.Cut(dsn, "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return dsn
	}

	if q.Get("_txlock") == "" {
		q.Set("_txlock", "immediate")
	}
	if !hasPragma(q, "busy_timeout") {
		q.Add("_pragma", "busy_timeout(5000)")
	}
	if !isSQLiteMemory(dsn) && !hasPragma(q, "journal_mode") {
		q.Add("_pragma", "journal_mode(WAL)")
	}

	return path + "?" + q.Encode()
}

func hasPragma(q url.Values, name string) bool {
	for _, p := range q["_pragma"] {
		if strings.HasPrefix(strings.ToLower(p), name) {
			return true
		}
	}
	return false
}

func isSQLiteMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// postgresDSN builds a lib/pq connection URL
func (c *Config) postgresDSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   "/" + c.Database,
	}

	q := url.Values{}
	switch {
	case !c.SSL.Enabled:
		q.Set("sslmode", "disable")
	case c.SSL.SkipVerify:
		q.Set("sslmode", "require")
	default:
		q.Set("sslmode", "verify-full")
		if c.SSL.CAFile != "" {
			q.Set("sslrootcert", c.SSL.CAFile)
		}
		if c.SSL.CertFile != "" {
			q.Set("sslcert", c.SSL.CertFile)
			q.Set("sslkey", c.SSL.KeyFile)
		}
	}
	if c.TimeZone != "" {
		q.Set("timezone", c.TimeZone)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func (c *Config) buildTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{ServerName: c.SSL.ServerName}

	if c.SSL.CAFile != "" {
		caCert, err := os.ReadFile(c.SSL.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("invalid CA certificate in %s", c.SSL.CAFile)
		}
		tlsConfig.RootCAs = pool
	}

	if c.SSL.CertFile != "" && c.SSL.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.SSL.CertFile, c.SSL.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// generateTLSConfigName derives a registration name from the SSL settings so
// that distinct configs never collide in the driver's global registry
func (c *Config) generateTLSConfigName() string {
	h := sha256.New()
	h.Write([]byte(c.SSL.CAFile))
	h.Write([]byte(c.SSL.CertFile))
	h.Write([]byte(c.SSL.KeyFile))
	h.Write([]byte(c.SSL.ServerName))
	return "movies4go_tls_" + hex.EncodeToString(h.Sum(nil))[:16]
}

// parseLocation parses timezone string to *time.Location, falling back to UTC
func parseLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
