package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver
	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Driver names accepted in Config.Driver.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
	DriverDuckDB = "duckdb"
)

// Connection constants.
const (
	// defaultConnectTimeout bounds the dial and verification ping when the
	// config does not set one.
	defaultConnectTimeout = time.Second

	// defaultCharset is the MySQL connection character set.
	defaultCharset = "utf8"

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// sqliteBusyTimeout is how long SQLite waits on a locked database (seconds).
	sqliteBusyTimeout = 5
)

// Config describes one database to connect to. It is produced by a
// ConfigSource on every connection attempt.
type Config struct {
	// Driver selects the database/sql driver. Defaults to DriverMySQL.
	Driver string

	Host     string
	Port     int
	Name     string
	Username string
	Password string
	Charset  string

	// Path is the database file for embedded drivers. Empty means an
	// in-memory DuckDB database.
	Path string

	// DSN is a pre-built connection descriptor; it wins over every other field.
	DSN string

	// ConnectTimeout bounds the dial and the verification ping.
	ConnectTimeout time.Duration
}

// ConfigSource supplies connection settings. The Manager calls it once per
// connection attempt, so credentials may rotate between attempts.
type ConfigSource func() (Config, error)

// StaticConfig returns a ConfigSource that always yields cfg.
func StaticConfig(cfg Config) ConfigSource {
	return func() (Config, error) {
		return cfg, nil
	}
}

// Handle is a live database session. *sql.DB and *sql.Conn both satisfy it.
type Handle interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	PingContext(ctx context.Context) error
	Close() error
}

// ErrorReporter is implemented by handles that keep queryable error state
// after a failure whose error value carries no message.
type ErrorReporter interface {
	LastError() ErrorRecord
}

// Dialer opens a new Handle for cfg.
type Dialer func(ctx context.Context, cfg Config) (Handle, error)

// driverName returns the configured driver, defaulting to MySQL.
func (c Config) driverName() string {
	if c.Driver == "" {
		return DriverMySQL
	}
	return c.Driver
}

func (c Config) connectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return defaultConnectTimeout
	}
	return c.ConnectTimeout
}

// DataSource returns the driver name and DSN for c.
//
// MySQL DSNs are built with:
//   - server-side prepared statements (no client interpolation)
//   - native time values (parseTime)
//   - the configured charset and a short dial timeout
//
// See: https://github.com/go-sql-driver/mysql#dsn-data-source-name
func (c Config) DataSource() (string, string, error) {
	name := c.driverName()
	if c.DSN != "" {
		switch name {
		case DriverMySQL, DriverSQLite, DriverDuckDB:
			return name, c.DSN, nil
		}
	}

	switch name {
	case DriverMySQL:
		charset := c.Charset
		if charset == "" {
			charset = defaultCharset
		}
		mc := mysql.NewConfig()
		mc.User = c.Username
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
		mc.DBName = c.Name
		mc.Timeout = c.connectTimeout()
		mc.ParseTime = true
		mc.InterpolateParams = false
		mc.Params = map[string]string{"charset": charset}
		return name, mc.FormatDSN(), nil

	case DriverSQLite:
		// See: https://github.com/mattn/go-sqlite3#connection-string
		return name, fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
			c.Path, sqliteBusyTimeout*msPerSecond), nil

	case DriverDuckDB:
		return name, c.Path, nil

	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, name)
	}
}

// OpenSQL is the default Dialer. It opens cfg with database/sql, limits the
// pool to a single connection so the handle is one session, and verifies it
// with a ping bounded by the connect timeout.
//
// Driver errors are returned unwrapped so callers can inspect them.
func OpenSQL(ctx context.Context, cfg Config) (Handle, error) {
	driverName, dsn, err := cfg.DataSource()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.connectTimeout())
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}

	return db, nil
}
