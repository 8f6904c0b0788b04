package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envPrefix is prepended to every environment variable override.
const envPrefix = "DBACCESS_"

// defaultEnvFile is loaded when DBACCESS_ENV_FILE is not set.
const defaultEnvFile = ".env"

// Config is the root configuration structure for dbaccess.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Audit    AuditConfig    `yaml:"audit"`
}

// DatabaseConfig contains the connection and execution settings for the
// statement executor.
type DatabaseConfig struct {
	// Driver selects the database/sql driver: "mysql", "sqlite3" or "duckdb".
	Driver string `yaml:"driver"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Charset  string `yaml:"charset"`

	// Path is the database file for embedded drivers (sqlite3, duckdb).
	Path string `yaml:"path"`

	// DSN is a pre-built connection descriptor. When set it wins over
	// host/port/credentials.
	DSN string `yaml:"dsn"`

	// ConnectTimeout is the dial timeout in seconds.
	ConnectTimeout int `yaml:"connect_timeout"`

	// SlowQueryThresholdMS is the elapsed time above which a statement is
	// written to the slow-query log.
	SlowQueryThresholdMS int `yaml:"slow_query_threshold_ms"`

	// MaxRetries bounds both connection and disconnect retries.
	MaxRetries int `yaml:"max_retries"`

	// DisconnectPatterns extends the built-in list of error substrings that
	// indicate a severed connection.
	DisconnectPatterns []string `yaml:"disconnect_patterns"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains the channelized file log settings.
// Files are written to <path>/<YYYYMMDD>/<channel>.
type FileLoggingConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// InfluxDBConfig contains InfluxDB connection settings for query metrics.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MQTTConfig contains MQTT broker settings for publishing query events.
type MQTTConfig struct {
	Enabled     bool             `yaml:"enabled"`
	Broker      MQTTBrokerConfig `yaml:"broker"`
	Auth        MQTTAuthConfig   `yaml:"auth"`
	QoS         int              `yaml:"qos"`
	TopicPrefix string           `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// AuditConfig controls the SQLite journal of database events.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. .env file (only fills variables not already set in the environment)
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern: DBACCESS_SECTION_KEY
// For example: DBACCESS_DATABASE_HOST, DBACCESS_DATABASE_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If a file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadEnvFile populates the process environment from a dotenv file.
// A missing default file is not an error; a missing explicit file is.
func loadEnvFile() error {
	path := os.Getenv(envPrefix + "ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:               "mysql",
			Host:                 "127.0.0.1",
			Port:                 3306,
			Charset:              "utf8",
			ConnectTimeout:       1,
			SlowQueryThresholdMS: 200,
			MaxRetries:           3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File: FileLoggingConfig{
				Level: "info",
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "dbaccess",
			},
			QoS:         1,
			TopicPrefix: "dbaccess",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: DBACCESS_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"DATABASE_DRIVER":   &cfg.Database.Driver,
		"DATABASE_HOST":     &cfg.Database.Host,
		"DATABASE_NAME":     &cfg.Database.Name,
		"DATABASE_USERNAME": &cfg.Database.Username,
		"DATABASE_PASSWORD": &cfg.Database.Password,
		"DATABASE_PATH":     &cfg.Database.Path,
		"DATABASE_DSN":      &cfg.Database.DSN,
		"LOG_LEVEL":         &cfg.Logging.Level,
		"LOG_FILE_PATH":     &cfg.Logging.File.Path,
		"INFLUXDB_TOKEN":    &cfg.InfluxDB.Token,
		"MQTT_HOST":         &cfg.MQTT.Broker.Host,
		"MQTT_USERNAME":     &cfg.MQTT.Auth.Username,
		"MQTT_PASSWORD":     &cfg.MQTT.Auth.Password,
		"AUDIT_PATH":        &cfg.Audit.Path,
	}
	for key, dst := range strs {
		if v := os.Getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"DATABASE_PORT":                    &cfg.Database.Port,
		"DATABASE_SLOW_QUERY_THRESHOLD_MS": &cfg.Database.SlowQueryThresholdMS,
	}
	for key, dst := range ints {
		v := os.Getenv(envPrefix + key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s%s: %w", envPrefix, key, err)
		}
		*dst = n
	}

	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	switch c.Database.Driver {
	case "mysql":
		if c.Database.DSN == "" {
			if c.Database.Host == "" {
				errs = append(errs, "database.host is required")
			}
			if c.Database.Port < 1 || c.Database.Port > 65535 {
				errs = append(errs, "database.port must be between 1 and 65535")
			}
			if c.Database.Name == "" {
				errs = append(errs, "database.name is required")
			}
		}
	case "sqlite3", "duckdb":
		if c.Database.DSN == "" && c.Database.Path == "" && c.Database.Driver == "sqlite3" {
			errs = append(errs, "database.path is required for sqlite3")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (mysql, sqlite3, duckdb)", c.Database.Driver))
	}

	if c.Database.SlowQueryThresholdMS < 0 {
		errs = append(errs, "database.slow_query_threshold_ms must not be negative")
	}
	if c.Database.MaxRetries < 0 {
		errs = append(errs, "database.max_retries must not be negative")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		errs = append(errs, "audit.path is required when audit is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetConnectTimeout returns the database dial timeout as a Duration.
func (c *DatabaseConfig) GetConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}
