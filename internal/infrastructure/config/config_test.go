package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes content to a config.yaml in a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// isolateEnv points the dotenv loader at a file that does not exist so a
// developer's local .env cannot leak into tests.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func TestLoad_ValidConfig(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, `
database:
  driver: "mysql"
  host: "db.internal"
  port: 3307
  name: "orders"
  username: "app"
  slow_query_threshold_ms: 50
  disconnect_patterns:
    - "Connection reset by peer"
logging:
  level: "debug"
  file:
    path: "/var/log/dbaccess"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "db.internal")
	}
	if cfg.Database.Port != 3307 {
		t.Errorf("Database.Port = %d, want 3307", cfg.Database.Port)
	}
	if cfg.Database.SlowQueryThresholdMS != 50 {
		t.Errorf("SlowQueryThresholdMS = %d, want 50", cfg.Database.SlowQueryThresholdMS)
	}
	if len(cfg.Database.DisconnectPatterns) != 1 {
		t.Errorf("DisconnectPatterns = %v, want one entry", cfg.Database.DisconnectPatterns)
	}
	if cfg.Logging.File.Path != "/var/log/dbaccess" {
		t.Errorf("Logging.File.Path = %q", cfg.Logging.File.Path)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, `
database:
  name: "orders"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Driver != "mysql" {
		t.Errorf("Driver = %q, want mysql", cfg.Database.Driver)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("Port = %d, want 3306", cfg.Database.Port)
	}
	if cfg.Database.Charset != "utf8" {
		t.Errorf("Charset = %q, want utf8", cfg.Database.Charset)
	}
	if cfg.Database.SlowQueryThresholdMS != 200 {
		t.Errorf("SlowQueryThresholdMS = %d, want 200", cfg.Database.SlowQueryThresholdMS)
	}
	if cfg.Database.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Database.MaxRetries)
	}
	if cfg.Database.GetConnectTimeout() != time.Second {
		t.Errorf("GetConnectTimeout() = %v, want 1s", cfg.Database.GetConnectTimeout())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	isolateEnv(t)
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, "database: [unclosed")

	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, `
database:
  host: "from-file"
  name: "orders"
`)

	t.Setenv("DBACCESS_DATABASE_HOST", "from-env")
	t.Setenv("DBACCESS_DATABASE_PASSWORD", "s3cret")
	t.Setenv("DBACCESS_DATABASE_PORT", "3310")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Host != "from-env" {
		t.Errorf("Host = %q, want from-env", cfg.Database.Host)
	}
	if cfg.Database.Password != "s3cret" {
		t.Errorf("Password = %q, want s3cret", cfg.Database.Password)
	}
	if cfg.Database.Port != 3310 {
		t.Errorf("Port = %d, want 3310", cfg.Database.Port)
	}
}

func TestLoad_InvalidEnvInt(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, "database:\n  name: orders\n")
	t.Setenv("DBACCESS_DATABASE_PORT", "not-a-port")

	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for non-numeric port override")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, "database:\n  name: orders\n")

	envPath := filepath.Join(t.TempDir(), "db.env")
	if err := os.WriteFile(envPath, []byte("DBACCESS_DATABASE_USERNAME=from-dotenv\n"), 0600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("DBACCESS_ENV_FILE", envPath)
	// godotenv.Load sets variables directly; register cleanup so later tests
	// do not observe it.
	t.Setenv("DBACCESS_DATABASE_USERNAME", "")
	os.Unsetenv("DBACCESS_DATABASE_USERNAME")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Username != "from-dotenv" {
		t.Errorf("Username = %q, want from-dotenv", cfg.Database.Username)
	}
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, "database:\n  name: orders\n")
	t.Setenv("DBACCESS_ENV_FILE", "/nonexistent/db.env")

	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for missing explicit env file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid mysql",
			mutate: func(c *Config) { c.Database.Name = "orders" },
		},
		{
			name:    "mysql without database name",
			mutate:  func(*Config) {},
			wantErr: "database.name is required",
		},
		{
			name: "mysql with prebuilt dsn",
			mutate: func(c *Config) {
				c.Database.Host = ""
				c.Database.DSN = "app:pw@tcp(db:3306)/orders"
			},
		},
		{
			name: "invalid port",
			mutate: func(c *Config) {
				c.Database.Name = "orders"
				c.Database.Port = 70000
			},
			wantErr: "database.port",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Database.Driver = "sqlite3" },
			wantErr: "database.path is required",
		},
		{
			name: "duckdb in memory",
			mutate: func(c *Config) {
				c.Database.Driver = "duckdb"
			},
		},
		{
			name:    "unsupported driver",
			mutate:  func(c *Config) { c.Database.Driver = "oracle" },
			wantErr: "not supported",
		},
		{
			name: "negative threshold",
			mutate: func(c *Config) {
				c.Database.Name = "orders"
				c.Database.SlowQueryThresholdMS = -1
			},
			wantErr: "slow_query_threshold_ms",
		},
		{
			name: "influx without url",
			mutate: func(c *Config) {
				c.Database.Name = "orders"
				c.InfluxDB.Enabled = true
			},
			wantErr: "influxdb.url",
		},
		{
			name: "mqtt bad qos",
			mutate: func(c *Config) {
				c.Database.Name = "orders"
				c.MQTT.Enabled = true
				c.MQTT.QoS = 3
			},
			wantErr: "mqtt.qos",
		},
		{
			name: "audit without path",
			mutate: func(c *Config) {
				c.Database.Name = "orders"
				c.Audit.Enabled = true
			},
			wantErr: "audit.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
