// dbexec runs one SQL statement through the dbaccess executor.
//
// It loads the same configuration a service would, wires the slow-query,
// reconnect and failure diagnostics (file log, InfluxDB, MQTT, audit
// journal), executes the statement with reconnect-on-disconnect, and
// prints the result as JSON:
//
//	dbexec -sql 'SELECT * FROM t WHERE id = ?' -params '[5]' -mode one
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nerrad567/gray-logic-dbaccess/internal/audit"
	"github.com/nerrad567/gray-logic-dbaccess/internal/diagnostics"
	"github.com/nerrad567/gray-logic-dbaccess/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-dbaccess/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-dbaccess/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-dbaccess/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-dbaccess/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the parsed command-line flags.
type options struct {
	sql    string
	params []any
	mode   database.ResultMode
	direct bool
}

// parseFlags parses args into options.
func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("dbexec", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	sqlText := fs.String("sql", "", "SQL statement to execute")
	params := fs.String("params", "", "JSON array of bound parameters")
	mode := fs.String("mode", "affected", "result mode: affected, one, all, statement")
	direct := fs.Bool("direct", false, "run without preparing (no parameter binding)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if strings.TrimSpace(*sqlText) == "" {
		return options{}, errors.New("-sql is required")
	}

	m, err := database.ParseResultMode(*mode)
	if err != nil {
		return options{}, err
	}

	p, err := parseParams(*params)
	if err != nil {
		return options{}, err
	}
	if *direct && len(p) > 0 {
		return options{}, errors.New("-params cannot be used with -direct")
	}

	return options{sql: *sqlText, params: p, mode: m, direct: *direct}, nil
}

// parseParams decodes a JSON array. Integral numbers become int64 so they
// bind as integers; other numbers become float64.
func parseParams(raw string) ([]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var values []any
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("parsing -params: %w", err)
	}

	for i, v := range values {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if iv, err := n.Int64(); err == nil {
			values[i] = iv
			continue
		}
		fv, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("parsing -params[%d]: %w", i, err)
		}
		values[i] = fv
	}
	return values, nil
}

// databaseSource maps the database config section onto a ConfigSource.
func databaseSource(cfg config.DatabaseConfig) database.ConfigSource {
	return func() (database.Config, error) {
		return database.Config{
			Driver:         cfg.Driver,
			Host:           cfg.Host,
			Port:           cfg.Port,
			Name:           cfg.Name,
			Username:       cfg.Username,
			Password:       cfg.Password,
			Charset:        cfg.Charset,
			Path:           cfg.Path,
			DSN:            cfg.DSN,
			ConnectTimeout: cfg.GetConnectTimeout(),
		}, nil
	}
}

// output is the JSON document printed for a successful statement.
type output struct {
	Mode          string `json:"mode"`
	ElapsedMillis int64  `json:"elapsed_ms"`
	LastInsertID  int64  `json:"last_insert_id,omitempty"`
	Result        any    `json:"result"`
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command-line arguments without the program name
//   - stdout: Destination for the JSON result
//
// Returns:
//   - error: nil on success, or error describing failure
func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)
	log.Debug("dbexec starting",
		"version", version,
		"commit", commit,
		"build_date", date,
		"config", configPath,
	)

	sinks, closeSinks := buildSinks(ctx, cfg, log)
	defer closeSinks()

	manager := database.NewManager(databaseSource(cfg.Database),
		database.WithConnectRetries(cfg.Database.MaxRetries),
		database.WithManagerLogger(log),
	)
	defer func() {
		if closeErr := manager.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	exec := database.NewExecutor(manager,
		database.WithSlowQueryThreshold(cfg.Database.SlowQueryThresholdMS),
		database.WithMaxRetries(cfg.Database.MaxRetries),
		database.WithDisconnectPatterns(cfg.Database.DisconnectPatterns...),
		database.WithLogger(log),
		database.WithEventSink(sinks),
	)

	res, err := exec.Execute(ctx, database.Request{
		SQL:      opts.sql,
		Params:   opts.params,
		Mode:     opts.mode,
		Prepared: !opts.direct,
	})
	if err != nil {
		return err
	}

	payload, err := materialize(res)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(output{
		Mode:          res.Mode.String(),
		ElapsedMillis: res.ElapsedMillis,
		LastInsertID:  manager.LastInsertID(),
		Result:        payload,
	})
}

// materialize turns the result payload into something JSON can encode,
// draining and closing a streaming statement.
func materialize(res *database.Result) (any, error) {
	stmt, ok := res.Payload().(*database.Statement)
	if !ok {
		return res.Payload(), nil
	}
	defer stmt.Close() //nolint:errcheck // Read errors are reported below

	rows := []database.Row{}
	for {
		row, err := stmt.Fetch()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading statement rows: %w", err)
		}
		rows = append(rows, row)
	}
}

// buildSinks assembles the diagnostic recorders enabled in cfg. Optional
// backends that fail to connect are logged and skipped; diagnostics never
// prevent the statement from running.
func buildSinks(ctx context.Context, cfg *config.Config, log *logging.Logger) (diagnostics.Multi, func()) {
	sinks := diagnostics.Multi{
		diagnostics.NewFileRecorder(logging.NewFileSink(cfg.Logging.File)),
	}
	var closers []func()

	influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
	switch {
	case err == nil:
		influxClient.SetOnError(func(err error) {
			log.Warn("influxdb write failed", "error", err)
		})
		sinks = append(sinks, diagnostics.NewInfluxRecorder(influxClient, map[string]string{
			"driver": cfg.Database.Driver,
		}))
		closers = append(closers, func() { influxClient.Close() }) //nolint:errcheck // Close never fails
	case !errors.Is(err, influxdb.ErrDisabled):
		log.Warn("influxdb unavailable, metrics export disabled", "error", err)
	}

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	switch {
	case err == nil:
		sinks = append(sinks, diagnostics.NewMQTTRecorder(mqttClient))
		closers = append(closers, func() { mqttClient.Close() }) //nolint:errcheck // Close never fails
	case !errors.Is(err, mqtt.ErrDisabled):
		log.Warn("mqtt unavailable, event publishing disabled", "error", err)
	}

	if cfg.Audit.Enabled {
		repo, db, auditErr := audit.Open(ctx, cfg.Audit.Path)
		if auditErr != nil {
			log.Warn("audit journal unavailable", "path", cfg.Audit.Path, "error", auditErr)
		} else {
			sinks = append(sinks, diagnostics.NewAuditRecorder(repo))
			closers = append(closers, func() { db.Close() }) //nolint:errcheck // Journal is append-only
		}
	}

	return sinks, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

// getConfigPath returns the configuration file path.
// Checks DBACCESS_CONFIG environment variable first, then falls back to default.
func getConfigPath() string {
	if path := os.Getenv("DBACCESS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
