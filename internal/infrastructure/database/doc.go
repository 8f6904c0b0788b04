// Package database provides prepared-statement execution with automatic
// reconnection and slow-query diagnostics for dbaccess.
//
// This package manages:
//   - A single lazily established database handle per Manager
//   - Bounded connection retries (no backoff)
//   - Statement execution with prepared or direct SQL
//   - Transparent retry when the connection is severed mid-statement
//   - Result shaping (affected rows, one row, all rows, raw statement)
//   - Slow-query, reconnect and failure events for diagnostic sinks
//
// Supported drivers are MySQL/MariaDB (go-sql-driver/mysql), SQLite
// (mattn/go-sqlite3) and DuckDB (duckdb-go).
//
// Concurrency:
//
// A Manager owns exactly one handle and neither Manager nor Executor is safe
// for concurrent use. Use one pair per goroutine, or SyncExecutor. A
// Statement returned by ModeStatement holds the only connection until it is
// closed.
//
// Usage:
//
//	m := database.NewManager(func() (database.Config, error) {
//	    return dbCfg, nil
//	})
//	defer m.Close()
//
//	exec := database.NewExecutor(m,
//	    database.WithSlowQueryThreshold(200),
//	    database.WithLogger(log),
//	)
//
//	res, err := exec.FetchOne(ctx, "SELECT * FROM users WHERE id = ?", 5)
//	if err != nil {
//	    var execErr *database.ExecutionError
//	    if errors.As(err, &execErr) {
//	        // statement failed after any reconnect attempts
//	    }
//	    return err
//	}
//	fmt.Println(res.Row["name"], res.ElapsedMillis)
//
// Security Considerations:
//   - Prefer prepared statements; Quote exists only for SQL that cannot be
//     parameterised
//   - Slow-query and failure events carry bound parameters
package database
