package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// errGoneAway mimics the MySQL client message for a dropped session.
var errGoneAway = errors.New("SQLSTATE[HY000]: General error: 2006 MySQL server has gone away")

// openTestDB opens a SQLite database in a temp dir through OpenSQL and
// returns its config and raw handle.
func openTestDB(t *testing.T) (Config, *sql.DB) {
	t.Helper()
	cfg := Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "test.db")}

	h, err := OpenSQL(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OpenSQL() error = %v", err)
	}
	db := h.(*sql.DB)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	return cfg, db
}

// seedTable creates t(id, name) and inserts rows keyed by id.
func seedTable(t *testing.T, db *sql.DB, rows map[int]string) {
	t.Helper()
	if _, err := db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`); err != nil {
		t.Fatalf("CREATE TABLE error = %v", err)
	}
	for id, name := range rows {
		if _, err := db.Exec(`INSERT INTO t (id, name) VALUES (?, ?)`, id, name); err != nil {
			t.Fatalf("INSERT error = %v", err)
		}
	}
}

// script drives scriptedHandle. Queued errors are consumed in order across
// every handle dialed from it, so failures survive reconnects.
type script struct {
	db *sql.DB

	prepareErrs []error
	queryErrs   []error
	execErrs    []error
	dialErrs    []error

	// reported is returned by LastError while non-zero.
	reported ErrorRecord

	dials    int
	closes   int
	prepares int
	queries  int
	execs    int
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func repeatErr(err error, n int) []error {
	out := make([]error, n)
	for i := range out {
		out[i] = err
	}
	return out
}

func (s *script) dialer() Dialer {
	return func(_ context.Context, _ Config) (Handle, error) {
		s.dials++
		if err := pop(&s.dialErrs); err != nil {
			return nil, err
		}
		return &scriptedHandle{s: s}, nil
	}
}

// newScripted returns a manager and script over a fresh SQLite database.
func newScripted(t *testing.T) (*Manager, *script) {
	t.Helper()
	cfg, db := openTestDB(t)
	s := &script{db: db}
	m := NewManager(StaticConfig(cfg), WithDialer(s.dialer()))
	t.Cleanup(func() { m.Close() }) //nolint:errcheck // Test cleanup
	return m, s
}

// scriptedHandle delegates to the shared SQLite database unless the script
// has a failure queued for the call.
type scriptedHandle struct {
	s *script
}

func (h *scriptedHandle) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	h.s.execs++
	if err := pop(&h.s.execErrs); err != nil {
		return nil, err
	}
	return h.s.db.ExecContext(ctx, query, args...)
}

func (h *scriptedHandle) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	h.s.queries++
	if err := pop(&h.s.queryErrs); err != nil {
		return nil, err
	}
	return h.s.db.QueryContext(ctx, query, args...)
}

func (h *scriptedHandle) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	h.s.prepares++
	if err := pop(&h.s.prepareErrs); err != nil {
		return nil, err
	}
	return h.s.db.PrepareContext(ctx, query)
}

func (h *scriptedHandle) PingContext(ctx context.Context) error {
	return h.s.db.PingContext(ctx)
}

// Close leaves the shared database open so the next handle sees the same data.
func (h *scriptedHandle) Close() error {
	h.s.closes++
	return nil
}

func (h *scriptedHandle) LastError() ErrorRecord {
	return h.s.reported
}

// stepClock returns a time that advances by step on every call.
type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

// recordingSink keeps every event it receives.
type recordingSink struct {
	events []Event
}

func (r *recordingSink) Record(_ context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingSink) kind(k EventKind) []Event {
	var out []Event
	for _, ev := range r.events {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}
