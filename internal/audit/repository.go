// Package audit keeps a queryable journal of database access events in
// SQLite, separate from the database being accessed.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver for the journal database
)

// Page size limits for List.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// timeLayout is fixed-width so created_at sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one journaled event.
type Entry struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Action     string    `json:"action,omitempty"`
	SQL        string    `json:"sql"`
	Params     string    `json:"params"`
	CostMillis int64     `json:"cost_ms"`
	Rows       int64     `json:"rows"`
	Attempt    int       `json:"attempt"`
	Message    string    `json:"message,omitempty"`
	Code       int       `json:"code"`
	CreatedAt  time.Time `json:"created_at"`
}

// Filter controls which entries List returns.
type Filter struct {
	Kind   string // optional: slow_query, reconnect, failure
	Action string // optional: prepare, query, execute
	Since  time.Time
	Limit  int // default 50, max 200
	Offset int
}

// ListResult is one page of entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository stores and queries journal entries.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository is a Repository backed by a SQLite database.
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository wraps an open journal database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: sqlx.NewDb(db, "sqlite3")}
}

// entryRow is the db_events column mapping.
type entryRow struct {
	ID         string         `db:"id"`
	Kind       string         `db:"kind"`
	Action     sql.NullString `db:"action"`
	SQL        string         `db:"sql_text"`
	Params     string         `db:"params"`
	CostMillis int64          `db:"cost_ms"`
	Rows       int64          `db:"row_count"`
	Attempt    int            `db:"attempt"`
	Message    sql.NullString `db:"message"`
	Code       int            `db:"code"`
	CreatedAt  string         `db:"created_at"`
}

func (r entryRow) entry() (Entry, error) {
	t, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing audit entry timestamp %q: %w", r.CreatedAt, err)
	}
	return Entry{
		ID:         r.ID,
		Kind:       r.Kind,
		Action:     r.Action.String,
		SQL:        r.SQL,
		Params:     r.Params,
		CostMillis: r.CostMillis,
		Rows:       r.Rows,
		Attempt:    r.Attempt,
		Message:    r.Message.String,
		Code:       r.Code,
		CreatedAt:  t,
	}, nil
}

// Open opens (creating if needed) the journal database at path and ensures
// its table exists.
func Open(ctx context.Context, path string) (*SQLiteRepository, *sql.DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path))
	if err != nil {
		return nil, nil, fmt.Errorf("opening audit journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	repo := NewSQLiteRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close() //nolint:errcheck // Already failing
		return nil, nil, err
	}
	return repo, db, nil
}

// EnsureSchema creates the db_events table and its indexes if missing.
func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS db_events (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	action     TEXT,
	sql_text   TEXT NOT NULL,
	params     TEXT NOT NULL DEFAULT '[]',
	cost_ms    INTEGER NOT NULL DEFAULT 0,
	row_count  INTEGER NOT NULL DEFAULT 0,
	attempt    INTEGER NOT NULL DEFAULT 0,
	message    TEXT,
	code       INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_db_events_kind ON db_events(kind);
CREATE INDEX IF NOT EXISTS idx_db_events_created_at ON db_events(created_at);`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating audit schema: %w", err)
	}
	return nil
}

// Create inserts an entry. ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = "dbe-" + uuid.NewString()[:8]
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Params == "" {
		e.Params = "[]"
	}

	row := entryRow{
		ID:         e.ID,
		Kind:       e.Kind,
		Action:     nullString(e.Action),
		SQL:        e.SQL,
		Params:     e.Params,
		CostMillis: e.CostMillis,
		Rows:       e.Rows,
		Attempt:    e.Attempt,
		Message:    nullString(e.Message),
		Code:       e.Code,
		CreatedAt:  e.CreatedAt.UTC().Format(timeLayout),
	}

	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO db_events (id, kind, action, sql_text, params, cost_ms, row_count, attempt, message, code, created_at)
		 VALUES (:id, :kind, :action, :sql_text, :params, :cost_ms, :row_count, :attempt, :message, :code, :created_at)`,
		row,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// nullString maps empty strings to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// List returns entries matching filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) { //nolint:gocognit // WHERE clause assembly from filter fields
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM db_events %s", where) //nolint:gosec // WHERE built from parameterised conditions, not user input
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("counting audit entries: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		`SELECT id, kind, action, sql_text, params, cost_ms, row_count, attempt, message, code, created_at
		 FROM db_events %s ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	var rows []entryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e, err := row.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}
