package database

import (
	"database/sql"
	"fmt"
	"io"
	"strings"
)

// ResultMode selects how Execute shapes a statement's outcome.
type ResultMode int

// Result modes. The zero value is ModeAffectedRows.
const (
	// ModeAffectedRows returns the number of rows the statement changed.
	ModeAffectedRows ResultMode = iota

	// ModeFetchOne returns the first row, or an empty Row.
	ModeFetchOne

	// ModeFetchAll returns every row, or an empty slice.
	ModeFetchAll

	// ModeStatement returns the open Statement for streaming.
	ModeStatement
)

// String returns the config name of m.
func (m ResultMode) String() string {
	switch m {
	case ModeAffectedRows:
		return "affected_rows"
	case ModeFetchOne:
		return "fetch_one"
	case ModeFetchAll:
		return "fetch_all"
	case ModeStatement:
		return "statement"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseResultMode converts a config or CLI name to a ResultMode.
func ParseResultMode(s string) (ResultMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "affected_rows", "affected":
		return ModeAffectedRows, nil
	case "fetch_one", "one":
		return ModeFetchOne, nil
	case "fetch_all", "all":
		return ModeFetchAll, nil
	case "statement", "stmt":
		return ModeStatement, nil
	default:
		return 0, fmt.Errorf("unknown result mode %q", s)
	}
}

// readsRows reports whether m needs a row-returning call.
func (m ResultMode) readsRows() bool {
	return m == ModeFetchOne || m == ModeFetchAll || m == ModeStatement
}

// Row is one result row keyed by column name as reported by the driver.
// SQL NULL is nil; text and blob columns are strings.
type Row map[string]any

// Request is a single logical statement execution. It is reused verbatim
// on every retry.
type Request struct {
	SQL      string
	Params   []any
	Mode     ResultMode
	Prepared bool
}

// Result is the outcome of Execute. Exactly one payload field is meaningful,
// selected by Mode; Payload returns it.
type Result struct {
	// ElapsedMillis is the truncated wall time of the successful attempt.
	ElapsedMillis int64

	Mode ResultMode

	RowsAffected int64
	Row          Row
	Rows         []Row
	Statement    *Statement
}

// Payload returns the value selected by Mode. Unknown modes yield int64(0).
func (r *Result) Payload() any {
	switch r.Mode {
	case ModeAffectedRows:
		return r.RowsAffected
	case ModeFetchOne:
		return r.Row
	case ModeFetchAll:
		return r.Rows
	case ModeStatement:
		return r.Statement
	default:
		return int64(0)
	}
}

// Statement is an open result set returned by ModeStatement. The caller
// must Close it; until then it holds the Manager's only connection.
type Statement struct {
	rows    *sql.Rows
	stmt    *sql.Stmt
	columns []string
}

func newStatement(rows *sql.Rows, stmt *sql.Stmt) (*Statement, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	return &Statement{rows: rows, stmt: stmt, columns: cols}, nil
}

// Columns returns the result column names.
func (s *Statement) Columns() []string {
	return s.columns
}

// Rows exposes the underlying *sql.Rows for callers that scan into typed values.
func (s *Statement) Rows() *sql.Rows {
	return s.rows
}

// Fetch returns the next row, or io.EOF when the result set is exhausted.
func (s *Statement) Fetch() (Row, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return scanRow(s.rows, s.columns)
}

// Close releases the result set and, for prepared statements, the statement.
func (s *Statement) Close() error {
	err := s.rows.Close()
	if s.stmt != nil {
		if stmtErr := s.stmt.Close(); err == nil {
			err = stmtErr
		}
	}
	return err
}

// scanRow reads the current row into a Row.
func scanRow(rows *sql.Rows, columns []string) (Row, error) {
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	row := make(Row, len(columns))
	for i, col := range columns {
		if b, ok := values[i].([]byte); ok {
			row[col] = string(b)
			continue
		}
		row[col] = values[i]
	}
	return row, nil
}

// readRows drains rows. With firstOnly it scans only the first row but
// still counts the rest. The returned count is the number of rows read.
func readRows(rows *sql.Rows, firstOnly bool) ([]Row, int64, error) {
	defer rows.Close() //nolint:errcheck // rows.Err is checked below

	columns, err := rows.Columns()
	if err != nil {
		return nil, 0, err
	}

	out := []Row{}
	var count int64
	for rows.Next() {
		count++
		if firstOnly && count > 1 {
			continue
		}
		row, err := scanRow(rows, columns)
		if err != nil {
			return nil, count, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, count, err
	}
	return out, count, nil
}
