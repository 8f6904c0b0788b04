package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// Sentinel errors for statement execution.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, database.ErrPrepareFailed) {
//	    // the statement never reached the server
//	}
var (
	// ErrPrepareFailed indicates the statement could not be prepared.
	ErrPrepareFailed = errors.New("database: prepare failed")

	// ErrQueryFailed indicates a direct (unprepared) statement failed.
	ErrQueryFailed = errors.New("database: query failed")

	// ErrExecuteFailed indicates a prepared statement failed to execute
	// or its rows could not be read.
	ErrExecuteFailed = errors.New("database: execute failed")

	// ErrConnectionFailed indicates no connection could be established.
	ErrConnectionFailed = errors.New("database: connection failed")

	// ErrNoHandle indicates the driver returned neither a statement nor an error.
	ErrNoHandle = errors.New("database: driver returned no statement")

	// ErrUnsupportedDriver indicates Config.Driver names an unknown driver.
	ErrUnsupportedDriver = errors.New("database: unsupported driver")
)

// Action names the statement lifecycle step that failed.
type Action string

// Statement lifecycle steps.
const (
	ActionPrepare Action = "prepare"
	ActionQuery   Action = "query"
	ActionExecute Action = "execute"
)

// sentinel maps an action to its sentinel error.
func (a Action) sentinel() error {
	switch a {
	case ActionPrepare:
		return ErrPrepareFailed
	case ActionQuery:
		return ErrQueryFailed
	default:
		return ErrExecuteFailed
	}
}

// ErrorRecord is the most recent error reported by a handle or statement.
// The zero value means no error.
type ErrorRecord struct {
	Message string
	Code    int
}

// IsZero reports whether r carries no error.
func (r ErrorRecord) IsZero() bool {
	return r.Message == "" && r.Code == 0
}

// recordOf builds an ErrorRecord from a driver error.
func recordOf(err error) ErrorRecord {
	if err == nil {
		return ErrorRecord{}
	}
	return ErrorRecord{Message: err.Error(), Code: errorCode(err)}
}

// errorCode extracts the native error number from driver errors.
// Returns 0 for errors that carry none.
func errorCode(err error) int {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return int(myErr.Number)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return int(liteErr.Code)
	}

	return 0
}

// StatementError is a failure of one step of the statement lifecycle
// (prepare, direct query, or execute) on a single attempt.
//
// It matches ErrPrepareFailed, ErrQueryFailed or ErrExecuteFailed via errors.Is.
type StatementError struct {
	Action  Action
	Message string
	Code    int
	SQL     string
	Params  []any
	Err     error
}

func newStatementError(action Action, req Request, err error) *StatementError {
	rec := recordOf(err)
	return &StatementError{
		Action:  action,
		Message: rec.Message,
		Code:    rec.Code,
		SQL:     req.SQL,
		Params:  req.Params,
		Err:     err,
	}
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("database %s failed [%s][%s]%s", e.Action, e.Message, e.SQL, encodeParams(e.Params))
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the failed action.
func (e *StatementError) Is(target error) bool {
	return target == e.Action.sentinel()
}

// ExecutionError is the terminal error returned by Executor.Execute when a
// statement fails and is not recovered by reconnecting.
type ExecutionError struct {
	// Action is the lifecycle step that failed on the last attempt.
	Action Action

	// Message is the underlying driver message.
	Message string

	// Code is the native driver error number, 0 if unknown.
	Code int

	// SQL is the statement text exactly as supplied.
	SQL string

	// Params is the JSON encoding of the bound parameters.
	Params string

	// Retries is the number of reconnect retries made before giving up.
	Retries int

	// Err is the *StatementError from the last attempt.
	Err error
}

func newExecutionError(stmtErr *StatementError, retries int) *ExecutionError {
	return &ExecutionError{
		Action:  stmtErr.Action,
		Message: stmtErr.Message,
		Code:    stmtErr.Code,
		SQL:     stmtErr.SQL,
		Params:  encodeParams(stmtErr.Params),
		Retries: retries,
		Err:     stmtErr,
	}
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("database %s failed: %s [%s] %s", e.Action, e.Message, e.SQL, e.Params)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ConnectionError is returned when a handle cannot be established after
// exhausting connection retries. Unwrap yields the driver error from the
// last attempt unchanged.
type ConnectionError struct {
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database: connection failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is matches ErrConnectionFailed.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}

// encodeParams renders bound parameters for diagnostics. A nil slice
// encodes as an empty array.
func encodeParams(params []any) string {
	if len(params) == 0 {
		return "[]"
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprint(params)
	}
	return string(data)
}
