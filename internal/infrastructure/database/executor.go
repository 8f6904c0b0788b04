package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"
)

// defaultSlowQueryThreshold is the slow-query threshold in milliseconds.
const defaultSlowQueryThreshold = 200

// rowsUnknown is the row count logged for streaming results.
const rowsUnknown = -1

// Executor runs statements against a Manager's handle.
//
// Each Execute call:
//  1. Obtains the handle (connecting if needed)
//  2. Prepares and executes, or runs the SQL directly
//  3. Retries with a fresh connection when the failure is a disconnect
//  4. Emits a slow-query event when the attempt exceeds the threshold
//  5. Shapes the result according to the request's ResultMode
//
// Thread Safety:
//   - Not safe for concurrent use; see SyncExecutor.
type Executor struct {
	conns      *Manager
	threshold  int64
	maxRetries int
	classifier *DisconnectClassifier
	logger     Logger
	sink       EventSink
	now        func() time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithSlowQueryThreshold sets the slow-query threshold in milliseconds.
func WithSlowQueryThreshold(ms int) ExecutorOption {
	return func(e *Executor) {
		if ms >= 0 {
			e.threshold = int64(ms)
		}
	}
}

// WithMaxRetries sets how many times a disconnected statement is retried.
func WithMaxRetries(n int) ExecutorOption {
	return func(e *Executor) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithDisconnectPatterns adds message fragments that identify a disconnect.
func WithDisconnectPatterns(patterns ...string) ExecutorOption {
	return func(e *Executor) {
		e.classifier = NewDisconnectClassifier(patterns...)
	}
}

// WithLogger sets the logger for reconnect, slow-query and failure logs.
func WithLogger(l Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEventSink sets the sink that receives diagnostic events.
func WithEventSink(s EventSink) ExecutorOption {
	return func(e *Executor) {
		e.sink = s
	}
}

// NewExecutor creates an Executor bound to m.
func NewExecutor(m *Manager, opts ...ExecutorOption) *Executor {
	e := &Executor{
		conns:      m,
		threshold:  defaultSlowQueryThreshold,
		maxRetries: defaultMaxRetries,
		classifier: NewDisconnectClassifier(),
		logger:     noopLogger{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Manager returns the connection manager the executor runs on.
func (e *Executor) Manager() *Manager {
	return e.conns
}

// Execute runs req and shapes its result.
//
// Disconnect failures are retried with a new connection up to the retry
// bound, without delay. Any other statement failure, or a disconnect after
// the last retry, returns an *ExecutionError. Connection failures return
// the Manager's *ConnectionError as-is.
//
// Parameters:
//   - ctx: Context passed to every driver call
//   - req: Statement, parameters, result mode and prepare flag
//
// Returns:
//   - *Result: Elapsed time and payload of the successful attempt
//   - error: *ExecutionError or *ConnectionError
func (e *Executor) Execute(ctx context.Context, req Request) (*Result, error) {
	for retry := 0; ; retry++ {
		res, err := e.attempt(ctx, req)
		if err == nil {
			return res, nil
		}

		var stmtErr *StatementError
		if !errors.As(err, &stmtErr) {
			return nil, err
		}

		if retry < e.maxRetries && e.isDisconnect(stmtErr) {
			e.logger.Info("database reconnect",
				"attempt", retry+1,
				"action", string(stmtErr.Action),
				"error", stmtErr.Message,
			)
			e.emit(ctx, Event{
				Kind:    EventReconnect,
				Time:    e.now(),
				SQL:     req.SQL,
				Params:  req.Params,
				Attempt: retry + 1,
				Action:  stmtErr.Action,
				Message: stmtErr.Message,
				Code:    stmtErr.Code,
			})
			e.conns.Invalidate()
			continue
		}

		execErr := newExecutionError(stmtErr, retry)
		e.logger.Error("database statement failed",
			"action", string(execErr.Action),
			"error", execErr.Message,
			"code", execErr.Code,
			"sql", execErr.SQL,
			"params", execErr.Params,
			"retries", retry,
		)
		e.emit(ctx, Event{
			Kind:    EventFailure,
			Time:    e.now(),
			SQL:     req.SQL,
			Params:  req.Params,
			Attempt: retry,
			Action:  execErr.Action,
			Message: execErr.Message,
			Code:    execErr.Code,
		})
		return nil, execErr
	}
}

// Exec runs a prepared statement and returns the affected row count.
func (e *Executor) Exec(ctx context.Context, query string, args ...any) (*Result, error) {
	return e.Execute(ctx, Request{SQL: query, Params: args, Mode: ModeAffectedRows, Prepared: true})
}

// FetchOne runs a prepared query and returns its first row.
func (e *Executor) FetchOne(ctx context.Context, query string, args ...any) (*Result, error) {
	return e.Execute(ctx, Request{SQL: query, Params: args, Mode: ModeFetchOne, Prepared: true})
}

// FetchAll runs a prepared query and returns every row.
func (e *Executor) FetchAll(ctx context.Context, query string, args ...any) (*Result, error) {
	return e.Execute(ctx, Request{SQL: query, Params: args, Mode: ModeFetchAll, Prepared: true})
}

// Query runs query directly, without preparing or binding, and returns
// its first row.
func (e *Executor) Query(ctx context.Context, query string) (*Result, error) {
	return e.Execute(ctx, Request{SQL: query, Mode: ModeFetchOne})
}

// isDisconnect classifies a statement failure, falling back to the
// manager's last error when the failure carries no message.
func (e *Executor) isDisconnect(stmtErr *StatementError) bool {
	msg := stmtErr.Message
	if msg == "" {
		msg = e.conns.LastError().Message
	}
	return e.classifier.IsDisconnect(stmtErr.Err, msg)
}

// outcome is what one attempt produced before shaping.
type outcome struct {
	result    sql.Result
	rows      *sql.Rows
	stmt      *sql.Stmt
	failStep  Action
	rowsCount int64
}

// attempt runs req once.
func (e *Executor) attempt(ctx context.Context, req Request) (*Result, error) {
	start := e.now()

	h, err := e.conns.Handle(ctx)
	if err != nil {
		return nil, err
	}

	out, err := e.run(ctx, h, req)
	if err != nil {
		return nil, err
	}

	res := &Result{Mode: req.Mode}
	if err := e.shape(req, out, res); err != nil {
		return nil, err
	}

	end := e.now()
	res.ElapsedMillis = end.Sub(start).Milliseconds()

	if res.ElapsedMillis > e.threshold {
		e.logger.Warn("slow database query",
			"cost_ms", res.ElapsedMillis,
			"sql", req.SQL,
			"rows", out.rowsCount,
		)
		e.emit(ctx, Event{
			Kind:       EventSlowQuery,
			Time:       end,
			SQL:        req.SQL,
			Params:     req.Params,
			CostMillis: res.ElapsedMillis,
			Rows:       out.rowsCount,
		})
	}

	return res, nil
}

// run performs the prepare/execute or direct query step.
func (e *Executor) run(ctx context.Context, h Handle, req Request) (*outcome, error) {
	if !req.Prepared {
		out := &outcome{failStep: ActionQuery}
		var err error
		if req.Mode.readsRows() {
			out.rows, err = h.QueryContext(ctx, req.SQL)
			if err == nil && out.rows == nil {
				err = ErrNoHandle
			}
		} else {
			out.result, err = h.ExecContext(ctx, req.SQL)
		}
		if err != nil {
			e.conns.recordHandleError(err)
			return nil, newStatementError(ActionQuery, req, err)
		}
		return out, nil
	}

	stmt, err := h.PrepareContext(ctx, req.SQL)
	if err == nil && stmt == nil {
		err = ErrNoHandle
	}
	if err != nil {
		e.conns.recordHandleError(err)
		return nil, newStatementError(ActionPrepare, req, err)
	}
	e.conns.beginStatement()

	out := &outcome{stmt: stmt, failStep: ActionExecute}
	if req.Mode.readsRows() {
		out.rows, err = stmt.QueryContext(ctx, req.Params...)
	} else {
		out.result, err = stmt.ExecContext(ctx, req.Params...)
	}
	if err != nil {
		stmt.Close() //nolint:errcheck // Best effort cleanup on error path
		e.conns.recordStatementError(err)
		return nil, newStatementError(ActionExecute, req, err)
	}
	return out, nil
}

// shape fills res from out according to req.Mode and counts rows.
func (e *Executor) shape(req Request, out *outcome, res *Result) error {
	if req.Mode == ModeStatement {
		st, err := newStatement(out.rows, out.stmt)
		if err != nil {
			out.rows.Close() //nolint:errcheck // Best effort cleanup on error path
			e.closeStmt(out)
			return e.fail(out.failStep, req, err)
		}
		out.rowsCount = rowsUnknown
		res.Statement = st
		return nil
	}

	defer e.closeStmt(out)

	if out.rows != nil {
		rows, count, err := readRows(out.rows, req.Mode == ModeFetchOne)
		out.rowsCount = count
		if err != nil {
			return e.fail(out.failStep, req, err)
		}
		if req.Mode == ModeFetchOne {
			res.Row = Row{}
			if len(rows) > 0 {
				res.Row = rows[0]
			}
		} else {
			res.Rows = rows
		}
		return nil
	}

	// Drivers without RowsAffected or LastInsertId support report an
	// error here; the count and id stay zero.
	if n, err := out.result.RowsAffected(); err == nil {
		out.rowsCount = n
	}
	if id, err := out.result.LastInsertId(); err == nil {
		e.conns.setLastInsertID(id)
	}
	if req.Mode == ModeAffectedRows {
		res.RowsAffected = out.rowsCount
	}
	return nil
}

// fail records a failure found while reading results.
func (e *Executor) fail(step Action, req Request, err error) error {
	if step == ActionExecute {
		e.conns.recordStatementError(err)
	} else {
		e.conns.recordHandleError(err)
	}
	return newStatementError(step, req, err)
}

func (e *Executor) closeStmt(out *outcome) {
	if out.stmt == nil {
		return
	}
	if err := out.stmt.Close(); err != nil {
		e.logger.Debug("closing prepared statement", "error", err)
	}
}

// emit delivers ev to the sink. Sink errors and panics never reach the caller.
func (e *Executor) emit(ctx context.Context, ev Event) {
	if e.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("diagnostic sink panic recovered", "kind", string(ev.Kind), "panic", r)
		}
	}()
	if err := e.sink.Record(ctx, ev); err != nil {
		e.logger.Debug("diagnostic sink failed", "kind", string(ev.Kind), "error", err)
	}
}

// SyncExecutor serialises access to an Executor for use from multiple
// goroutines. Statements returned by ModeStatement must still be closed
// before the next call.
type SyncExecutor struct {
	mu   sync.Mutex
	exec *Executor
}

// NewSyncExecutor wraps e.
func NewSyncExecutor(e *Executor) *SyncExecutor {
	return &SyncExecutor{exec: e}
}

// Execute runs req while holding the lock.
func (s *SyncExecutor) Execute(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec.Execute(ctx, req)
}
