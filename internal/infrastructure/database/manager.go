package database

import (
	"context"
)

// defaultMaxRetries bounds connection attempts and disconnect retries
// beyond the first try.
const defaultMaxRetries = 3

// Logger is the logging interface used by this package.
// *logging.Logger and *slog.Logger both satisfy it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Manager owns at most one live Handle. It connects lazily, memoizes the
// handle, and discards it on Invalidate so the next call reconnects.
//
// Thread Safety:
//   - Not safe for concurrent use. Use one Manager per goroutine or guard
//     it externally (see SyncExecutor).
type Manager struct {
	source  ConfigSource
	dial    Dialer
	retries int
	logger  Logger

	handle Handle
	driver string

	// handleErr is the last error reported by the session itself
	// (connect, prepare, direct query).
	handleErr ErrorRecord

	// stmtErr is the last error reported by a prepared statement.
	stmtErr ErrorRecord

	lastInsertID int64
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDialer replaces OpenSQL, typically with a fake in tests.
func WithDialer(d Dialer) ManagerOption {
	return func(m *Manager) {
		m.dial = d
	}
}

// WithConnectRetries sets how many times a failed connection is retried.
func WithConnectRetries(n int) ManagerOption {
	return func(m *Manager) {
		if n >= 0 {
			m.retries = n
		}
	}
}

// WithManagerLogger sets the logger for connection events.
func WithManagerLogger(l Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager that reads connection settings from source.
// No connection is made until the first call that needs one.
func NewManager(source ConfigSource, opts ...ManagerOption) *Manager {
	m := &Manager{
		source:  source,
		dial:    OpenSQL,
		retries: defaultMaxRetries,
		logger:  noopLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle returns the memoized handle, connecting if there is none.
//
// A failed attempt is retried immediately up to the configured retry count;
// the config source is consulted again on every attempt. When every attempt
// fails the returned *ConnectionError wraps the last driver error unchanged.
func (m *Manager) Handle(ctx context.Context) (Handle, error) {
	if m.handle != nil {
		return m.handle, nil
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= m.retries; attempt++ {
		attempts++

		h, driver, err := m.connect(ctx)
		if err == nil {
			m.handle = h
			m.driver = driver
			m.handleErr = ErrorRecord{}
			m.stmtErr = ErrorRecord{}
			m.lastInsertID = 0
			if attempt > 0 {
				m.logger.Info("database connected after retry", "driver", driver, "attempts", attempts)
			}
			return h, nil
		}

		lastErr = err
		m.logger.Warn("database connect failed",
			"attempt", attempts,
			"max_attempts", m.retries+1,
			"error", err,
		)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, &ConnectionError{Attempts: attempts, Err: lastErr}
}

// connect performs one connection attempt.
func (m *Manager) connect(ctx context.Context) (Handle, string, error) {
	cfg, err := m.source()
	if err != nil {
		return nil, "", err
	}
	h, err := m.dial(ctx, cfg)
	if err != nil {
		return nil, "", err
	}
	if h == nil {
		return nil, "", ErrNoHandle
	}
	return h, cfg.driverName(), nil
}

// Connected reports whether a handle is currently memoized.
func (m *Manager) Connected() bool {
	return m.handle != nil
}

// Driver returns the driver name of the current handle, or "" if none.
func (m *Manager) Driver() string {
	return m.driver
}

// Invalidate discards the current handle. The next Handle call reconnects.
func (m *Manager) Invalidate() {
	if m.handle == nil {
		return
	}
	if err := m.handle.Close(); err != nil {
		m.logger.Debug("closing discarded database handle", "error", err)
	}
	m.handle = nil
	m.driver = ""
	m.handleErr = ErrorRecord{}
	m.stmtErr = ErrorRecord{}
	m.lastInsertID = 0
}

// Close discards the current handle. It is safe to call more than once.
func (m *Manager) Close() error {
	if m.handle == nil {
		return nil
	}
	err := m.handle.Close()
	m.handle = nil
	m.driver = ""
	return err
}

// Quote renders value as a SQL literal for the current handle's dialect.
// It connects if needed. Use it only where parameter binding is impossible.
func (m *Manager) Quote(ctx context.Context, value any) (string, error) {
	if _, err := m.Handle(ctx); err != nil {
		return "", err
	}
	return quoteLiteral(m.driver, value), nil
}

// LastInsertID returns the id generated by the most recent insert on the
// current handle, or 0 if there is no handle.
func (m *Manager) LastInsertID() int64 {
	if m.handle == nil {
		return 0
	}
	return m.lastInsertID
}

// LastError returns the most recent error.
//
// A statement-level error with a message wins over the handle-level error.
// Handles implementing ErrorReporter are consulted before the recorded
// handle-level error. With no handle the empty record is returned.
func (m *Manager) LastError() ErrorRecord {
	if m.handle == nil {
		return ErrorRecord{}
	}
	if m.stmtErr.Message != "" {
		return m.stmtErr
	}
	if r, ok := m.handle.(ErrorReporter); ok {
		if rec := r.LastError(); rec.Message != "" {
			return rec
		}
	}
	return m.handleErr
}

// recordHandleError stores a session-level failure.
func (m *Manager) recordHandleError(err error) {
	m.handleErr = recordOf(err)
}

// recordStatementError stores a statement-level failure.
func (m *Manager) recordStatementError(err error) {
	m.stmtErr = recordOf(err)
}

// beginStatement resets statement-level error state for a new statement.
func (m *Manager) beginStatement() {
	m.stmtErr = ErrorRecord{}
}

// setLastInsertID records the id from a successful exec.
func (m *Manager) setLastInsertID(id int64) {
	m.lastInsertID = id
}
