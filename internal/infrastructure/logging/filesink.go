package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-dbaccess/internal/infrastructure/config"
)

// File sink constants.
const (
	// sinkDirPermissions is the permission mode for the dated log directories.
	sinkDirPermissions = 0750

	// sinkFilePermissions is the permission mode for channel files.
	sinkFilePermissions = 0640

	// sinkDirLayout names the per-day directory.
	sinkDirLayout = "20060102"

	// sinkTimeLayout prefixes every line.
	sinkTimeLayout = "2006-01-02 15:04:05"

	// placeholder fills the address and request fields, which a database
	// layer has no value for.
	placeholder = "-"
)

// Severity orders file sink records. Lower values are more severe; a sink
// keeps every record at or below its threshold.
type Severity int

// Severities accepted by FileSink.
const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityDebug
)

// String returns the tag written into each line.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	case SeverityInfo:
		return "INFO"
	case SeverityDebug:
		return "DEBUG"
	default:
		return fmt.Sprintf("SEVERITY(%d)", int(s))
	}
}

// ParseSeverity converts a config string to a Severity.
// Defaults to SeverityInfo if unrecognised.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(s) {
	case "error":
		return SeverityError
	case "warn", "warning":
		return SeverityWarning
	case "debug":
		return SeverityDebug
	default:
		return SeverityInfo
	}
}

// FileSink appends records to channel files under a dated directory:
//
//	<path>/20260114/db-slow.log
//
// Each line has the form:
//
//	2026-01-14 09:30:00 [WARNING] [-] [-] {"cost":312,"sql":"..."}
//
// A FileSink with an empty path is disabled and accepts every write as a no-op.
//
// Thread Safety:
//   - Write is safe for concurrent use; lines are never interleaved.
type FileSink struct {
	path  string
	level Severity
	now   func() time.Time
	mu    sync.Mutex
}

// NewFileSink creates a sink from the file logging configuration.
func NewFileSink(cfg config.FileLoggingConfig) *FileSink {
	return &FileSink{
		path:  cfg.Path,
		level: ParseSeverity(cfg.Level),
		now:   time.Now,
	}
}

// Enabled reports whether the sink writes anything at all.
func (s *FileSink) Enabled() bool {
	return s != nil && s.path != ""
}

// Write persists payload to the named channel file.
//
// Scalars (strings, numbers, booleans, errors) are written verbatim; any
// other payload is JSON-encoded on a single line. Records less severe than
// the sink threshold, and every record on a disabled sink, are dropped
// without error.
//
// Parameters:
//   - severity: Record severity
//   - payload: Scalar or structured record
//   - channel: File name within the day's directory (e.g. "db-slow.log")
//
// Returns:
//   - error: If the directory or file cannot be written
func (s *FileSink) Write(severity Severity, payload any, channel string) error {
	if !s.Enabled() || severity > s.level {
		return nil
	}
	if channel == "" || strings.ContainsAny(channel, `/\`) {
		return fmt.Errorf("invalid log channel %q", channel)
	}

	msg, err := formatPayload(payload)
	if err != nil {
		return fmt.Errorf("encoding log payload: %w", err)
	}

	now := s.now()
	line := fmt.Sprintf("%s [%s] [%s] [%s] %s\n",
		now.Format(sinkTimeLayout), severity, placeholder, placeholder, msg)

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.path, now.Format(sinkDirLayout))
	if err := os.MkdirAll(dir, sinkDirPermissions); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, channel), os.O_CREATE|os.O_WRONLY|os.O_APPEND, sinkFilePermissions)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close() //nolint:errcheck // Write error is reported below

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("writing log file: %w", err)
	}
	return nil
}

// formatPayload renders a record the way it appears after the line prefix.
func formatPayload(payload any) (string, error) {
	switch v := payload.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case error:
		return v.Error(), nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
