package database

import (
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// DefaultDisconnectPatterns are driver message fragments that mean the
// session was severed rather than the statement being wrong. Matching is
// case-sensitive.
var DefaultDisconnectPatterns = []string{
	"server has gone away",
	"no connection to the server",
	"Lost connection",
	"is dead or not enabled",
	"Error while sending",
	"decryption failed or bad record mac",
	"SSL connection has been closed unexpectedly",
}

// DisconnectClassifier decides whether an error means the connection was lost.
type DisconnectClassifier struct {
	patterns []string
}

// NewDisconnectClassifier returns a classifier for DefaultDisconnectPatterns
// plus extra. Empty patterns are ignored.
func NewDisconnectClassifier(extra ...string) *DisconnectClassifier {
	patterns := make([]string, 0, len(DefaultDisconnectPatterns)+len(extra))
	patterns = append(patterns, DefaultDisconnectPatterns...)
	for _, p := range extra {
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return &DisconnectClassifier{patterns: patterns}
}

// Patterns returns a copy of the configured patterns.
func (c *DisconnectClassifier) Patterns() []string {
	out := make([]string, len(c.patterns))
	copy(out, c.patterns)
	return out
}

// MatchMessage reports whether msg contains any disconnect pattern.
func (c *DisconnectClassifier) MatchMessage(msg string) bool {
	if msg == "" {
		return false
	}
	for _, p := range c.patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsDisconnect reports whether err means the connection was lost.
//
// database/sql's ErrBadConn and the MySQL driver's ErrInvalidConn are always
// disconnects. Otherwise msg is matched against the patterns; callers pass
// the handle's last error message when err has none of its own.
func (c *DisconnectClassifier) IsDisconnect(err error, msg string) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	return c.MatchMessage(msg)
}
