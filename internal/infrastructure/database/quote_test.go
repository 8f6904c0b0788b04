package database

import (
	"testing"
	"time"
)

func TestQuoteLiteral(t *testing.T) {
	ts := time.Date(2026, 1, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		driver string
		value  any
		want   string
	}{
		{name: "nil", driver: DriverMySQL, value: nil, want: "NULL"},
		{name: "int", driver: DriverMySQL, value: 42, want: "42"},
		{name: "int64", driver: DriverSQLite, value: int64(-7), want: "-7"},
		{name: "float", driver: DriverMySQL, value: 1.25, want: "1.25"},
		{name: "bool", driver: DriverSQLite, value: true, want: "TRUE"},
		{name: "plain string", driver: DriverMySQL, value: "abc", want: "'abc'"},
		{name: "mysql quote", driver: DriverMySQL, value: "O'Brien", want: `'O\'Brien'`},
		{name: "mysql backslash", driver: DriverMySQL, value: `a\b`, want: `'a\\b'`},
		{name: "mysql control chars", driver: DriverMySQL, value: "a\nb\r\x00\x1a", want: `'a\nb\r\0\Z'`},
		{name: "mysql double quote", driver: DriverMySQL, value: `say "hi"`, want: `'say \"hi\"'`},
		{name: "sqlite quote", driver: DriverSQLite, value: "O'Brien", want: "'O''Brien'"},
		{name: "sqlite backslash untouched", driver: DriverSQLite, value: `a\b`, want: `'a\b'`},
		{name: "duckdb quote", driver: DriverDuckDB, value: "it's", want: "'it''s'"},
		{name: "bytes", driver: DriverSQLite, value: []byte("raw"), want: "'raw'"},
		{name: "time", driver: DriverMySQL, value: ts, want: "'2026-01-14 09:30:00'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := quoteLiteral(tt.driver, tt.value)
			if got != tt.want {
				t.Errorf("quoteLiteral(%q, %#v) = %s, want %s", tt.driver, tt.value, got, tt.want)
			}
			if again := quoteLiteral(tt.driver, tt.value); again != got {
				t.Errorf("quoteLiteral not idempotent: %s then %s", got, again)
			}
		})
	}
}
