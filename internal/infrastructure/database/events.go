package database

import (
	"context"
	"time"
)

// EventKind identifies a diagnostic event emitted by the Executor.
type EventKind string

// Event kinds.
const (
	// EventSlowQuery is emitted when a statement exceeds the slow-query threshold.
	EventSlowQuery EventKind = "slow_query"

	// EventReconnect is emitted before retrying after a disconnect.
	EventReconnect EventKind = "reconnect"

	// EventFailure is emitted when Execute gives up with an ExecutionError.
	EventFailure EventKind = "failure"
)

// Event is an advisory diagnostic record. Fields not relevant to Kind are zero.
type Event struct {
	Kind EventKind `json:"kind"`
	Time time.Time `json:"time"`

	SQL    string `json:"sql"`
	Params []any  `json:"params"`

	// CostMillis and Rows are set for EventSlowQuery.
	CostMillis int64 `json:"cost,omitempty"`
	Rows       int64 `json:"rows,omitempty"`

	// Attempt is the 1-based retry number for EventReconnect, and the
	// number of retries made for EventFailure.
	Attempt int `json:"attempt,omitempty"`

	// Action, Message and Code describe the failing step.
	Action  Action `json:"action,omitempty"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// SlowQuery is the slow-query log record.
type SlowQuery struct {
	Cost   int64  `json:"cost"`
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
	Rows   int64  `json:"rows"`
}

// SlowQuery returns the slow-query record carried by ev.
func (ev Event) SlowQuery() SlowQuery {
	params := ev.Params
	if params == nil {
		params = []any{}
	}
	return SlowQuery{Cost: ev.CostMillis, SQL: ev.SQL, Params: params, Rows: ev.Rows}
}

// EventSink receives diagnostic events. Sinks are advisory: the Executor
// ignores their errors and recovers their panics.
type EventSink interface {
	Record(ctx context.Context, ev Event) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, ev Event) error

// Record calls f.
func (f EventSinkFunc) Record(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}
