package diagnostics

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-dbaccess/internal/infrastructure/database"
)

// MetricWriter is the part of influxdb.Client used by InfluxRecorder.
type MetricWriter interface {
	WriteQueryMetricAt(kind string, tags map[string]string, fields map[string]any, ts time.Time)
}

// InfluxRecorder turns events into db_query_events points.
type InfluxRecorder struct {
	w    MetricWriter
	tags map[string]string
}

// NewInfluxRecorder returns a recorder writing to w. tags are attached to
// every point (typically driver and service instance).
func NewInfluxRecorder(w MetricWriter, tags map[string]string) *InfluxRecorder {
	copied := make(map[string]string, len(tags))
	for k, v := range tags {
		copied[k] = v
	}
	return &InfluxRecorder{w: w, tags: copied}
}

// Record writes one point. The write is buffered by the client, so Record
// never fails; asynchronous write errors surface via the client's callback.
func (r *InfluxRecorder) Record(_ context.Context, ev database.Event) error {
	tags := make(map[string]string, len(r.tags)+1)
	for k, v := range r.tags {
		tags[k] = v
	}
	if ev.Action != "" {
		tags["action"] = string(ev.Action)
	}

	fields := map[string]any{"sql": ev.SQL}
	switch ev.Kind {
	case database.EventSlowQuery:
		fields["cost_ms"] = ev.CostMillis
		fields["rows"] = ev.Rows
	case database.EventReconnect:
		fields["attempt"] = int64(ev.Attempt)
		fields["message"] = ev.Message
	case database.EventFailure:
		fields["retries"] = int64(ev.Attempt)
		fields["code"] = int64(ev.Code)
		fields["message"] = ev.Message
	}

	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	r.w.WriteQueryMetricAt(string(ev.Kind), tags, fields, ts)
	return nil
}
