package influxdb

import (
	"testing"
	"time"
)

func TestQueryEventPoint(t *testing.T) {
	ts := time.Date(2026, 1, 14, 9, 30, 0, 0, time.UTC)

	p := queryEventPoint("slow_query",
		map[string]string{"driver": "mysql", "action": "", "kind": "spoofed"},
		map[string]any{"cost_ms": int64(312), "rows": int64(2)},
		ts,
	)

	if p.Name() != QueryEventMeasurement {
		t.Errorf("Name() = %q, want %q", p.Name(), QueryEventMeasurement)
	}
	if !p.Time().Equal(ts) {
		t.Errorf("Time() = %v, want %v", p.Time(), ts)
	}

	tags := make(map[string]string)
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	if len(tags) != 2 || tags["driver"] != "mysql" || tags["kind"] != "slow_query" {
		t.Errorf("tags = %v, want driver=mysql kind=slow_query only", tags)
	}

	fields := make(map[string]any)
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["cost_ms"] != int64(312) || fields["rows"] != int64(2) {
		t.Errorf("fields = %v", fields)
	}
}

func TestClientOptions_Defaults(t *testing.T) {
	tests := []struct {
		name          string
		batchSize     int
		flushInterval int
		wantBatch     uint
		wantFlushMS   uint
	}{
		{name: "configured", batchSize: 50, flushInterval: 2, wantBatch: 50, wantFlushMS: 2000},
		{name: "zero uses defaults", wantBatch: defaultBatchSize, wantFlushMS: defaultFlushInterval * millisecondsPerSecond},
		{name: "negative uses defaults", batchSize: -5, flushInterval: -1, wantBatch: defaultBatchSize, wantFlushMS: defaultFlushInterval * millisecondsPerSecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := clientOptions(configWith(tt.batchSize, tt.flushInterval))
			if got := opts.BatchSize(); got != tt.wantBatch {
				t.Errorf("BatchSize() = %d, want %d", got, tt.wantBatch)
			}
			if got := opts.FlushInterval(); got != tt.wantFlushMS {
				t.Errorf("FlushInterval() = %d, want %d", got, tt.wantFlushMS)
			}
		})
	}
}

func TestClient_NilAndDisconnectedSafe(t *testing.T) {
	var c *Client
	if c.IsConnected() {
		t.Error("nil client IsConnected() = true")
	}
	if err := c.Close(); err != nil {
		t.Errorf("nil client Close() error = %v", err)
	}

	disconnected := &Client{now: time.Now}
	disconnected.WriteQueryMetric("failure", nil, map[string]any{"retries": 3})
	disconnected.Flush()
}
