package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// QueryEventMeasurement is the measurement holding database access events.
const QueryEventMeasurement = "db_query_events"

// queryEventPoint builds one db_query_events point. The kind tag is always
// set and overrides any "kind" entry in tags.
func queryEventPoint(kind string, tags map[string]string, fields map[string]any, ts time.Time) *write.Point {
	allTags := make(map[string]string, len(tags)+1)
	for k, v := range tags {
		if v != "" {
			allTags[k] = v
		}
	}
	allTags["kind"] = kind

	return write.NewPoint(QueryEventMeasurement, allTags, fields, ts)
}

// WriteQueryMetric records one database access event.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Empty tag values are dropped. Dropped silently when not connected.
//
// Parameters:
//   - kind: Event kind ("slow_query", "reconnect", "failure")
//   - tags: Low-cardinality labels such as driver or action
//   - fields: Measured values such as cost_ms or rows
func (c *Client) WriteQueryMetric(kind string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.WriteQueryMetricAt(kind, tags, fields, c.now())
}

// WriteQueryMetricAt is WriteQueryMetric with an explicit timestamp, used
// when the event time is known precisely.
func (c *Client) WriteQueryMetricAt(kind string, tags map[string]string, fields map[string]any, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(queryEventPoint(kind, tags, fields, ts))
}
