// Package influxdb exports database access diagnostics to InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes and health checks. Each slow
// query, reconnect or terminal failure becomes one point in the
// "db_query_events" measurement, tagged by event kind and driver.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "ops",
//	    Bucket:  "dbaccess",
//	}
//
//	client, err := influxdb.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteQueryMetric("slow_query",
//	    map[string]string{"driver": "mysql"},
//	    map[string]any{"cost_ms": int64(312), "rows": int64(2)})
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
//
// # Error Handling
//
// Writes never block the caller. Batch failures are delivered to the
// callback registered with SetOnError; connection and health check errors
// are returned directly.
package influxdb
