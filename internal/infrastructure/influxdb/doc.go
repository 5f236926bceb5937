// Package influxdb provides InfluxDB connectivity for the Equilibrium hub.
//
// It wraps the official influxdb-client-go v2 library with hub-specific
// patterns for connection management, history writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series history for:
//   - Command dispatch outcomes (transport, latency, success)
//   - Device state changes as tracked by the hub
//   - Scene lifecycle transitions
//   - Physical remote button activity
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "equilibrium",
//	    Bucket: "history",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Record a dispatched command
//	client.WriteCommandDispatch("ir", "power_toggle", 42.5, true)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This keeps the hot command path free of network round-trips.
package influxdb
