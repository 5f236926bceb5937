package influxdb

import "errors"

// Sentinel errors for history writes. Check with errors.Is:
//
//	if errors.Is(err, influxdb.ErrNotConnected) {
//	    // history is unavailable; command dispatch carries on
//	}
var (
	// ErrNotConnected indicates the client is not connected to InfluxDB.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed indicates a synchronous write failed. Batched point
	// writes report failures through the error callback instead.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrDisabled indicates history recording is disabled in config.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
