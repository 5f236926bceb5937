package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteCommandDispatch records a completed command from the dispatch queue.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - transport: The transport used ("ir" or "ble")
//   - name: The command name (e.g., "volume_up")
//   - durationMs: Wall-clock time from enqueue to completion
//   - success: Whether the command was delivered
//
// Example:
//
//	client.WriteCommandDispatch("ir", "power_toggle", 42.5, true)
func (c *Client) WriteCommandDispatch(transport string, name string, durationMs float64, success bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"command_dispatch",
		map[string]string{
			"transport": transport,
			"command":   name,
		},
		map[string]interface{}{
			"duration_ms": durationMs,
			"success":     success,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDeviceState records a tracked device attribute change.
//
// Used for auditing what the hub believes each device's state to be
// over time (power, input selection, etc.).
//
// Parameters:
//   - deviceID: Device identifier (e.g., "soundbar")
//   - attr: The attribute that changed (e.g., "power", "input")
//   - value: The new attribute value
func (c *Client) WriteDeviceState(deviceID string, attr string, value string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_state",
		map[string]string{
			"device_id": deviceID,
			"attr":      attr,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSceneTransition records a scene lifecycle change.
//
// Parameters:
//   - scene: Scene name (e.g., "movie")
//   - status: Lifecycle status ("starting", "active", "stopping", "inactive", "failed")
func (c *Client) WriteSceneTransition(scene string, status string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"scene_transition",
		map[string]string{
			"scene": scene,
		},
		map[string]interface{}{
			"status": status,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteButtonEvent records a physical remote button event.
//
// Used for tracking remote usage patterns and debugging keymap bindings.
//
// Parameters:
//   - button: Button name from the RF remote (e.g., "vol_up")
//   - action: Event type ("press", "repeat", "release")
func (c *Client) WriteButtonEvent(button string, action string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"button_event",
		map[string]string{
			"button": button,
			"action": action,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "hub-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
