package orchestrator

import (
	"context"
	"time"

	"github.com/wehrfritz/equilibrium-core/internal/state"
)

// EventType classifies orchestrator events.
type EventType string

const (
	// EventCommand reports a queued command completing (or failing).
	EventCommand EventType = "command"
	// EventScene reports a scene status transition.
	EventScene EventType = "scene"
	// EventDeviceState reports a tracked device attribute change.
	EventDeviceState EventType = "device_state"
	// EventRemoteButton reports physical remote activity.
	EventRemoteButton EventType = "remote_button"
	// EventPairing reports a BLE host asking to bond.
	EventPairing EventType = "pairing"
	// EventBLEState reports a BLE peripheral state transition.
	EventBLEState EventType = "ble_state"
	// EventRecording reports IR learn progress.
	EventRecording EventType = "recording"
)

// Event is one observable occurrence in the hub. Only the fields relevant
// to Type are populated.
type Event struct {
	Type EventType `json:"type"`
	Time time.Time `json:"time"`

	// CorrelationID ties the event to a queued command.
	CorrelationID string `json:"correlation_id,omitempty"`

	// Command is the completed command's label (IR code name, BLE
	// keycode, or "macro").
	Command string `json:"command,omitempty"`

	// DurationMs is the completed command's execution time.
	DurationMs float64 `json:"duration_ms,omitempty"`

	Scene       string            `json:"scene,omitempty"`
	SceneStatus state.SceneStatus `json:"scene_status,omitempty"`

	DeviceID string `json:"device_id,omitempty"`
	Attr     string `json:"attr,omitempty"`
	Value    string `json:"value,omitempty"`

	// Button is the physical remote button name.
	Button string `json:"button,omitempty"`
	// Action is "press", "repeat" or "release".
	Action string `json:"action,omitempty"`

	// Stage is the recording progress stage.
	Stage string `json:"stage,omitempty"`

	// Peer identifies the BLE device asking to pair.
	Peer string `json:"peer,omitempty"`

	// BLEState is the peripheral's new state.
	BLEState string `json:"ble_state,omitempty"`

	Error string `json:"error,omitempty"`
}

// Sink receives orchestrator events. Implementations must tolerate bursts
// and should not block; slow sinks delay only the event fan-out goroutine,
// never command dispatch.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, ev Event) error

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }
