package history

import (
	"context"

	"github.com/wehrfritz/equilibrium-core/internal/orchestrator"
	"github.com/wehrfritz/equilibrium-core/internal/queue"
)

// Writer is the subset of the InfluxDB client the recorder needs.
type Writer interface {
	WriteCommandDispatch(transport string, name string, durationMs float64, success bool)
	WriteDeviceState(deviceID string, attr string, value string)
	WriteSceneTransition(scene string, status string)
	WriteButtonEvent(button string, action string)
}

// Recorder translates orchestrator events into time-series points.
type Recorder struct {
	w Writer
}

// NewRecorder creates a recorder writing through w.
func NewRecorder(w Writer) *Recorder {
	return &Recorder{w: w}
}

// Publish records one event. It never blocks and never returns an error;
// unrecognized event types are ignored.
func (r *Recorder) Publish(_ context.Context, ev orchestrator.Event) error {
	switch ev.Type {
	case orchestrator.EventCommand:
		r.w.WriteCommandDispatch(transportFor(ev.Value), ev.Command, ev.DurationMs, ev.Error == "")
	case orchestrator.EventDeviceState:
		r.w.WriteDeviceState(ev.DeviceID, ev.Attr, ev.Value)
	case orchestrator.EventScene:
		r.w.WriteSceneTransition(ev.Scene, string(ev.SceneStatus))
	case orchestrator.EventRemoteButton:
		r.w.WriteButtonEvent(ev.Button, ev.Action)
	}
	return nil
}

// transportFor maps a queue command kind to its transport tag.
func transportFor(kind string) string {
	switch queue.Kind(kind) {
	case queue.KindSendIR:
		return "ir"
	case queue.KindSendBLEKey:
		return "ble"
	case queue.KindMacro:
		return "macro"
	default:
		return kind
	}
}
