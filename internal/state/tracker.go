package state

import (
	"sync"
	"time"
)

// Well-known device attributes. Attribute names are free-form strings; these
// two have diffing semantics the scene engine understands specially.
const (
	// AttrPower is the device power attribute ("on"/"off").
	AttrPower = "power"

	// AttrInput is the active input selection (e.g. "hdmi1").
	AttrInput = "input"
)

// AttrValue is a recorded attribute value with its dispatch timestamp.
type AttrValue struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeviceState is the last-known attribute map for one device.
type DeviceState map[string]AttrValue

// Tracker holds last-known state for all devices the hub drives.
//
// Only the orchestrator mutates the tracker, and only after a command has
// been confirmed dispatched. Reads come from any goroutine (status requests
// arrive on HTTP handler goroutines), so access is guarded internally.
type Tracker struct {
	mu      sync.RWMutex
	devices map[string]DeviceState

	activeScene string
	sceneStatus SceneStatus
}

// SceneStatus describes the lifecycle of the active scene.
type SceneStatus string

// Scene lifecycle states.
const (
	SceneInactive SceneStatus = "inactive"
	SceneStarting SceneStatus = "starting"
	SceneActive   SceneStatus = "active"
	SceneStopping SceneStatus = "stopping"
	SceneFailed   SceneStatus = "failed"
)

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		devices:     make(map[string]DeviceState),
		sceneStatus: SceneInactive,
	}
}

// Apply records that deviceID was commanded into attr=value.
func (t *Tracker) Apply(deviceID, attr, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apply(deviceID, attr, value)
}

func (t *Tracker) apply(deviceID, attr, value string) {
	ds, ok := t.devices[deviceID]
	if !ok {
		ds = make(DeviceState)
		t.devices[deviceID] = ds
	}
	ds[attr] = AttrValue{Value: value, UpdatedAt: time.Now().UTC()}
}

// TogglePower flips the recorded power attribute for deviceID. An unknown
// device is assumed off, so the first toggle records "on".
func (t *Tracker) TogglePower(deviceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.get(deviceID, AttrPower) == "on" {
		t.apply(deviceID, AttrPower, "off")
	} else {
		t.apply(deviceID, AttrPower, "on")
	}
}

// Get returns the recorded value of attr for deviceID, or "" when unknown.
func (t *Tracker) Get(deviceID, attr string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.get(deviceID, attr)
}

func (t *Tracker) get(deviceID, attr string) string {
	if ds, ok := t.devices[deviceID]; ok {
		if av, ok := ds[attr]; ok {
			return av.Value
		}
	}
	return ""
}

// Snapshot returns a deep copy of all device states for status reporting.
func (t *Tracker) Snapshot() map[string]DeviceState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]DeviceState, len(t.devices))
	for id, ds := range t.devices {
		cp := make(DeviceState, len(ds))
		for k, v := range ds {
			cp[k] = v
		}
		out[id] = cp
	}
	return out
}

// ActiveScene returns the name of the active scene ("" when none) and its
// status.
func (t *Tracker) ActiveScene() (string, SceneStatus) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.activeScene, t.sceneStatus
}

// SetScene records the active scene and its lifecycle status.
func (t *Tracker) SetScene(name string, status SceneStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.activeScene = name
	t.sceneStatus = status
}

// ClearScene marks no scene active.
func (t *Tracker) ClearScene() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.activeScene = ""
	t.sceneStatus = SceneInactive
}
