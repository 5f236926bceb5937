package state

import "fmt"

// Transport identifies which actuation path a scene step uses.
type Transport string

// Step transports.
const (
	TransportIR  Transport = "ir"
	TransportBLE Transport = "ble"
)

// CommandRef names the stored command a scene step issues: an IR code name
// from the code repository, or a BLE HID keycode. Resolution to an
// executable command happens in the orchestrator.
type CommandRef struct {
	Transport Transport `yaml:"transport" json:"transport"`
	Name      string    `yaml:"name" json:"name"`
}

// Step is one device-state target within a scene: the attribute value the
// device must reach, and the command that gets it there.
type Step struct {
	DeviceID string     `yaml:"device_id" json:"device_id"`
	Attr     string     `yaml:"attr" json:"attr"`
	Value    string     `yaml:"value" json:"value"`
	Command  CommandRef `yaml:"command" json:"command"`

	// DelayMs is the pause after this step, for devices that need settle
	// time between commands (e.g. a receiver switching inputs).
	DelayMs int `yaml:"delay_ms" json:"delay_ms"`
}

// Scene is a named target device-state configuration. Activating a scene
// issues only the steps whose target the tracker does not already record —
// the minimal diff.
type Scene struct {
	Name string `yaml:"name" json:"name"`

	// Steps to reach the scene's configuration, in order.
	Steps []Step `yaml:"steps" json:"steps"`

	// StopSteps to leave the scene (typically power-offs), in order.
	StopSteps []Step `yaml:"stop_steps" json:"stop_steps"`

	// BluetoothAddress optionally names the bonded BLE peer this scene
	// drives; the orchestrator prepares the peripheral for its reconnect.
	BluetoothAddress string `yaml:"bluetooth_address" json:"bluetooth_address,omitempty"`

	// Keymap optionally names the physical-remote keymap active while
	// this scene runs.
	Keymap string `yaml:"keymap" json:"keymap,omitempty"`
}

// Validate checks structural invariants of a scene definition.
func (s *Scene) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScene)
	}
	for i, st := range s.Steps {
		if st.DeviceID == "" || st.Attr == "" {
			return fmt.Errorf("%w: step %d missing device or attribute", ErrInvalidScene, i)
		}
		if st.Command.Name == "" {
			return fmt.Errorf("%w: step %d missing command", ErrInvalidScene, i)
		}
	}
	return nil
}

// Diff returns the scene steps that must actually be issued given the
// tracker's last-known state. Steps whose target attribute already matches
// are skipped; everything else is returned in scene order.
func (s *Scene) Diff(t *Tracker) []Step {
	var out []Step
	for _, st := range s.Steps {
		if t.Get(st.DeviceID, st.Attr) == st.Value {
			continue
		}
		out = append(out, st)
	}
	return out
}

// StopDiff returns the stop steps needed to leave the scene, skipping
// devices already in their stop-target state and devices listed in keep —
// the next scene reuses those and powering them down would only force a
// pointless off/on cycle.
func (s *Scene) StopDiff(t *Tracker, keep map[string]bool) []Step {
	var out []Step
	for _, st := range s.StopSteps {
		if keep[st.DeviceID] {
			continue
		}
		if t.Get(st.DeviceID, st.Attr) == st.Value {
			continue
		}
		out = append(out, st)
	}
	return out
}

// PoweredDevices returns the set of devices a scene powers on, used when
// switching scenes to decide which devices the outgoing scene must not
// power down.
func (s *Scene) PoweredDevices() map[string]bool {
	out := make(map[string]bool)
	for _, st := range s.Steps {
		if st.Attr == AttrPower && st.Value == "on" {
			out[st.DeviceID] = true
		}
	}
	return out
}
