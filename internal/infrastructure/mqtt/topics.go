package mqtt

import "fmt"

// Topic prefixes for the Equilibrium MQTT surface.
//
// All topics use the flat scheme: equilibrium/{category}/...
const (
	// TopicPrefix is the base for all hub topics.
	TopicPrefix = "equilibrium"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "equilibrium/system"

	// TopicPrefixCommand is the base for inbound command topics.
	TopicPrefixCommand = "equilibrium/command"
)

// Topics provides builders for Equilibrium MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DeviceState("tv-living")
//	// Returns: "equilibrium/device/tv-living/state"
type Topics struct{}

// =============================================================================
// Outbound: hub state and events
// =============================================================================

// DeviceState returns the topic for tracked device state updates.
//
// Example: equilibrium/device/tv-living/state
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/state", TopicPrefix, deviceID)
}

// SceneStatus returns the topic for scene lifecycle transitions.
//
// Example: equilibrium/scene/movie/status
func (Topics) SceneStatus(scene string) string {
	return fmt.Sprintf("%s/scene/%s/status", TopicPrefix, scene)
}

// Event returns the topic for a hub event of the given type.
//
// Example: equilibrium/event/remote_button
func (Topics) Event(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, eventType)
}

// PairingRequest returns the topic for BLE pairing prompts.
//
// Example: equilibrium/pairing/request
func (Topics) PairingRequest() string {
	return fmt.Sprintf("%s/pairing/request", TopicPrefix)
}

// =============================================================================
// Inbound: commands to the hub
// =============================================================================

// CommandSceneActivate returns the topic that activates a scene.
// The payload is the scene name.
//
// Example: equilibrium/command/scene/activate
func (Topics) CommandSceneActivate() string {
	return fmt.Sprintf("%s/scene/activate", TopicPrefixCommand)
}

// CommandSceneDeactivate returns the topic that stops the active scene.
//
// Example: equilibrium/command/scene/deactivate
func (Topics) CommandSceneDeactivate() string {
	return fmt.Sprintf("%s/scene/deactivate", TopicPrefixCommand)
}

// CommandSendIR returns the topic for ad-hoc IR transmissions.
// The payload names the device and stored code.
//
// Example: equilibrium/command/ir/send
func (Topics) CommandSendIR() string {
	return fmt.Sprintf("%s/ir/send", TopicPrefixCommand)
}

// CommandSendKey returns the topic for ad-hoc BLE key presses.
//
// Example: equilibrium/command/ble/key
func (Topics) CommandSendKey() string {
	return fmt.Sprintf("%s/ble/key", TopicPrefixCommand)
}

// CommandPairingConfirm returns the topic for pairing confirmations.
// The payload is "accept" or "reject".
//
// Example: equilibrium/command/pairing/confirm
func (Topics) CommandPairingConfirm() string {
	return fmt.Sprintf("%s/pairing/confirm", TopicPrefixCommand)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic.
//
// Example: equilibrium/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllCommands returns a pattern matching all inbound command topics.
//
// Pattern: equilibrium/command/#
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/#", TopicPrefixCommand)
}

// AllDeviceStates returns a pattern matching all tracked device states.
//
// Pattern: equilibrium/device/+/state
func (Topics) AllDeviceStates() string {
	return fmt.Sprintf("%s/device/+/state", TopicPrefix)
}

// AllEvents returns a pattern matching all hub events.
//
// Pattern: equilibrium/event/+
func (Topics) AllEvents() string {
	return fmt.Sprintf("%s/event/+", TopicPrefix)
}

// AllTopics returns a pattern matching all Equilibrium topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: equilibrium/#
func (Topics) AllTopics() string {
	return "equilibrium/#"
}
