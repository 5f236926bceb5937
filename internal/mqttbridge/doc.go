// Package mqttbridge exposes the hub over MQTT.
//
// Outbound, it implements the orchestrator's event sink: device state,
// scene status, remote-button activity and pairing prompts are published
// on the equilibrium/ topic tree. State-like topics (device state, scene
// status) are retained so late subscribers see the current picture.
//
// Inbound, it subscribes to equilibrium/command/# and translates payloads
// into orchestrator calls: scene activation, ad-hoc IR and BLE key sends,
// and pairing confirmations.
package mqttbridge
