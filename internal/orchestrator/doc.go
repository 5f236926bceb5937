// Package orchestrator wires the hub together: it owns the command queue,
// resolves scene and keymap configuration, reacts to physical remote
// events and fans state changes out to event sinks.
//
// Discrete commands (scene macros, API sends) serialize through the queue.
// Held-button streaming from the physical remote bypasses it: a press
// starts the IR repeat or BLE key hold immediately and the matching
// release stops it, mirroring how a real remote behaves. The IR transport
// serializes bursts internally so the two paths cannot interleave frames.
package orchestrator
