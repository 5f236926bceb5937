// Package queue provides the single-consumer command execution serializer.
//
// All actuation in the hub — IR bursts, BLE key presses, macros — funnels
// through one Queue so that at most one command is ever in flight. The IR
// transmit line and the BLE HID report characteristic are both exclusive
// physical resources; interleaving two transmissions corrupts both.
//
// # Guarantees
//
//   - Commands execute in FIFO order.
//   - At most one command is in flight at any time.
//   - Macro commands execute their children atomically with respect to
//     other top-level commands.
//   - A command's execution failure is reported via its Handle and does not
//     abort subsequent queued commands.
//
// # Cancellation
//
// A command that has not started can be cancelled via its Handle and will
// never execute. Once execution starts, cancellation is advisory: the
// executor receives a context cancelled by Handle.Cancel, and each transport
// decides what it can honour. IR bursts always complete (a truncated burst
// is an invalid code on the wire); BLE key presses may stop between the
// key-down and key-up events.
package queue
