// Package state provides the in-memory device and scene state model.
//
// The hub has no feedback channel from most IR-controlled devices, so the
// tracker records the last state each device was *commanded* into, not a
// confirmed state. Scene activation uses this model to compute the minimal
// diff of commands needed to reach a target configuration: a television the
// tracker believes is already powered on is not sent another power toggle.
//
// # Ownership
//
// The Tracker is passed to the orchestrator at construction and mutated only
// there, after a command has been confirmed dispatched. Readers get
// snapshot copies; nothing shares the internal maps.
package state
