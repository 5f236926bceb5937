// Package history records hub activity to a time-series store.
//
// It adapts the orchestrator event stream to the InfluxDB client:
// command dispatch outcomes, tracked device state changes, scene
// transitions, and physical remote button activity all become measurement
// points. Events that carry no history value (pairing prompts, IR learn
// progress) are ignored.
//
// The Recorder satisfies the orchestrator's Sink interface and never
// returns an error; the underlying writes are non-blocking and batched,
// and write failures surface through the InfluxDB client's error callback.
package history
