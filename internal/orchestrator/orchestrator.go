package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wehrfritz/equilibrium-core/internal/ircodec"
	"github.com/wehrfritz/equilibrium-core/internal/irstore"
	"github.com/wehrfritz/equilibrium-core/internal/irtrans"
	"github.com/wehrfritz/equilibrium-core/internal/queue"
	"github.com/wehrfritz/equilibrium-core/internal/rf"
	"github.com/wehrfritz/equilibrium-core/internal/state"
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// IRTransport is the orchestrator's view of the IR hardware.
type IRTransport interface {
	Send(ctx context.Context, seq ircodec.TimingSequence) error
	StartRepeating(seq ircodec.TimingSequence) error
	StopRepeating() error
}

// IRRecorder learns a new IR code.
type IRRecorder interface {
	Record(ctx context.Context) (ircodec.TimingSequence, error)
}

// Remote is the orchestrator's view of the BLE HID peripheral.
type Remote interface {
	SendKey(ctx context.Context, name string, hold time.Duration) error
	PressKey(name string) error
	ReleaseAll() error
	Connect(ctx context.Context, address string) error
	Disconnect(ctx context.Context) error
	ConfirmPairing(accept bool) error
}

// Status is a point-in-time report of the hub.
type Status struct {
	Scene       string                       `json:"scene,omitempty"`
	SceneStatus state.SceneStatus            `json:"scene_status,omitempty"`
	BLEState    string                       `json:"ble_state,omitempty"`
	LastError   string                       `json:"last_error,omitempty"`
	Devices     map[string]state.DeviceState `json:"devices"`
	QueueDepth  int                          `json:"queue_depth"`
}

// Options collects the orchestrator's collaborators.
type Options struct {
	Config   Config
	Queue    *queue.Queue
	IR       IRTransport
	Recorder IRRecorder
	Remote   Remote
	Codes    irstore.Repository
	Logger   Logger
}

// Orchestrator coordinates the hub's subsystems.
type Orchestrator struct {
	cfg      Config
	log      Logger
	queue    *queue.Queue
	ir       IRTransport
	recorder IRRecorder
	remote   Remote
	codes    irstore.Repository
	tracker  *state.Tracker

	scenes map[string]*state.Scene

	// sceneMu serialises scene transitions; the command queue serialises
	// the transmissions within them.
	sceneMu sync.Mutex

	mu           sync.Mutex
	activeKeymap Keymap
	recording    bool
	bleState     string
	lastErr      string

	sinkMu sync.Mutex
	sinks  []Sink
	events chan Event
}

// New builds an orchestrator and registers the queue executors.
func New(opts Options) (*Orchestrator, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Queue == nil {
		return nil, fmt.Errorf("orchestrator: queue is required")
	}

	log := opts.Logger
	if log == nil {
		log = noopLogger{}
	}

	o := &Orchestrator{
		cfg:      opts.Config,
		log:      log,
		queue:    opts.Queue,
		ir:       opts.IR,
		recorder: opts.Recorder,
		remote:   opts.Remote,
		codes:    opts.Codes,
		tracker:  state.NewTracker(),
		scenes:   make(map[string]*state.Scene, len(opts.Config.Scenes)),
		events:   make(chan Event, 128),
	}
	for i := range opts.Config.Scenes {
		s := &opts.Config.Scenes[i]
		o.scenes[s.Name] = s
	}
	if opts.Config.DefaultKeymap != "" {
		o.activeKeymap = opts.Config.Keymaps[opts.Config.DefaultKeymap]
	}

	o.queue.RegisterExecutor(queue.KindSendIR, queue.ExecutorFunc(o.executeIR))
	o.queue.RegisterExecutor(queue.KindSendBLEKey, queue.ExecutorFunc(o.executeBLEKey))
	o.queue.SetOnComplete(o.commandCompleted)

	return o, nil
}

// AddSink registers an event sink. Call before Run.
func (o *Orchestrator) AddSink(s Sink) {
	o.sinkMu.Lock()
	o.sinks = append(o.sinks, s)
	o.sinkMu.Unlock()
}

// Run drives the queue, the event fan-out and the remote event stream
// until the context is cancelled.
func (o *Orchestrator) Run(ctx context.Context, remoteEvents <-chan rf.Event) error {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		o.queue.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		o.fanOut(ctx)
	}()
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-remoteEvents:
			if !ok {
				return nil
			}
			o.handleRemoteEvent(ev)
		}
	}
}

// --- queue executors ---

func (o *Orchestrator) executeIR(ctx context.Context, cmd queue.Command) error {
	if o.ir == nil {
		return fmt.Errorf("orchestrator: ir transport not configured")
	}
	seq := cmd.IR.Code.Sequence
	for i := 0; i <= cmd.IR.Repeat; i++ {
		if err := o.ir.Send(ctx, seq); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) executeBLEKey(ctx context.Context, cmd queue.Command) error {
	if o.remote == nil {
		return fmt.Errorf("orchestrator: ble remote not configured")
	}
	return o.remote.SendKey(ctx, cmd.BLEKey.Keycode, cmd.BLEKey.Hold)
}

func (o *Orchestrator) commandCompleted(c queue.Completion) {
	ev := Event{
		Type:          EventCommand,
		CorrelationID: c.ID,
		Command:       c.Name,
		Value:         string(c.Kind),
		DurationMs:    float64(c.Duration) / float64(time.Millisecond),
	}
	if c.Err != nil {
		ev.Error = c.Err.Error()
		o.mu.Lock()
		o.lastErr = ev.Error
		o.mu.Unlock()
	}
	o.publish(ev)
}

// HandleBLEState records and publishes a peripheral state transition.
// Wired as the peripheral's OnStateChange callback.
func (o *Orchestrator) HandleBLEState(s string) {
	o.mu.Lock()
	o.bleState = s
	o.mu.Unlock()
	o.publish(Event{Type: EventBLEState, BLEState: s})
}

// --- direct operations ---

// SendIR looks up a stored code and queues a transmission.
func (o *Orchestrator) SendIR(ctx context.Context, deviceID, name string, repeat int) (*queue.Handle, error) {
	stored, err := o.codes.Get(ctx, deviceID, name)
	if err != nil {
		return nil, err
	}
	return o.queue.Enqueue(queue.SendIR(stored.Code(), repeat))
}

// SendBLEKey queues a HID key press.
func (o *Orchestrator) SendBLEKey(key string, hold time.Duration) (*queue.Handle, error) {
	return o.queue.Enqueue(queue.SendBLEKey(key, hold))
}

// RunMacro queues an atomic command sequence.
func (o *Orchestrator) RunMacro(children []queue.Command, delays []time.Duration) (*queue.Handle, error) {
	return o.queue.Enqueue(queue.Macro(children, delays))
}

// RecordIR runs the learn procedure and persists the result. Only one
// recording can run at a time.
func (o *Orchestrator) RecordIR(ctx context.Context, deviceID, name string) (*irstore.StoredCode, error) {
	if o.recorder == nil {
		return nil, fmt.Errorf("orchestrator: ir recorder not configured")
	}

	o.mu.Lock()
	if o.recording {
		o.mu.Unlock()
		return nil, ErrRecordingBusy
	}
	o.recording = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.recording = false
		o.mu.Unlock()
	}()

	o.publish(Event{Type: EventRecording, DeviceID: deviceID, Value: name, Stage: "started"})

	// Surface the recorder's press prompts so a UI can guide the user
	// through the two-press ritual.
	if pr, ok := o.recorder.(interface{ OnProgress(func(stage string)) }); ok {
		pr.OnProgress(func(stage string) {
			o.publish(Event{Type: EventRecording, DeviceID: deviceID, Value: name, Stage: stage})
		})
		defer pr.OnProgress(nil)
	}

	seq, err := o.recorder.Record(ctx)
	if err != nil {
		o.publish(Event{Type: EventRecording, DeviceID: deviceID, Value: name, Stage: "failed", Error: err.Error()})
		return nil, err
	}

	stored := &irstore.StoredCode{
		DeviceID: deviceID,
		Name:     name,
		Protocol: ircodec.Decode(seq).Protocol,
		Sequence: seq,
	}
	if err := o.codes.Save(ctx, stored); err != nil {
		o.publish(Event{Type: EventRecording, DeviceID: deviceID, Value: name, Stage: "failed", Error: err.Error()})
		return nil, err
	}

	o.publish(Event{Type: EventRecording, DeviceID: deviceID, Value: name, Stage: "done"})
	o.log.Info("ir code learned", "device", deviceID, "name", name, "protocol", string(stored.Protocol))
	return stored, nil
}

// ConfirmPairing forwards the user's pairing decision to the peripheral.
func (o *Orchestrator) ConfirmPairing(accept bool) error {
	if o.remote == nil {
		return fmt.Errorf("orchestrator: ble remote not configured")
	}
	return o.remote.ConfirmPairing(accept)
}

// HandlePairingRequest publishes a pairing prompt to the event sinks.
// Wired as the peripheral's OnPairingRequest callback.
func (o *Orchestrator) HandlePairingRequest(peer string) {
	o.publish(Event{Type: EventPairing, Peer: peer})
}

// Status reports the hub's current state.
func (o *Orchestrator) Status() Status {
	scene, status := o.tracker.ActiveScene()
	o.mu.Lock()
	bleState, lastErr := o.bleState, o.lastErr
	o.mu.Unlock()
	return Status{
		Scene:       scene,
		SceneStatus: status,
		BLEState:    bleState,
		LastError:   lastErr,
		Devices:     o.tracker.Snapshot(),
		QueueDepth:  o.queue.Depth(),
	}
}

// --- physical remote ---

func (o *Orchestrator) handleRemoteEvent(ev rf.Event) {
	switch ev.Type {
	case rf.EventPress:
		o.publish(Event{Type: EventRemoteButton, Button: ev.Key, Action: "press"})
		o.handlePress(ev.Key)
	case rf.EventRepeat:
		// The IR transport repeats and the BLE key stays held on its own;
		// the wire-level repeat only confirms the button is still down.
		o.publish(Event{Type: EventRemoteButton, Button: ev.Key, Action: "repeat"})
	case rf.EventRelease:
		o.publish(Event{Type: EventRemoteButton, Button: ev.Key, Action: "release"})
		o.handleRelease()
	case rf.EventSleep, rf.EventWake:
		o.log.Debug("remote power event", "type", string(ev.Type))
	}
}

func (o *Orchestrator) handlePress(button string) {
	if o.cfg.OffButton != "" && button == o.cfg.OffButton {
		go func() {
			if err := o.DeactivateScene(context.Background()); err != nil &&
				!errors.Is(err, state.ErrNoActiveScene) {
				o.log.Error("scene stop from remote failed", "error", err)
			}
		}()
		return
	}

	if scene, ok := o.cfg.SceneButtons[button]; ok {
		go func() {
			if err := o.ActivateScene(context.Background(), scene); err != nil {
				o.log.Error("scene start from remote failed", "scene", scene, "error", err)
			}
		}()
		return
	}

	o.mu.Lock()
	binding, ok := o.activeKeymap[button]
	o.mu.Unlock()
	if !ok {
		o.log.Debug("unbound button", "button", button)
		return
	}

	if err := o.pressBinding(binding); err != nil {
		o.log.Error("button dispatch failed", "button", button, "error", err)
	}
}

// pressBinding starts the press-and-hold action for a binding. The action
// runs until handleRelease.
func (o *Orchestrator) pressBinding(b KeyBinding) error {
	switch b.Transport {
	case state.TransportIR:
		stored, err := o.codes.Get(context.Background(), b.DeviceID, b.Command)
		if err != nil {
			return err
		}
		return o.ir.StartRepeating(stored.Sequence)
	case state.TransportBLE:
		return o.remote.PressKey(b.Command)
	default:
		return fmt.Errorf("%w: transport %q", ErrUnknownBinding, b.Transport)
	}
}

// handleRelease stops whatever the last press started. Both paths are
// safe to call when idle.
func (o *Orchestrator) handleRelease() {
	if o.ir != nil {
		if err := o.ir.StopRepeating(); err != nil && !errors.Is(err, irtrans.ErrNotRepeating) {
			o.log.Error("stop ir repeat failed", "error", err)
		}
	}
	if o.remote != nil {
		if err := o.remote.ReleaseAll(); err != nil {
			o.log.Error("ble release failed", "error", err)
		}
	}
}

// --- event fan-out ---

func (o *Orchestrator) publish(ev Event) {
	ev.Time = time.Now()
	select {
	case o.events <- ev:
	default:
		o.log.Warn("event dropped, sink backlog full", "type", string(ev.Type))
	}
}

func (o *Orchestrator) fanOut(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-o.events:
			o.sinkMu.Lock()
			sinks := make([]Sink, len(o.sinks))
			copy(sinks, o.sinks)
			o.sinkMu.Unlock()

			for _, s := range sinks {
				if err := s.Publish(ctx, ev); err != nil {
					o.log.Warn("event sink failed", "type", string(ev.Type), "error", err)
				}
			}
		}
	}
}
