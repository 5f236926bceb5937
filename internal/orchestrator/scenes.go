package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/wehrfritz/equilibrium-core/internal/queue"
	"github.com/wehrfritz/equilibrium-core/internal/state"
)

// ActivateScene drives the device fleet to the named scene's configuration.
// If another scene is active it is stopped first, keeping the devices the
// new scene also powers. Only the commands needed to close the gap between
// tracked and target state are issued.
func (o *Orchestrator) ActivateScene(ctx context.Context, name string) error {
	scene, ok := o.scenes[name]
	if !ok {
		return fmt.Errorf("%w: %q", state.ErrSceneNotFound, name)
	}

	o.sceneMu.Lock()
	defer o.sceneMu.Unlock()

	current, _ := o.tracker.ActiveScene()
	if current == name {
		return nil
	}
	if current != "" {
		if err := o.stopSceneLocked(ctx, current, scene.PoweredDevices()); err != nil {
			return err
		}
	}

	o.tracker.SetScene(name, state.SceneStarting)
	o.publish(Event{Type: EventScene, Scene: name, SceneStatus: state.SceneStarting})

	if scene.BluetoothAddress != "" && o.remote != nil {
		if err := o.remote.Connect(ctx, scene.BluetoothAddress); err != nil {
			// The supervisor retries in the background; the IR side of the
			// scene must not stall on a slow BLE host.
			o.log.Warn("scene ble connect failed", "scene", name, "peer", scene.BluetoothAddress, "error", err)
		}
	}

	if err := o.runSteps(ctx, scene.Diff(o.tracker)); err != nil {
		o.tracker.SetScene(name, state.SceneFailed)
		o.publish(Event{Type: EventScene, Scene: name, SceneStatus: state.SceneFailed, Error: err.Error()})
		return fmt.Errorf("orchestrator: scene %q: %w", name, err)
	}

	if scene.Keymap != "" {
		o.setKeymap(scene.Keymap)
	}

	o.tracker.SetScene(name, state.SceneActive)
	o.publish(Event{Type: EventScene, Scene: name, SceneStatus: state.SceneActive})
	o.log.Info("scene active", "scene", name)
	return nil
}

// DeactivateScene stops the active scene, powering down its devices.
func (o *Orchestrator) DeactivateScene(ctx context.Context) error {
	o.sceneMu.Lock()
	defer o.sceneMu.Unlock()

	current, _ := o.tracker.ActiveScene()
	if current == "" {
		return state.ErrNoActiveScene
	}
	return o.stopSceneLocked(ctx, current, nil)
}

// stopSceneLocked runs the outgoing scene's stop steps, skipping devices in
// keep, and resets the keymap and BLE target. Caller holds sceneMu.
func (o *Orchestrator) stopSceneLocked(ctx context.Context, name string, keep map[string]bool) error {
	scene, ok := o.scenes[name]
	if !ok {
		o.tracker.ClearScene()
		return fmt.Errorf("%w: %q", state.ErrSceneNotFound, name)
	}

	o.tracker.SetScene(name, state.SceneStopping)
	o.publish(Event{Type: EventScene, Scene: name, SceneStatus: state.SceneStopping})

	if scene.BluetoothAddress != "" && o.remote != nil {
		if err := o.remote.Disconnect(ctx); err != nil {
			o.log.Warn("scene ble disconnect failed", "scene", name, "error", err)
		}
	}

	if err := o.runSteps(ctx, scene.StopDiff(o.tracker, keep)); err != nil {
		o.tracker.SetScene(name, state.SceneFailed)
		o.publish(Event{Type: EventScene, Scene: name, SceneStatus: state.SceneFailed, Error: err.Error()})
		return fmt.Errorf("orchestrator: stop scene %q: %w", name, err)
	}

	o.setKeymap(o.cfg.DefaultKeymap)
	o.tracker.ClearScene()
	o.publish(Event{Type: EventScene, Scene: name, SceneStatus: state.SceneInactive})
	o.log.Info("scene stopped", "scene", name)
	return nil
}

// runSteps resolves the steps to queue commands, runs them as one macro and
// records the resulting device states on success.
func (o *Orchestrator) runSteps(ctx context.Context, steps []state.Step) error {
	if len(steps) == 0 {
		return nil
	}

	commands := make([]queue.Command, 0, len(steps))
	delays := make([]time.Duration, 0, len(steps))
	for _, st := range steps {
		cmd, err := o.resolveStep(ctx, st)
		if err != nil {
			return err
		}
		commands = append(commands, cmd)
		delays = append(delays, time.Duration(st.DelayMs)*time.Millisecond)
	}

	h, err := o.queue.Enqueue(queue.Macro(commands, delays))
	if err != nil {
		return err
	}
	if err := h.Wait(ctx); err != nil {
		return err
	}

	for _, st := range steps {
		o.tracker.Apply(st.DeviceID, st.Attr, st.Value)
		o.publish(Event{Type: EventDeviceState, DeviceID: st.DeviceID, Attr: st.Attr, Value: st.Value})
	}
	return nil
}

func (o *Orchestrator) resolveStep(ctx context.Context, st state.Step) (queue.Command, error) {
	switch st.Command.Transport {
	case state.TransportIR:
		stored, err := o.codes.Get(ctx, st.DeviceID, st.Command.Name)
		if err != nil {
			return queue.Command{}, fmt.Errorf("step %s/%s: %w", st.DeviceID, st.Command.Name, err)
		}
		return queue.SendIR(stored.Code(), 0), nil
	case state.TransportBLE:
		return queue.SendBLEKey(st.Command.Name, 0), nil
	default:
		return queue.Command{}, fmt.Errorf("%w: transport %q", ErrUnknownBinding, st.Command.Transport)
	}
}

func (o *Orchestrator) setKeymap(name string) {
	km, ok := o.cfg.Keymaps[name]
	if !ok && name != "" {
		o.log.Warn("unknown keymap", "name", name)
		return
	}
	o.mu.Lock()
	o.activeKeymap = km
	o.mu.Unlock()
}
