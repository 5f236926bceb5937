package ble

import (
	"context"
	"fmt"
	"sync"
	"time"
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

// State is the peripheral's connection lifecycle position.
type State string

const (
	StateUnpaired           State = "unpaired"
	StateAdvertising        State = "advertising"
	StatePairing            State = "pairing"
	StateBondedDisconnected State = "bonded_disconnected"
	StateConnecting         State = "connecting"
	StateConnected          State = "connected"
	StateDisconnecting      State = "disconnecting"
	StateTerminating        State = "terminating"
)

// Peripheral runs the HID remote emulation: it keeps the GATT application
// registered, supervises the connection to the bonded host and sends input
// reports.
type Peripheral struct {
	cfg     Config
	adapter Adapter
	agent   *pairingAgent
	buttons *buttonState
	log     Logger
	sleep   func(time.Duration)

	mu           sync.Mutex
	state        State
	target       string
	connected    string // address of the connected host, empty when none
	advertising  bool
	running      bool
	shuttingDown bool

	stopCh  chan struct{}
	runDone chan struct{}

	onState   func(State)
	onPairing func(PairingRequest)
}

// New builds a peripheral backed by the system bus.
func New(cfg Config) (*Peripheral, error) {
	if err := cfg.validateDwellFloors(); err != nil {
		return nil, err
	}
	p, err := newPeripheral(cfg)
	if err != nil {
		return nil, err
	}
	adapter, err := OpenAdapter(cfg, p.buttons, p.agent, p.log)
	if err != nil {
		return nil, err
	}
	p.adapter = adapter
	return p, nil
}

// NewWithAdapter builds a peripheral over a caller-supplied adapter.
func NewWithAdapter(adapter Adapter, cfg Config) (*Peripheral, error) {
	p, err := newPeripheral(cfg)
	if err != nil {
		return nil, err
	}
	p.adapter = adapter
	return p, nil
}

func newPeripheral(cfg Config) (*Peripheral, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Peripheral{
		cfg:     cfg,
		buttons: &buttonState{},
		log:     noopLogger{},
		sleep:   time.Sleep,
		state:   StateUnpaired,
		stopCh:  make(chan struct{}),
		runDone: make(chan struct{}),
	}
	p.agent = newPairingAgent(p.log, cfg.PairingTimeout, p.firePairing)
	return p, nil
}

// SetLogger sets the logger. Call before Run.
func (p *Peripheral) SetLogger(log Logger) {
	if log != nil {
		p.log = log
		p.agent.log = log
	}
}

// OnStateChange registers a callback invoked on every transition. Call
// before Run.
func (p *Peripheral) OnStateChange(fn func(State)) {
	p.onState = fn
}

// OnPairingRequest registers a callback invoked when a host asks to bond.
// Call before Run.
func (p *Peripheral) OnPairingRequest(fn func(PairingRequest)) {
	p.onPairing = fn
}

// State returns the current lifecycle state.
func (p *Peripheral) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// ConnectedHost returns the address of the connected host, if any.
func (p *Peripheral) ConnectedHost() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// SetTarget nominates the bonded host the supervisor should prefer, taken
// from the active scene.
func (p *Peripheral) SetTarget(address string) {
	p.mu.Lock()
	p.target = address
	p.mu.Unlock()
}

// ConfirmPairing answers the outstanding pairing prompt.
func (p *Peripheral) ConfirmPairing(accept bool) error {
	return p.agent.Confirm(accept)
}

func (p *Peripheral) firePairing(req PairingRequest) {
	p.setState(StatePairing)
	if p.onPairing != nil {
		p.onPairing(req)
	}
}

// Run registers the application, starts advertising and supervises the
// connection until the context is cancelled or Shutdown stops it. Teardown
// is not performed here; call Shutdown for the bonding-safe sequence.
func (p *Peripheral) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrPeripheralRunning
	}
	p.running = true
	p.mu.Unlock()
	defer close(p.runDone)

	if err := p.adapter.Setup(ctx); err != nil {
		return err
	}
	if err := p.adapter.ExportApplication(ctx); err != nil {
		return err
	}
	if err := p.adapter.StartAdvertising(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	p.advertising = true
	p.mu.Unlock()
	p.setState(StateAdvertising)
	p.log.Info("ble peripheral ready", "name", p.cfg.Name, "adapter", p.cfg.Adapter)

	ticker := time.NewTicker(p.cfg.SupervisorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			p.reconcile(ctx)
		}
	}
}

// reconcile refreshes device state: trusts fresh bonds, tracks the
// connected host and restores the advertisement after disconnects.
func (p *Peripheral) reconcile(ctx context.Context) {
	if p.isShuttingDown() {
		return
	}

	devices, err := p.adapter.Devices(ctx)
	if err != nil {
		p.log.Error("device enumeration failed", "error", err)
		return
	}

	var connected string
	bonded := false
	for _, d := range devices {
		if d.Paired {
			bonded = true
			// Trusted devices may reconnect without re-authorizing; without
			// this TV hosts drop off after every standby cycle.
			if !d.Trusted {
				if err := p.adapter.Trust(ctx, d.Address); err != nil {
					p.log.Warn("trust failed", "address", d.Address, "error", err)
				} else {
					p.log.Info("device trusted", "address", d.Address)
				}
			}
		}
		if d.Connected && connected == "" {
			connected = d.Address
		}
	}

	p.mu.Lock()
	p.connected = connected
	advertising := p.advertising
	p.mu.Unlock()

	switch {
	case connected != "":
		p.setState(StateConnected)
	case !advertising:
		if err := p.adapter.StartAdvertising(ctx); err != nil {
			p.log.Error("re-advertise failed", "error", err)
			return
		}
		p.mu.Lock()
		p.advertising = true
		p.mu.Unlock()
		p.setState(StateAdvertising)
	case bonded:
		p.setState(StateBondedDisconnected)
	}
}

// Connect initiates a connection to the bonded host, typically on scene
// activation.
func (p *Peripheral) Connect(ctx context.Context, address string) error {
	if p.isShuttingDown() {
		return ErrShutdownInProgress
	}
	p.SetTarget(address)
	p.setState(StateConnecting)
	if err := p.adapter.Connect(ctx, address); err != nil {
		p.setState(StateBondedDisconnected)
		return err
	}
	p.mu.Lock()
	p.connected = address
	p.mu.Unlock()
	p.setState(StateConnected)
	return nil
}

// Disconnect drops the link to the connected host, typically on scene
// deactivation.
func (p *Peripheral) Disconnect(ctx context.Context) error {
	if p.isShuttingDown() {
		return ErrShutdownInProgress
	}
	p.mu.Lock()
	host := p.connected
	p.mu.Unlock()
	if host == "" {
		return nil
	}

	p.setState(StateDisconnecting)
	err := p.adapter.Disconnect(ctx, host)
	p.mu.Lock()
	p.connected = ""
	p.mu.Unlock()
	p.setState(StateBondedDisconnected)
	return err
}

// SendKey presses the named key, holds it and releases it. The release is
// always sent: cancellation mid-hold releases early rather than leaving
// the key stuck on the host. Only the named key is released, so a key held
// through PressKey stays down.
func (p *Peripheral) SendKey(ctx context.Context, name string, hold time.Duration) error {
	bit, err := buttonBit(name)
	if err != nil {
		return err
	}
	if err := p.PressKey(name); err != nil {
		return err
	}
	if hold <= 0 {
		hold = p.cfg.KeyHold
	}

	timer := time.NewTimer(hold)
	defer timer.Stop()
	var cancelled error
	select {
	case <-ctx.Done():
		cancelled = ctx.Err()
	case <-timer.C:
	}

	report := p.buttons.release(bit)
	if err := p.adapter.NotifyInputReport(report); err != nil {
		return fmt.Errorf("ble: notify release %q: %w", name, err)
	}
	return cancelled
}

// PressKey sets the key's bit in the input report and notifies the host.
func (p *Peripheral) PressKey(name string) error {
	if p.isShuttingDown() {
		return ErrShutdownInProgress
	}
	bit, err := buttonBit(name)
	if err != nil {
		return err
	}
	p.mu.Lock()
	host := p.connected
	p.mu.Unlock()
	if host == "" {
		return ErrNotConnected
	}

	report := p.buttons.press(bit)
	if err := p.adapter.NotifyInputReport(report); err != nil {
		return fmt.Errorf("ble: notify press %q: %w", name, err)
	}
	p.log.Debug("key pressed", "key", name)
	return nil
}

// ReleaseAll clears the input report and notifies the host.
func (p *Peripheral) ReleaseAll() error {
	report := p.buttons.releaseAll()
	if err := p.adapter.NotifyInputReport(report); err != nil {
		return fmt.Errorf("ble: notify release: %w", err)
	}
	p.log.Debug("all keys released")
	return nil
}

// Shutdown runs the bonding-safe teardown. The order and the pauses are
// load-bearing: withdraw the advertisement, wait, disconnect the host
// locally, wait, then unexport the GATT tree. Once started the sequence
// always runs to completion; it cannot be cancelled.
func (p *Peripheral) Shutdown() error {
	p.mu.Lock()
	if p.shuttingDown {
		p.mu.Unlock()
		return ErrShutdownInProgress
	}
	p.shuttingDown = true
	running := p.running
	p.mu.Unlock()

	ctx := context.Background()

	// Step 1: stop the supervisor so it cannot re-advertise mid-teardown.
	if running {
		close(p.stopCh)
		<-p.runDone
	}

	// Snapshot the host only after the supervisor has stopped: a reconcile
	// tick in flight can record a fresh connection right up until runDone
	// closes, and skipping the local disconnect for a live link would leave
	// the host to discover the vanished services by timeout.
	p.mu.Lock()
	host := p.connected
	p.mu.Unlock()

	if host != "" {
		p.setState(StateDisconnecting)
	} else {
		p.setState(StateTerminating)
	}

	var firstErr error
	record := func(err error) {
		if err != nil {
			p.log.Error("shutdown step failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	// Step 2: withdraw the advertisement.
	p.mu.Lock()
	advertising := p.advertising
	p.advertising = false
	p.mu.Unlock()
	if advertising {
		record(p.adapter.StopAdvertising(ctx))
	}

	// Step 3: let the host observe the withdrawal before the link drops.
	p.sleep(p.cfg.DisconnectDwell)

	// Step 4: disconnect locally so the host sees a clean link teardown
	// instead of a timeout.
	if host != "" {
		record(p.adapter.Disconnect(ctx, host))
		p.setState(StateTerminating)
	}

	// Step 5: give the host time to settle before the services vanish.
	p.sleep(p.cfg.UnexportDwell)

	// Step 6: unexport the GATT application.
	record(p.adapter.UnexportApplication(ctx))
	record(p.adapter.Close())

	p.log.Info("ble peripheral shut down")
	return firstErr
}

func (p *Peripheral) isShuttingDown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shuttingDown
}

func (p *Peripheral) setState(s State) {
	p.mu.Lock()
	if p.state == s {
		p.mu.Unlock()
		return
	}
	old := p.state
	p.state = s
	p.mu.Unlock()

	p.log.Debug("state changed", "from", string(old), "to", string(s))
	if p.onState != nil {
		p.onState(s)
	}
}
