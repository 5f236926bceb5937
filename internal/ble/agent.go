package ble

import (
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

// PairingRequest describes a host asking to bond. Passkey is only set for
// numeric-comparison pairing.
type PairingRequest struct {
	Device     string
	Passkey    uint32
	HasPasskey bool
}

// pairingAgent implements org.bluez.Agent1 with DisplayYesNo capability.
// Confirmation requests block until the user answers via Confirm or the
// timeout elapses; either way BlueZ gets a definite reply.
type pairingAgent struct {
	log     Logger
	timeout time.Duration
	// onPrompt surfaces the request to the rest of the system.
	onPrompt func(PairingRequest)

	mu      sync.Mutex
	pending chan bool
}

func newPairingAgent(log Logger, timeout time.Duration, onPrompt func(PairingRequest)) *pairingAgent {
	return &pairingAgent{log: log, timeout: timeout, onPrompt: onPrompt}
}

// Confirm answers the outstanding pairing prompt.
func (a *pairingAgent) Confirm(accept bool) error {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	if pending == nil {
		return ErrNoPendingPairing
	}
	pending <- accept
	return nil
}

// await publishes the prompt and blocks for the user's decision.
func (a *pairingAgent) await(req PairingRequest) (bool, error) {
	ch := make(chan bool, 1)

	a.mu.Lock()
	if a.pending != nil {
		a.mu.Unlock()
		return false, fmt.Errorf("ble: pairing prompt already outstanding")
	}
	a.pending = ch
	a.mu.Unlock()

	if a.onPrompt != nil {
		a.onPrompt(req)
	}

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	select {
	case accept := <-ch:
		return accept, nil
	case <-timer.C:
		a.mu.Lock()
		if a.pending == ch {
			a.pending = nil
		}
		a.mu.Unlock()
		return false, ErrPairingTimeout
	}
}

var errRejected = dbus.NewError("org.bluez.Error.Rejected", nil)

// --- org.bluez.Agent1 ---

func (a *pairingAgent) Release() *dbus.Error {
	a.log.Debug("pairing agent released")
	return nil
}

func (a *pairingAgent) RequestConfirmation(device dbus.ObjectPath, passkey uint32) *dbus.Error {
	a.log.Info("pairing confirmation requested", "device", string(device), "passkey", passkey)
	ok, err := a.await(PairingRequest{Device: string(device), Passkey: passkey, HasPasskey: true})
	if err != nil || !ok {
		a.log.Warn("pairing rejected", "device", string(device), "error", err)
		return errRejected
	}
	return nil
}

func (a *pairingAgent) RequestAuthorization(device dbus.ObjectPath) *dbus.Error {
	a.log.Info("connection authorization requested", "device", string(device))
	ok, err := a.await(PairingRequest{Device: string(device)})
	if err != nil || !ok {
		a.log.Warn("authorization rejected", "device", string(device), "error", err)
		return errRejected
	}
	return nil
}

func (a *pairingAgent) AuthorizeService(device dbus.ObjectPath, uuid string) *dbus.Error {
	// Service-level authorization follows the bond; no extra prompt.
	return nil
}

func (a *pairingAgent) RequestPinCode(device dbus.ObjectPath) (string, *dbus.Error) {
	// Legacy pairing path some TV platforms still take.
	return "0000", nil
}

func (a *pairingAgent) DisplayPinCode(device dbus.ObjectPath, pincode string) *dbus.Error {
	a.log.Info("pin code display requested", "device", string(device), "pin", pincode)
	return nil
}

func (a *pairingAgent) RequestPasskey(device dbus.ObjectPath) (uint32, *dbus.Error) {
	return 123456, nil
}

func (a *pairingAgent) DisplayPasskey(device dbus.ObjectPath, passkey uint32, entered uint16) *dbus.Error {
	a.log.Info("passkey display requested", "device", string(device), "passkey", passkey)
	return nil
}

func (a *pairingAgent) Cancel() *dbus.Error {
	a.log.Debug("pairing cancelled by bluez")
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()
	if pending != nil {
		pending <- false
	}
	return nil
}
