package ble

import "errors"

var (
	// ErrNotConnected indicates no host is connected to receive reports.
	ErrNotConnected = errors.New("ble: no host connected")

	// ErrUnknownKey indicates the key name has no HID usage mapping.
	ErrUnknownKey = errors.New("ble: unknown key name")

	// ErrShutdownInProgress indicates the teardown sequence has started and
	// no further operations are accepted.
	ErrShutdownInProgress = errors.New("ble: shutdown in progress")

	// ErrNoPendingPairing indicates ConfirmPairing was called without an
	// outstanding pairing prompt.
	ErrNoPendingPairing = errors.New("ble: no pairing confirmation pending")

	// ErrPairingTimeout indicates the user did not answer the pairing
	// prompt in time.
	ErrPairingTimeout = errors.New("ble: pairing confirmation timed out")

	// ErrPeripheralRunning indicates Run was called twice.
	ErrPeripheralRunning = errors.New("ble: peripheral already running")
)
