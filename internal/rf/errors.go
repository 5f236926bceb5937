package rf

import "errors"

var (
	// ErrRadioNotResponding indicates the transceiver failed its power-on
	// register check.
	ErrRadioNotResponding = errors.New("rf: radio hardware is not responding")

	// ErrShortPayload indicates a received payload was too small to carry a
	// command word.
	ErrShortPayload = errors.New("rf: payload too short for command word")

	// ErrInvalidAddress indicates a pipe address was not 5 bytes.
	ErrInvalidAddress = errors.New("rf: pipe address must be 5 bytes")

	// ErrInvalidKeymap indicates a keymap entry could not be parsed.
	ErrInvalidKeymap = errors.New("rf: invalid keymap entry")

	// ErrListenerRunning indicates Run was called twice.
	ErrListenerRunning = errors.New("rf: listener already running")
)
