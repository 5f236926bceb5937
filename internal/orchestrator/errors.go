package orchestrator

import "errors"

var (
	// ErrUnknownBinding indicates a remote button has no binding in the
	// active keymap.
	ErrUnknownBinding = errors.New("orchestrator: button not bound in active keymap")

	// ErrUnknownKeymap indicates a scene references a keymap that is not
	// configured.
	ErrUnknownKeymap = errors.New("orchestrator: keymap not configured")

	// ErrRecordingBusy indicates a learn operation is already in progress.
	ErrRecordingBusy = errors.New("orchestrator: recording already in progress")
)
