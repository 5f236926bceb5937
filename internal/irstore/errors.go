package irstore

import "errors"

var (
	// ErrCodeNotFound indicates no stored code matches the device and name.
	ErrCodeNotFound = errors.New("irstore: code not found")

	// ErrCodeExists indicates a code with the same device and name already
	// exists.
	ErrCodeExists = errors.New("irstore: code already exists")
)
