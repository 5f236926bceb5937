package state

import "errors"

// Domain errors for the state package.
var (
	// ErrSceneNotFound is returned when activating a scene the tracker has
	// no definition for.
	ErrSceneNotFound = errors.New("state: scene not found")

	// ErrNoActiveScene is returned when deactivating while no scene is
	// active.
	ErrNoActiveScene = errors.New("state: no scene active")

	// ErrInvalidScene is returned when a scene definition fails validation.
	ErrInvalidScene = errors.New("state: invalid scene")
)
