package queue

import "errors"

// Domain errors for the queue package.
var (
	// ErrQueueFull is the backpressure signal returned by Enqueue when the
	// bounded queue has no capacity left.
	ErrQueueFull = errors.New("queue: full")

	// ErrQueueClosed is returned when enqueueing after Close.
	ErrQueueClosed = errors.New("queue: closed")

	// ErrCancelled is reported through a Handle whose command was cancelled
	// before it started executing.
	ErrCancelled = errors.New("queue: command cancelled")

	// ErrNoExecutor is returned when a command kind has no registered
	// executor.
	ErrNoExecutor = errors.New("queue: no executor for command kind")
)
