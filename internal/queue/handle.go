package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Handle tracks a queued command from enqueue to completion. It carries the
// correlation ID used to report completion or failure back to the caller.
//
// All methods are safe for concurrent use.
type Handle struct {
	id  string
	cmd Command

	mu        sync.Mutex
	started   bool
	cancelled bool

	// execCtx is cancelled by Cancel; executors consult it at safe points.
	execCtx    context.Context
	execCancel context.CancelFunc

	done chan struct{}
	err  error
}

func newHandle(cmd Command) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handle{
		id:         uuid.NewString(),
		cmd:        cmd,
		execCtx:    ctx,
		execCancel: cancel,
		done:       make(chan struct{}),
	}
}

// ID returns the correlation ID for this command.
func (h *Handle) ID() string { return h.id }

// Command returns the command this handle tracks.
func (h *Handle) Command() Command { return h.cmd }

// Done returns a channel closed when the command has finished executing,
// failed, or been cancelled.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the execution outcome. It is only meaningful after Done() is
// closed: nil on success, ErrCancelled if the command never ran, or the
// transport error otherwise.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait blocks until the command completes or ctx is cancelled.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel requests cancellation. A command that has not started is removed
// from consideration and reports ErrCancelled. For an in-flight command the
// execution context is cancelled and the transport stops at its next safe
// point, if it has one. Returns true if the command had not yet started.
func (h *Handle) Cancel() bool {
	h.mu.Lock()
	if h.cancelled {
		started := h.started
		h.mu.Unlock()
		return !started
	}
	h.cancelled = true
	started := h.started
	h.mu.Unlock()

	h.execCancel()
	if !started {
		h.complete(ErrCancelled)
		return true
	}
	return false
}

// markStarted transitions the handle to in-flight. Returns false when the
// command was cancelled first and must be skipped.
func (h *Handle) markStarted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		return false
	}
	h.started = true
	return true
}

// complete records the outcome and closes Done exactly once.
func (h *Handle) complete(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		return // already completed
	default:
	}
	h.err = err
	close(h.done)
}
