package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// defaultCapacity bounds the queue when the config leaves it unset.
const defaultCapacity = 64

// Logger defines the logging interface used by the Queue.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Executor performs the actual actuation for a single non-macro command.
// The context is cancelled when the command's Handle is cancelled; the
// executor honours it only at points where stopping is safe for the
// transport.
type Executor interface {
	Execute(ctx context.Context, cmd Command) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, cmd Command) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, cmd Command) error { return f(ctx, cmd) }

// Completion describes a finished command, delivered to the optional
// completion callback for event-stream fan-out.
type Completion struct {
	ID   string
	Kind Kind

	// Name is the command's Label (IR code name, BLE keycode, or "macro").
	Name string

	// Duration is the wall-clock execution time. Zero when the command
	// was cancelled before starting.
	Duration time.Duration

	Err error
}

// Queue is the single-consumer execution serializer. Enqueue is safe from
// any goroutine; Run is the sole consumer and must be running for commands
// to make progress.
type Queue struct {
	executors map[Kind]Executor
	ch        chan *Handle
	logger    Logger

	mu       sync.Mutex
	closed   bool
	inflight bool
	depth    int

	onComplete func(Completion)
}

// New creates a queue with the given capacity (defaultCapacity when <= 0).
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Queue{
		executors: make(map[Kind]Executor),
		ch:        make(chan *Handle, capacity),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the queue.
func (q *Queue) SetLogger(logger Logger) {
	q.logger = logger
}

// RegisterExecutor binds an executor to a command kind. Macro commands are
// expanded by the queue itself and need no executor.
func (q *Queue) RegisterExecutor(kind Kind, ex Executor) {
	q.executors[kind] = ex
}

// SetOnComplete installs a callback invoked after every command finishes
// (success, failure, or cancellation). Called from the consumer goroutine;
// it must not block.
func (q *Queue) SetOnComplete(fn func(Completion)) {
	q.onComplete = fn
}

// Enqueue adds a command to the tail of the queue and returns its Handle.
// Returns ErrQueueFull when the bounded buffer has no room — callers decide
// whether to retry, drop, or surface backpressure.
func (q *Queue) Enqueue(cmd Command) (*Handle, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrQueueClosed
	}
	q.mu.Unlock()

	h := newHandle(cmd)
	select {
	case q.ch <- h:
		q.mu.Lock()
		q.depth++
		q.mu.Unlock()
		q.logger.Debug("command enqueued", "id", h.ID(), "kind", cmd.Kind)
		return h, nil
	default:
		return nil, ErrQueueFull
	}
}

// Depth returns the number of commands waiting or in flight.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.depth
	if q.inflight {
		n++
	}
	return n
}

// Run is the perpetual consumer loop. It executes commands strictly in FIFO
// order with at most one in flight, and returns once ctx is cancelled and
// the in-flight command (if any) has completed.
func (q *Queue) Run(ctx context.Context) {
	q.logger.Info("command queue running")
	for {
		select {
		case <-ctx.Done():
			q.drain()
			q.logger.Info("command queue stopped")
			return
		case h := <-q.ch:
			q.mu.Lock()
			q.depth--
			q.inflight = true
			q.mu.Unlock()

			q.consume(h)

			q.mu.Lock()
			q.inflight = false
			q.mu.Unlock()
		}
	}
}

// consume executes a single top-level command and reports its outcome.
func (q *Queue) consume(h *Handle) {
	if !h.markStarted() {
		// Cancelled before start; Handle already completed with
		// ErrCancelled.
		q.notify(h, 0, ErrCancelled)
		return
	}

	start := time.Now()
	err := q.execute(h.execCtx, h.cmd)
	elapsed := time.Since(start)
	if err != nil {
		q.logger.Warn("command failed", "id", h.ID(), "kind", h.cmd.Kind, "error", err)
	} else {
		q.logger.Debug("command executed", "id", h.ID(), "kind", h.cmd.Kind)
	}
	h.complete(err)
	q.notify(h, elapsed, err)
}

// execute dispatches one command, expanding macros inline so that the whole
// child list runs without interleaving from other top-level commands.
func (q *Queue) execute(ctx context.Context, cmd Command) error {
	if cmd.Kind == KindMacro {
		return q.executeMacro(ctx, cmd)
	}
	ex, ok := q.executors[cmd.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoExecutor, cmd.Kind)
	}
	return ex.Execute(ctx, cmd)
}

// executeMacro runs macro children in order with their configured delays.
// A child failure aborts the remainder of the macro; the error is reported
// on the macro's handle.
func (q *Queue) executeMacro(ctx context.Context, cmd Command) error {
	for i, child := range cmd.Children {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("macro aborted at child %d: %w", i, err)
		}
		if err := q.execute(ctx, child); err != nil {
			return fmt.Errorf("macro child %d: %w", i, err)
		}
		if i < len(cmd.Delays) && cmd.Delays[i] > 0 {
			select {
			case <-time.After(cmd.Delays[i]):
			case <-ctx.Done():
				return fmt.Errorf("macro aborted at child %d: %w", i, ctx.Err())
			}
		}
	}
	return nil
}

// drain marks the queue closed and cancels everything still waiting.
func (q *Queue) drain() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	for {
		select {
		case h := <-q.ch:
			q.mu.Lock()
			q.depth--
			q.mu.Unlock()
			h.complete(ErrCancelled)
			q.notify(h, 0, ErrCancelled)
		default:
			return
		}
	}
}

// notify delivers a completion to the registered callback, if any.
func (q *Queue) notify(h *Handle, elapsed time.Duration, err error) {
	if q.onComplete != nil {
		q.onComplete(Completion{
			ID:       h.ID(),
			Kind:     h.cmd.Kind,
			Name:     h.cmd.Label(),
			Duration: elapsed,
			Err:      err,
		})
	}
}
