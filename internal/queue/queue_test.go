package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wehrfritz/equilibrium-core/internal/ircodec"
)

// recordingExecutor records executed commands in order.
type recordingExecutor struct {
	mu    sync.Mutex
	names []string
	delay time.Duration
	err   error
}

func (r *recordingExecutor) Execute(_ context.Context, cmd Command) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	switch cmd.Kind {
	case KindSendIR:
		r.names = append(r.names, cmd.IR.Code.Name)
	case KindSendBLEKey:
		r.names = append(r.names, cmd.BLEKey.Keycode)
	}
	return r.err
}

func (r *recordingExecutor) executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func irCommand(name string) Command {
	return SendIR(ircodec.Code{Name: name, Sequence: ircodec.TimingSequence{9024, 4512, 564, 564}}, 0)
}

func startQueue(t *testing.T, q *Queue) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func waitHandle(t *testing.T, h *Handle) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := h.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("command did not complete in time")
	}
	return err
}

func TestFIFOOrder(t *testing.T) {
	ex := &recordingExecutor{}
	q := New(16)
	q.RegisterExecutor(KindSendIR, ex)
	startQueue(t, q)

	names := []string{"a", "b", "c", "d", "e"}
	var last *Handle
	for _, n := range names {
		h, err := q.Enqueue(irCommand(n))
		if err != nil {
			t.Fatalf("Enqueue(%q) error: %v", n, err)
		}
		last = h
	}
	if err := waitHandle(t, last); err != nil {
		t.Fatalf("last command failed: %v", err)
	}

	got := ex.executed()
	if len(got) != len(names) {
		t.Fatalf("executed %d commands, want %d", len(got), len(names))
	}
	for i := range names {
		if got[i] != names[i] {
			t.Errorf("position %d executed %q, want %q", i, got[i], names[i])
		}
	}
}

func TestCancelBeforeStartNeverExecutes(t *testing.T) {
	ex := &recordingExecutor{delay: 50 * time.Millisecond}
	q := New(16)
	q.RegisterExecutor(KindSendIR, ex)

	// Enqueue before the consumer starts so cancellation races nothing.
	h1, _ := q.Enqueue(irCommand("runs"))
	h2, _ := q.Enqueue(irCommand("cancelled"))

	if !h2.Cancel() {
		t.Fatal("Cancel() before start should return true")
	}
	if err := h2.Err(); !errors.Is(err, ErrCancelled) {
		t.Errorf("cancelled handle Err() = %v, want ErrCancelled", err)
	}

	startQueue(t, q)
	if err := waitHandle(t, h1); err != nil {
		t.Fatalf("first command failed: %v", err)
	}
	waitHandle(t, h2)

	for _, name := range ex.executed() {
		if name == "cancelled" {
			t.Error("cancelled command was executed")
		}
	}
}

func TestMacroNotInterleaved(t *testing.T) {
	ex := &recordingExecutor{delay: 5 * time.Millisecond}
	q := New(16)
	q.RegisterExecutor(KindSendIR, ex)
	startQueue(t, q)

	macro := Macro([]Command{
		irCommand("m1"), irCommand("m2"), irCommand("m3"),
	}, []time.Duration{time.Millisecond, time.Millisecond})

	hMacro, err := q.Enqueue(macro)
	if err != nil {
		t.Fatalf("Enqueue(macro) error: %v", err)
	}
	hOther, err := q.Enqueue(irCommand("other"))
	if err != nil {
		t.Fatalf("Enqueue(other) error: %v", err)
	}

	if err := waitHandle(t, hMacro); err != nil {
		t.Fatalf("macro failed: %v", err)
	}
	if err := waitHandle(t, hOther); err != nil {
		t.Fatalf("other failed: %v", err)
	}

	got := ex.executed()
	want := []string{"m1", "m2", "m3", "other"}
	if len(got) != len(want) {
		t.Fatalf("executed %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("executed %v, want %v", got, want)
		}
	}
}

func TestFailureDoesNotAbortQueue(t *testing.T) {
	failing := &recordingExecutor{err: errors.New("transport unavailable")}
	q := New(16)
	q.RegisterExecutor(KindSendIR, failing)
	startQueue(t, q)

	h1, _ := q.Enqueue(irCommand("fails"))
	if err := waitHandle(t, h1); err == nil {
		t.Error("expected failure to be reported via handle")
	}

	failing.err = nil
	h2, _ := q.Enqueue(irCommand("succeeds"))
	if err := waitHandle(t, h2); err != nil {
		t.Errorf("queue stopped processing after failure: %v", err)
	}
}

func TestEnqueueFullReturnsBackpressure(t *testing.T) {
	q := New(1)
	// No consumer running; the buffer holds exactly one command.
	if _, err := q.Enqueue(irCommand("first")); err != nil {
		t.Fatalf("first Enqueue error: %v", err)
	}
	if _, err := q.Enqueue(irCommand("second")); !errors.Is(err, ErrQueueFull) {
		t.Errorf("second Enqueue = %v, want ErrQueueFull", err)
	}
}

func TestCompletionCallback(t *testing.T) {
	ex := &recordingExecutor{}
	q := New(16)
	q.RegisterExecutor(KindSendIR, ex)

	var mu sync.Mutex
	var completions []Completion
	q.SetOnComplete(func(c Completion) {
		mu.Lock()
		completions = append(completions, c)
		mu.Unlock()
	})
	startQueue(t, q)

	h, _ := q.Enqueue(irCommand("a"))
	waitHandle(t, h)

	mu.Lock()
	defer mu.Unlock()
	if len(completions) != 1 {
		t.Fatalf("got %d completions, want 1", len(completions))
	}
	if completions[0].ID != h.ID() {
		t.Errorf("completion ID = %q, want %q", completions[0].ID, h.ID())
	}
	if completions[0].Err != nil {
		t.Errorf("completion Err = %v, want nil", completions[0].Err)
	}
}

func TestUnknownKindReportsError(t *testing.T) {
	q := New(4)
	startQueue(t, q)

	h, _ := q.Enqueue(SendBLEKey("KEY_PLAY", 0))
	if err := waitHandle(t, h); !errors.Is(err, ErrNoExecutor) {
		t.Errorf("Err() = %v, want ErrNoExecutor", err)
	}
}
