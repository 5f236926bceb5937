package irtrans

import (
	"context"
	"errors"
	"testing"

	"github.com/wehrfritz/equilibrium-core/internal/ircodec"
)

// scriptedSource returns canned captures in order.
type scriptedSource struct {
	frames []ircodec.TimingSequence
	errs   []error
	calls  int
}

func (s *scriptedSource) Capture(ctx context.Context) (ircodec.TimingSequence, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.frames) {
		return s.frames[i].Clone(), nil
	}
	return nil, ErrCaptureTimeout
}

func TestRecordMatchingPresses(t *testing.T) {
	a := ircodec.TimingSequence{9000, 4500, 560, 1690, 560, 560}
	b := ircodec.TimingSequence{9100, 4400, 570, 1650, 555, 570}
	src := &scriptedSource{frames: []ircodec.TimingSequence{a, b}}

	rec := NewRecorder(src, DefaultConfig())
	got, err := rec.Record(context.Background())
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(got) != len(a) {
		t.Fatalf("Record() returned %d elements, want %d", len(got), len(a))
	}
	// Normalised result stays within tolerance of both presses.
	if !ircodec.Matches(got, a, ircodec.DefaultTolerance) {
		t.Error("normalised sequence does not match first press")
	}
	if !ircodec.Matches(got, b, ircodec.DefaultTolerance) {
		t.Error("normalised sequence does not match second press")
	}
	if src.calls != 2 {
		t.Errorf("captures = %d, want 2", src.calls)
	}
}

func TestRecordRestartsOnMismatch(t *testing.T) {
	a := ircodec.TimingSequence{9000, 4500, 560, 1690}
	other := ircodec.TimingSequence{9000, 4500, 1690, 560}
	src := &scriptedSource{frames: []ircodec.TimingSequence{a, other, a, a}}

	var stages []string
	rec := NewRecorder(src, DefaultConfig())
	rec.Progress = func(stage string) { stages = append(stages, stage) }

	got, err := rec.Record(context.Background())
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !ircodec.Matches(got, a, ircodec.DefaultTolerance) {
		t.Error("normalised sequence does not match the repeated press")
	}
	if src.calls != 4 {
		t.Errorf("captures = %d, want 4 (restart consumes a fresh pair)", src.calls)
	}

	want := []string{"first_press", "second_press", "mismatch", "first_press", "second_press"}
	if len(stages) != len(want) {
		t.Fatalf("progress stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage %d = %q, want %q", i, stages[i], want[i])
		}
	}
}

func TestRecordGivesUpAfterMaxAttempts(t *testing.T) {
	a := ircodec.TimingSequence{9000, 4500, 560, 1690}
	other := ircodec.TimingSequence{9000, 4500, 1690, 560}
	src := &scriptedSource{frames: []ircodec.TimingSequence{
		a, other, a, other, a, other,
	}}

	cfg := DefaultConfig()
	cfg.RecordAttempts = 3
	rec := NewRecorder(src, cfg)

	_, err := rec.Record(context.Background())
	if !errors.Is(err, ErrRecordMismatch) {
		t.Errorf("Record() error = %v, want ErrRecordMismatch", err)
	}
	if src.calls != 6 {
		t.Errorf("captures = %d, want 6", src.calls)
	}
}

func TestRecordPropagatesCaptureErrors(t *testing.T) {
	src := &scriptedSource{errs: []error{ErrCaptureTimeout}}
	rec := NewRecorder(src, DefaultConfig())

	_, err := rec.Record(context.Background())
	if !errors.Is(err, ErrCaptureTimeout) {
		t.Errorf("Record() error = %v, want ErrCaptureTimeout", err)
	}
}
