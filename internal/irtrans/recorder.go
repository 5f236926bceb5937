package irtrans

import (
	"context"
	"errors"

	"github.com/wehrfritz/equilibrium-core/internal/ircodec"
)

// CaptureSource provides raw frame captures. Satisfied by *Transport.
type CaptureSource interface {
	Capture(ctx context.Context) (ircodec.TimingSequence, error)
}

// Recorder learns a new IR code by requiring the same button to be pressed
// twice. The two captures are compared element-wise; if they agree within
// tolerance the normalised average is returned, otherwise the whole
// procedure restarts with a fresh first press.
type Recorder struct {
	src       CaptureSource
	tolerance float64
	attempts  int
	log       Logger

	// Progress, when set, is called as the procedure advances so a UI can
	// prompt the user. Stage is one of "first_press", "second_press",
	// "mismatch".
	Progress func(stage string)
}

// NewRecorder builds a recorder over the given capture source.
func NewRecorder(src CaptureSource, cfg Config) *Recorder {
	attempts := cfg.RecordAttempts
	if attempts <= 0 {
		attempts = DefaultConfig().RecordAttempts
	}
	return &Recorder{
		src:       src,
		tolerance: ircodec.DefaultTolerance,
		attempts:  attempts,
		log:       noopLogger{},
	}
}

// SetLogger sets the logger for recording progress.
func (r *Recorder) SetLogger(log Logger) {
	if log != nil {
		r.log = log
	}
}

// OnProgress sets the prompt callback. Pass nil to clear it.
func (r *Recorder) OnProgress(fn func(stage string)) {
	r.Progress = fn
}

// Record runs the two-press procedure and returns the normalised sequence.
func (r *Recorder) Record(ctx context.Context) (ircodec.TimingSequence, error) {
	for attempt := 1; attempt <= r.attempts; attempt++ {
		r.progress("first_press")
		first, err := r.src.Capture(ctx)
		if err != nil {
			return nil, err
		}

		r.progress("second_press")
		second, err := r.src.Capture(ctx)
		if err != nil {
			return nil, err
		}

		norm, err := ircodec.Normalize(first, second, r.tolerance)
		if err == nil {
			r.log.Info("recorded code", "elements", len(norm), "attempt", attempt)
			return norm, nil
		}
		if !errors.Is(err, ircodec.ErrSequenceMismatch) && !errors.Is(err, ircodec.ErrLengthMismatch) {
			return nil, err
		}

		r.log.Warn("captures did not match, restarting", "attempt", attempt, "error", err)
		r.progress("mismatch")
	}
	return nil, ErrRecordMismatch
}

func (r *Recorder) progress(stage string) {
	if r.Progress != nil {
		r.Progress(stage)
	}
}
