package ircodec

import (
	"errors"
	"testing"
)

// captureA is a realistic NEC-style capture used across tests.
var captureA = TimingSequence{9024, 4512, 564, 1692, 564, 564, 564, 1692, 564}

// jitter returns a copy of seq with every element scaled by factor.
func jitter(seq TimingSequence, factor float64) TimingSequence {
	out := make(TimingSequence, len(seq))
	for i, d := range seq {
		out[i] = uint32(float64(d) * factor)
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		seq     TimingSequence
		wantErr error
	}{
		{"valid", captureA, nil},
		{"empty", TimingSequence{}, ErrEmptySequence},
		{"too short", TimingSequence{9024, 4512}, ErrSequenceTooShort},
		{"zero element", TimingSequence{9024, 0, 564, 564}, ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.seq.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMatchesWithinTolerance(t *testing.T) {
	// 15% uniform jitter is inside the 20% band.
	b := jitter(captureA, 1.15)
	if !Matches(captureA, b, DefaultTolerance) {
		t.Error("captures within 15% should match at 20% tolerance")
	}
}

func TestMatchesRejectsSingleOutlier(t *testing.T) {
	b := captureA.Clone()
	b[3] = b[3] / 2 // one element at 50% deviation
	if Matches(captureA, b, DefaultTolerance) {
		t.Error("capture with a 50% outlier element must not match")
	}
}

func TestMatchesRejectsLengthMismatch(t *testing.T) {
	b := captureA[:len(captureA)-2]
	if Matches(captureA, b, DefaultTolerance) {
		t.Error("captures of different lengths must not match")
	}
}

func TestNormalizeStaysWithinToleranceOfBoth(t *testing.T) {
	b := jitter(captureA, 1.12)

	norm, err := Normalize(captureA, b, DefaultTolerance)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if !Matches(norm, captureA, DefaultTolerance) {
		t.Error("normalised sequence drifted outside tolerance of capture A")
	}
	if !Matches(norm, b, DefaultTolerance) {
		t.Error("normalised sequence drifted outside tolerance of capture B")
	}
}

func TestNormalizeRejectsMismatch(t *testing.T) {
	b := captureA.Clone()
	b[2] = b[2] * 2

	_, err := Normalize(captureA, b, DefaultTolerance)
	if !errors.Is(err, ErrSequenceMismatch) {
		t.Errorf("Normalize() = %v, want ErrSequenceMismatch", err)
	}
}

func TestNormalizeRejectsLengthMismatch(t *testing.T) {
	_, err := Normalize(captureA, captureA[:6], DefaultTolerance)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Normalize() = %v, want ErrLengthMismatch", err)
	}
}

// TestRoundTripWithinTolerance covers the decode/re-encode property: a
// sequence normalised against a jittered copy of itself stays within
// tolerance of the original.
func TestRoundTripWithinTolerance(t *testing.T) {
	factors := []float64{0.85, 0.95, 1.0, 1.05, 1.18}
	for _, f := range factors {
		b := jitter(captureA, f)
		norm, err := Normalize(captureA, b, DefaultTolerance)
		if err != nil {
			t.Fatalf("factor %.2f: %v", f, err)
		}
		if !Matches(norm, captureA, DefaultTolerance) {
			t.Errorf("factor %.2f: round trip left tolerance band", f)
		}
	}
}

func TestNewCodeValidates(t *testing.T) {
	if _, err := NewCode("Bad", "", TimingSequence{}); !errors.Is(err, ErrEmptySequence) {
		t.Errorf("NewCode with empty sequence = %v, want ErrEmptySequence", err)
	}

	code, err := NewCode("PowerOff", "tv-01", captureA)
	if err != nil {
		t.Fatalf("NewCode() error: %v", err)
	}

	// The code must own an independent copy of the sequence.
	captureA[0] = 1
	if code.Sequence[0] == 1 {
		t.Error("Code shares backing array with caller's sequence")
	}
	captureA[0] = 9024
}
