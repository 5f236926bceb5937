package ircodec

import (
	"fmt"
)

// DefaultTolerance is the relative per-element tolerance used when comparing
// two captures of the same button press. ±20% absorbs normal receiver jitter
// while still rejecting corrupted captures.
const DefaultTolerance = 0.20

// minSequenceLength is the shortest sequence accepted as a plausible IR
// transmission: header mark/space plus at least one data pair.
const minSequenceLength = 4

// TimingSequence is an ordered sequence of mark/space durations in
// microseconds, alternating starting with a mark (carrier on).
//
// A valid sequence is non-empty and contains only positive values. Sequences
// are treated as immutable once captured; operations return new slices.
type TimingSequence []uint32

// Validate checks the structural invariants of a timing sequence:
// non-empty, minimum plausible length, all durations positive.
//
// It is applied both to hardware captures and to externally sourced raw
// timing lists (third-party IR databases) before acceptance.
func (s TimingSequence) Validate() error {
	if len(s) == 0 {
		return ErrEmptySequence
	}
	if len(s) < minSequenceLength {
		return fmt.Errorf("%w: %d elements", ErrSequenceTooShort, len(s))
	}
	for i, d := range s {
		if d == 0 {
			return fmt.Errorf("%w: element %d", ErrInvalidDuration, i)
		}
	}
	return nil
}

// Clone returns an independent copy of the sequence.
func (s TimingSequence) Clone() TimingSequence {
	out := make(TimingSequence, len(s))
	copy(out, s)
	return out
}

// Duration returns the total on-air time of the sequence in microseconds.
func (s TimingSequence) Duration() uint64 {
	var total uint64
	for _, d := range s {
		total += uint64(d)
	}
	return total
}

// Matches reports whether two sequences agree within the given relative
// tolerance on every corresponding element. Sequences of different lengths
// never match.
func Matches(a, b TimingSequence, tolerance float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !withinTolerance(a[i], b[i], tolerance) {
			return false
		}
	}
	return true
}

// withinTolerance reports whether actual lies inside expected ± expected*tolerance.
func withinTolerance(actual, expected uint32, tolerance float64) bool {
	margin := float64(expected) * tolerance
	delta := float64(actual) - float64(expected)
	if delta < 0 {
		delta = -delta
	}
	return delta <= margin
}

// Normalize merges two tolerance-matched captures of the same button press
// into a single canonical sequence by averaging each element pair.
//
// The element-wise mean of two values that differ by at most the tolerance
// fraction lies within that fraction of both, so the result remains a valid
// representative of either capture.
//
// Returns ErrLengthMismatch or ErrSequenceMismatch when the captures do not
// agree within tolerance.
func Normalize(a, b TimingSequence, tolerance float64) (TimingSequence, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d vs %d elements", ErrLengthMismatch, len(a), len(b))
	}
	out := make(TimingSequence, len(a))
	for i := range a {
		if !withinTolerance(a[i], b[i], tolerance) {
			return nil, fmt.Errorf("%w: element %d (%dµs vs %dµs)",
				ErrSequenceMismatch, i, a[i], b[i])
		}
		out[i] = (a[i] + b[i]) / 2
	}
	return out, nil
}

// Code is a named, validated timing sequence mapped to a device command.
// Codes are immutable after validation; persistence is handled by the
// caller-supplied repository.
type Code struct {
	// Name identifies the command (e.g. "PowerOff").
	Name string

	// DeviceID optionally associates the code with a device in the
	// external data model.
	DeviceID string

	// Sequence is the normalised mark/space timing.
	Sequence TimingSequence
}

// NewCode validates the sequence and constructs an immutable Code value.
func NewCode(name, deviceID string, seq TimingSequence) (Code, error) {
	if err := seq.Validate(); err != nil {
		return Code{}, fmt.Errorf("code %q: %w", name, err)
	}
	return Code{Name: name, DeviceID: deviceID, Sequence: seq.Clone()}, nil
}
