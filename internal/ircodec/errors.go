package ircodec

import "errors"

// Domain errors for the ircodec package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, ircodec.ErrSequenceMismatch) {
//	    // re-prompt for another capture
//	}
var (
	// ErrEmptySequence is returned when a timing sequence has no elements.
	ErrEmptySequence = errors.New("ircodec: empty timing sequence")

	// ErrInvalidDuration is returned when a timing sequence contains a
	// zero or negative duration.
	ErrInvalidDuration = errors.New("ircodec: timing durations must be positive")

	// ErrSequenceTooShort is returned when a sequence is too short to be a
	// plausible IR transmission.
	ErrSequenceTooShort = errors.New("ircodec: timing sequence too short")

	// ErrSequenceMismatch is returned when two captures differ beyond the
	// tolerance band on at least one element.
	ErrSequenceMismatch = errors.New("ircodec: captures differ beyond tolerance")

	// ErrLengthMismatch is returned when two captures have different lengths.
	ErrLengthMismatch = errors.New("ircodec: captures have different lengths")

	// ErrInvalidLibrary is returned when library exchange data is malformed.
	ErrInvalidLibrary = errors.New("ircodec: invalid library data")

	// ErrUnsupportedVersion is returned when a library file declares a
	// version this implementation does not understand.
	ErrUnsupportedVersion = errors.New("ircodec: unsupported library version")
)
