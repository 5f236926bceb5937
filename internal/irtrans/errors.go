package irtrans

import "errors"

var (
	// ErrCaptureTimeout indicates no IR signal arrived within the capture
	// window.
	ErrCaptureTimeout = errors.New("irtrans: no signal received before timeout")

	// ErrCaptureTooLong indicates the received frame exceeded the maximum
	// element count and was discarded.
	ErrCaptureTooLong = errors.New("irtrans: captured frame exceeds maximum length")

	// ErrRecordMismatch indicates repeated capture attempts never produced
	// two matching presses.
	ErrRecordMismatch = errors.New("irtrans: captures did not match after maximum attempts")

	// ErrClosed indicates the transport has been closed.
	ErrClosed = errors.New("irtrans: transport closed")

	// ErrNotRepeating indicates StopRepeating was called with no repeat in
	// progress.
	ErrNotRepeating = errors.New("irtrans: no repeating transmission in progress")
)
