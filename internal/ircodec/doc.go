// Package ircodec provides pure signal-processing primitives for infrared
// remote-control codes.
//
// An IR code is captured from hardware as a sequence of mark/space durations
// in microseconds. This package converts between those raw timing sequences
// and normalised, tolerance-matched codes, detects well-known carrier
// protocols (NEC, JVC), and reads/writes the line-oriented library exchange
// format used for importing and exporting code collections.
//
// The package performs no I/O and holds no state; everything here operates on
// values. Hardware concerns (driving the transmit line, timestamping edges on
// the receive line) live in internal/irtrans.
//
// # Key Types
//
//   - TimingSequence: ordered mark/space durations, starting with a mark
//   - Code: a named, validated TimingSequence ready for transmission
//   - DecodedCode: protocol-level interpretation of a sequence (best effort)
//
// # Tolerance Model
//
// Two captures of the same physical button press never match bit-exactly;
// receiver jitter of several percent per element is normal. Comparison is
// therefore relative per element: sequences match when every corresponding
// pair of durations differs by no more than the tolerance fraction
// (DefaultTolerance = 0.20). Normalisation averages the two captures
// element-wise, which by construction stays within tolerance of both.
package ircodec
