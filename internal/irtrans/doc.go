// Package irtrans drives the infrared transmit and receive hardware.
//
// The transmitter is a bare GPIO line feeding an IR LED driver stage; the
// carrier is generated in software by toggling the line during mark
// periods. The receiver is a demodulating IR module whose output edges are
// timestamped by the kernel and converted into timing sequences.
//
// A burst, once started, always runs to completion. Cancellation is only
// observed between bursts so a receiving device never sees a truncated
// frame.
package irtrans
