// Package rf receives keypresses from the proprietary 2.4GHz remote.
//
// The physical layer is an nRF24L01+ transceiver on the SPI bus with a
// GPIO-driven CE line. The remote transmits small dynamic payloads; the
// 24-bit command word in bytes 1..3 identifies the button or a protocol
// housekeeping message (idle beacon, sleep/wake announcements, repeat and
// release markers).
//
// The listener polls the radio, decodes command words against a
// caller-supplied keymap and delivers events on a bounded channel. Under
// backpressure housekeeping events are shed first; press and release
// events are never dropped.
package rf
