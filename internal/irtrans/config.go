package irtrans

import (
	"fmt"
	"time"
)

// Config holds the hardware and timing parameters for the IR transport.
type Config struct {
	// Chip is the GPIO character device name, e.g. "gpiochip0".
	Chip string `yaml:"chip" json:"chip"`

	// TXPin is the line offset driving the IR LED stage.
	TXPin int `yaml:"tx_pin" json:"tx_pin"`

	// RXPin is the line offset connected to the demodulator output.
	RXPin int `yaml:"rx_pin" json:"rx_pin"`

	// CarrierHz is the modulation frequency for mark periods.
	CarrierHz int `yaml:"carrier_hz" json:"carrier_hz"`

	// RepeatInterval is the gap between frame starts while repeating.
	RepeatInterval time.Duration `yaml:"repeat_interval" json:"repeat_interval"`

	// CaptureTimeout bounds the wait for the first edge of a capture.
	CaptureTimeout time.Duration `yaml:"capture_timeout" json:"capture_timeout"`

	// FrameGap is the quiet period that terminates a captured frame.
	FrameGap time.Duration `yaml:"frame_gap" json:"frame_gap"`

	// MaxElements caps the length of a captured frame.
	MaxElements int `yaml:"max_elements" json:"max_elements"`

	// RecordAttempts is how many capture pairs the recorder tries before
	// giving up. Zero applies the default.
	RecordAttempts int `yaml:"record_attempts" json:"record_attempts"`
}

// DefaultConfig returns a configuration suitable for a 38kHz demodulator
// wired to a Raspberry Pi header.
func DefaultConfig() Config {
	return Config{
		Chip:           "gpiochip0",
		TXPin:          18,
		RXPin:          23,
		CarrierHz:      38000,
		RepeatInterval: 108 * time.Millisecond,
		CaptureTimeout: 10 * time.Second,
		FrameGap:       15 * time.Millisecond,
		MaxElements:    1024,
		RecordAttempts: 3,
	}
}

// Validate checks the configuration for values the hardware cannot honour.
func (c Config) Validate() error {
	if c.Chip == "" {
		return fmt.Errorf("irtrans: chip name is required")
	}
	if c.TXPin == c.RXPin {
		return fmt.Errorf("irtrans: tx_pin and rx_pin must differ")
	}
	if c.CarrierHz < 20000 || c.CarrierHz > 60000 {
		return fmt.Errorf("irtrans: carrier_hz %d outside usable range 20000-60000", c.CarrierHz)
	}
	if c.RepeatInterval <= 0 {
		return fmt.Errorf("irtrans: repeat_interval must be positive")
	}
	if c.CaptureTimeout <= 0 {
		return fmt.Errorf("irtrans: capture_timeout must be positive")
	}
	if c.FrameGap <= 0 {
		return fmt.Errorf("irtrans: frame_gap must be positive")
	}
	if c.MaxElements < 4 {
		return fmt.Errorf("irtrans: max_elements must be at least 4")
	}
	return nil
}
