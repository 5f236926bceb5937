package rf

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Config holds the radio and listener parameters.
type Config struct {
	// SPIDev is the SPI port name, e.g. "SPI0.0". Empty selects the first
	// available port.
	SPIDev string `yaml:"spi_dev" json:"spi_dev"`

	// Chip is the GPIO character device carrying the CE line.
	Chip string `yaml:"chip" json:"chip"`

	// CEPin is the line offset for the radio's chip-enable pin.
	CEPin int `yaml:"ce_pin" json:"ce_pin"`

	// Channel is the RF channel the remote transmits on.
	Channel uint8 `yaml:"channel" json:"channel"`

	// Addresses are the 5-byte reading-pipe addresses, hex encoded.
	Addresses []string `yaml:"addresses" json:"addresses"`

	// Keymap maps button names to hex command words.
	Keymap map[string]string `yaml:"keymap" json:"keymap"`

	// PollInterval is how often the radio FIFO is checked.
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`

	// EventBuffer bounds the number of undelivered events.
	EventBuffer int `yaml:"event_buffer" json:"event_buffer"`
}

// DefaultConfig returns the parameters the remote is known to use.
func DefaultConfig() Config {
	return Config{
		SPIDev:       "",
		Chip:         "gpiochip0",
		CEPin:        25,
		Channel:      5,
		PollInterval: 2 * time.Millisecond,
		EventBuffer:  64,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Channel > 125 {
		return fmt.Errorf("rf: channel %d out of range 0-125", c.Channel)
	}
	if len(c.Addresses) == 0 {
		return fmt.Errorf("rf: at least one pipe address is required")
	}
	if len(c.Addresses) > 5 {
		return fmt.Errorf("rf: at most 5 pipe addresses are supported")
	}
	for _, a := range c.Addresses {
		if _, err := parseAddress(a); err != nil {
			return err
		}
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("rf: poll_interval must be positive")
	}
	if c.EventBuffer < 1 {
		return fmt.Errorf("rf: event_buffer must be at least 1")
	}
	return nil
}

// parseAddress decodes a hex pipe address like "e7e7e7e7e7".
func parseAddress(raw string) ([]byte, error) {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, raw, err)
	}
	if len(b) != 5 {
		return nil, fmt.Errorf("%w: %q is %d bytes", ErrInvalidAddress, raw, len(b))
	}
	return b, nil
}
