package ble

import (
	"fmt"
	"time"
)

// Config holds the peripheral parameters.
type Config struct {
	// Name is the advertised device name.
	Name string `yaml:"name" json:"name"`

	// Adapter is the BlueZ adapter id, e.g. "hci0".
	Adapter string `yaml:"adapter" json:"adapter"`

	// PairingTimeout bounds how long a pairing prompt waits for the user.
	PairingTimeout time.Duration `yaml:"pairing_timeout" json:"pairing_timeout"`

	// KeyHold is the default press duration for SendKey.
	KeyHold time.Duration `yaml:"key_hold" json:"key_hold"`

	// SupervisorInterval is how often connection state is reconciled.
	SupervisorInterval time.Duration `yaml:"supervisor_interval" json:"supervisor_interval"`

	// DisconnectDwell is the pause between withdrawing the advertisement
	// and disconnecting the host during shutdown. Hosts that see the
	// disconnect before the advertisement is gone tend to treat it as a
	// link loss and re-initiate pairing, destroying the bond.
	DisconnectDwell time.Duration `yaml:"disconnect_dwell" json:"disconnect_dwell"`

	// UnexportDwell is the pause between disconnecting and unexporting the
	// GATT tree, giving the host time to process the clean disconnect.
	UnexportDwell time.Duration `yaml:"unexport_dwell" json:"unexport_dwell"`
}

// Calibrated shutdown floors. Hosts given less time than this race the
// teardown and treat it as a link loss, which destroys the bond.
const (
	MinDisconnectDwell = time.Second
	MinUnexportDwell   = 2 * time.Second
)

// DefaultConfig returns settings proven against TV platform hosts.
func DefaultConfig() Config {
	return Config{
		Name:               "Equilibrium Remote",
		Adapter:            "hci0",
		PairingTimeout:     30 * time.Second,
		KeyHold:            100 * time.Millisecond,
		SupervisorInterval: 5 * time.Second,
		DisconnectDwell:    time.Second,
		UnexportDwell:      2 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("ble: name is required")
	}
	if c.Adapter == "" {
		return fmt.Errorf("ble: adapter is required")
	}
	if c.PairingTimeout <= 0 {
		return fmt.Errorf("ble: pairing_timeout must be positive")
	}
	if c.KeyHold <= 0 {
		return fmt.Errorf("ble: key_hold must be positive")
	}
	if c.SupervisorInterval <= 0 {
		return fmt.Errorf("ble: supervisor_interval must be positive")
	}
	if c.DisconnectDwell <= 0 || c.UnexportDwell <= 0 {
		return fmt.Errorf("ble: shutdown dwell times must be positive")
	}
	return nil
}

// validateDwellFloors rejects shutdown dwells below the calibrated minimums.
// Applied on the system-bus path only; test adapters may run faster.
func (c Config) validateDwellFloors() error {
	if c.DisconnectDwell < MinDisconnectDwell {
		return fmt.Errorf("ble: disconnect_dwell %v below minimum %v", c.DisconnectDwell, MinDisconnectDwell)
	}
	if c.UnexportDwell < MinUnexportDwell {
		return fmt.Errorf("ble: unexport_dwell %v below minimum %v", c.UnexportDwell, MinUnexportDwell)
	}
	return nil
}
