package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Equilibrium.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Hub       HubConfig       `yaml:"hub"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	IR        IRConfig        `yaml:"ir"`
	RF        RFConfig        `yaml:"rf"`
	Bluetooth BluetoothConfig `yaml:"bluetooth"`
	Queue     QueueConfig     `yaml:"queue"`
	Security  SecurityConfig  `yaml:"security"`
}

// HubConfig contains hub identity settings.
type HubConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// ScenesFile points at the scene/keymap definition YAML.
	ScenesFile string `yaml:"scenes_file"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket event stream settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings for command and
// device-state history.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// IRConfig contains infrared transceiver settings.
type IRConfig struct {
	Enabled bool   `yaml:"enabled"`
	Chip    string `yaml:"chip"`
	TXPin   int    `yaml:"tx_pin"`
	RXPin   int    `yaml:"rx_pin"`

	// CarrierHz is the modulation frequency of the transmit LED.
	CarrierHz int `yaml:"carrier_hz"`

	// RepeatIntervalMs is the frame-to-frame spacing while a button is held.
	RepeatIntervalMs int `yaml:"repeat_interval_ms"`

	// CaptureTimeoutSec bounds how long a learn capture waits for a signal.
	CaptureTimeoutSec int `yaml:"capture_timeout_sec"`
}

// RFConfig contains proprietary remote receiver settings.
type RFConfig struct {
	Enabled bool   `yaml:"enabled"`
	SPIDev  string `yaml:"spi_dev"`
	Chip    string `yaml:"chip"`
	CEPin   int    `yaml:"ce_pin"`
	Channel int    `yaml:"channel"`

	// Addresses are the 5-byte pipe addresses to listen on, hex encoded.
	Addresses []string `yaml:"addresses"`

	// Keymap maps button names to 24-bit command words (hex).
	Keymap map[string]string `yaml:"keymap"`
}

// BluetoothConfig contains BLE HID peripheral settings.
type BluetoothConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
	Adapter string `yaml:"adapter"`

	// PairingTimeoutSec bounds how long a pairing prompt waits for the user.
	PairingTimeoutSec int `yaml:"pairing_timeout_sec"`
}

// QueueConfig contains command queue settings.
type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// SecurityConfig contains API authentication settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings for the HTTP API.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: EQUILIBRIUM_SECTION_KEY
// For example: EQUILIBRIUM_DATABASE_PATH, EQUILIBRIUM_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Hub: HubConfig{
			ID:         "hub-001",
			Name:       "Equilibrium",
			ScenesFile: "./configs/scenes.yaml",
		},
		Database: DatabaseConfig{
			Path:        "./data/equilibrium.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "equilibrium-hub",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		IR: IRConfig{
			Enabled:           true,
			Chip:              "gpiochip0",
			TXPin:             18,
			RXPin:             23,
			CarrierHz:         38000,
			RepeatIntervalMs:  108,
			CaptureTimeoutSec: 10,
		},
		RF: RFConfig{
			Enabled: true,
			SPIDev:  "",
			Chip:    "gpiochip0",
			CEPin:   25,
			Channel: 5,
		},
		Bluetooth: BluetoothConfig{
			Enabled:           true,
			Name:              "Equilibrium Remote",
			Adapter:           "hci0",
			PairingTimeoutSec: 30,
		},
		Queue: QueueConfig{
			Capacity: 64,
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 60,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: EQUILIBRIUM_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EQUILIBRIUM_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("EQUILIBRIUM_SCENES_FILE"); v != "" {
		cfg.Hub.ScenesFile = v
	}

	if v := os.Getenv("EQUILIBRIUM_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("EQUILIBRIUM_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("EQUILIBRIUM_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("EQUILIBRIUM_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("EQUILIBRIUM_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	if v := os.Getenv("EQUILIBRIUM_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Always override in production.
	if v := os.Getenv("EQUILIBRIUM_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Hub.ID == "" {
		errs = append(errs, "hub.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.IR.Enabled {
		if c.IR.CarrierHz < 20000 || c.IR.CarrierHz > 60000 {
			errs = append(errs, "ir.carrier_hz must be between 20000 and 60000")
		}
		if c.IR.TXPin == c.IR.RXPin {
			errs = append(errs, "ir.tx_pin and ir.rx_pin must differ")
		}
	}

	if c.RF.Enabled {
		if c.RF.Channel < 0 || c.RF.Channel > 125 {
			errs = append(errs, "rf.channel must be between 0 and 125")
		}
		if len(c.RF.Addresses) == 0 {
			errs = append(errs, "rf.addresses requires at least one pipe address")
		}
	}

	if c.Queue.Capacity < 1 {
		errs = append(errs, "queue.capacity must be positive")
	}

	// The hub drives physical devices; an unauthenticated API would let
	// anyone on the network operate them.
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set EQUILIBRIUM_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
