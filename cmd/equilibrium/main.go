// Equilibrium - Universal Remote Hub
//
// This is the main entry point for the Equilibrium hub. It wires the
// hardware transports (IR transceiver, nRF24 remote receiver, BLE HID
// peripheral) to the command queue and scene orchestrator, and exposes the
// hub over MQTT and HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/wehrfritz/equilibrium-core/migrations"

	"github.com/wehrfritz/equilibrium-core/internal/api"
	"github.com/wehrfritz/equilibrium-core/internal/ble"
	"github.com/wehrfritz/equilibrium-core/internal/history"
	"github.com/wehrfritz/equilibrium-core/internal/infrastructure/config"
	"github.com/wehrfritz/equilibrium-core/internal/infrastructure/database"
	"github.com/wehrfritz/equilibrium-core/internal/infrastructure/influxdb"
	"github.com/wehrfritz/equilibrium-core/internal/infrastructure/logging"
	"github.com/wehrfritz/equilibrium-core/internal/infrastructure/mqtt"
	"github.com/wehrfritz/equilibrium-core/internal/irstore"
	"github.com/wehrfritz/equilibrium-core/internal/irtrans"
	"github.com/wehrfritz/equilibrium-core/internal/mqttbridge"
	"github.com/wehrfritz/equilibrium-core/internal/orchestrator"
	"github.com/wehrfritz/equilibrium-core/internal/queue"
	"github.com/wehrfritz/equilibrium-core/internal/rf"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear wiring of every subsystem
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Equilibrium",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "hub_id", cfg.Hub.ID)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// IR code library
	codes := irstore.NewSQLiteRepository(db.DB)

	// Scene and keymap definitions
	scenes, err := orchestrator.LoadConfig(cfg.Hub.ScenesFile)
	if err != nil {
		return fmt.Errorf("loading scenes: %w", err)
	}
	log.Info("scenes loaded", "path", cfg.Hub.ScenesFile, "scenes", len(scenes.Scenes))

	// Command queue
	q := queue.New(cfg.Queue.Capacity)
	q.SetLogger(log.With("component", "queue"))

	// IR transceiver
	var irTransport *irtrans.Transport
	var irRecorder *irtrans.Recorder
	if cfg.IR.Enabled {
		irCfg := irtrans.DefaultConfig()
		irCfg.Chip = cfg.IR.Chip
		irCfg.TXPin = cfg.IR.TXPin
		irCfg.RXPin = cfg.IR.RXPin
		irCfg.CarrierHz = cfg.IR.CarrierHz
		if cfg.IR.RepeatIntervalMs > 0 {
			irCfg.RepeatInterval = time.Duration(cfg.IR.RepeatIntervalMs) * time.Millisecond
		}
		if cfg.IR.CaptureTimeoutSec > 0 {
			irCfg.CaptureTimeout = time.Duration(cfg.IR.CaptureTimeoutSec) * time.Second
		}

		irTransport, err = irtrans.New(irCfg)
		if err != nil {
			return fmt.Errorf("opening ir transceiver: %w", err)
		}
		irTransport.SetLogger(log.With("component", "ir"))
		defer func() {
			log.Info("closing ir transceiver")
			if closeErr := irTransport.Close(); closeErr != nil {
				log.Error("error closing ir transceiver", "error", closeErr)
			}
		}()
		irRecorder = irtrans.NewRecorder(irTransport, irCfg)
		log.Info("ir transceiver ready", "chip", irCfg.Chip, "tx_pin", irCfg.TXPin, "rx_pin", irCfg.RXPin)
	} else {
		log.Info("ir transceiver disabled")
	}

	// nRF24 remote receiver
	var rfListener *rf.Listener
	if cfg.RF.Enabled {
		rfCfg := rf.DefaultConfig()
		rfCfg.SPIDev = cfg.RF.SPIDev
		rfCfg.Chip = cfg.RF.Chip
		rfCfg.CEPin = cfg.RF.CEPin
		rfCfg.Channel = uint8(cfg.RF.Channel) //nolint:gosec // range checked by Validate
		rfCfg.Addresses = cfg.RF.Addresses
		rfCfg.Keymap = cfg.RF.Keymap

		radio, radioErr := rf.OpenRadio(rfCfg)
		if radioErr != nil {
			return fmt.Errorf("opening rf radio: %w", radioErr)
		}
		defer func() {
			log.Info("closing rf radio")
			if closeErr := radio.Close(); closeErr != nil {
				log.Error("error closing rf radio", "error", closeErr)
			}
		}()

		rfListener, err = rf.NewListener(radio, rfCfg)
		if err != nil {
			return fmt.Errorf("creating rf listener: %w", err)
		}
		rfListener.SetLogger(log.With("component", "rf"))
		log.Info("rf listener ready", "channel", rfCfg.Channel, "ce_pin", rfCfg.CEPin)
	} else {
		log.Info("rf listener disabled")
	}

	// BLE HID peripheral
	var peripheral *ble.Peripheral
	if cfg.Bluetooth.Enabled {
		bleCfg := ble.DefaultConfig()
		bleCfg.Name = cfg.Bluetooth.Name
		bleCfg.Adapter = cfg.Bluetooth.Adapter
		if cfg.Bluetooth.PairingTimeoutSec > 0 {
			bleCfg.PairingTimeout = time.Duration(cfg.Bluetooth.PairingTimeoutSec) * time.Second
		}

		peripheral, err = ble.New(bleCfg)
		if err != nil {
			return fmt.Errorf("creating ble peripheral: %w", err)
		}
		peripheral.SetLogger(log.With("component", "ble"))
		log.Info("ble peripheral ready", "name", bleCfg.Name, "adapter", bleCfg.Adapter)
	} else {
		log.Info("ble peripheral disabled")
	}

	// Orchestrator
	opts := orchestrator.Options{
		Config: scenes,
		Queue:  q,
		Codes:  codes,
		Logger: log.With("component", "orchestrator"),
	}
	if irTransport != nil {
		opts.IR = irTransport
		opts.Recorder = irRecorder
	}
	if peripheral != nil {
		opts.Remote = peripheral
	}

	orch, err := orchestrator.New(opts)
	if err != nil {
		return fmt.Errorf("creating orchestrator: %w", err)
	}

	if peripheral != nil {
		peripheral.OnPairingRequest(func(req ble.PairingRequest) {
			orch.HandlePairingRequest(req.Device)
		})
		peripheral.OnStateChange(func(s ble.State) {
			orch.HandleBLEState(string(s))
		})
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		bridge := mqttbridge.New(mqttClient, orch, byte(cfg.MQTT.QoS), log.With("component", "mqttbridge")) //nolint:gosec // qos is 0-2
		if startErr := bridge.Start(); startErr != nil {
			return fmt.Errorf("starting mqtt bridge: %w", startErr)
		}
		orch.AddSink(bridge)
		log.Info("mqtt bridge started")
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		orch.AddSink(history.NewRecorder(influxClient))
	} else {
		log.Info("InfluxDB disabled")
	}

	// HTTP API server
	apiServer, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Security:   cfg.Security,
		Logger:     log.With("component", "api"),
		Controller: orch,
		Codes:      codes,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	orch.AddSink(apiServer.Hub())

	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Start the hardware loops and the orchestrator
	var remoteEvents <-chan rf.Event
	if rfListener != nil {
		remoteEvents = rfListener.Events()
		go func() {
			if runErr := rfListener.Run(ctx); runErr != nil && ctx.Err() == nil {
				log.Error("rf listener stopped", "error", runErr)
			}
		}()
	}

	if peripheral != nil {
		go func() {
			if runErr := peripheral.Run(ctx); runErr != nil && ctx.Err() == nil {
				log.Error("ble peripheral stopped", "error", runErr)
			}
		}()
	}

	orchDone := make(chan error, 1)
	go func() {
		orchDone <- orch.Run(ctx, remoteEvents)
	}()

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// The BLE shutdown choreography must run to completion before the
	// process exits, otherwise the host treats the disappearance as a
	// link loss and may discard the bond.
	if peripheral != nil {
		if shutdownErr := peripheral.Shutdown(); shutdownErr != nil {
			log.Error("ble shutdown incomplete", "error", shutdownErr)
		}
	}

	// Wait for the in-flight command (if any) to finish.
	<-orchDone

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. RF radio / IR transceiver
	// 5. Database

	log.Info("Equilibrium stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses EQUILIBRIUM_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("EQUILIBRIUM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy.
// mqttClient and influxClient may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
