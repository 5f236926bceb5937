// Package logging provides structured logging for the Equilibrium hub.
//
// It wraps log/slog: JSON output for service deployments, tinted text for
// a terminal. Every entry carries the service name and version, and each
// subsystem attaches its own component attribute via With.
//
// Configured from the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("ir transceiver ready", "tx_pin", 18)
//
// Never log secrets. Pairing passkeys are displayed to the operator
// through the event stream, not the log.
package logging
