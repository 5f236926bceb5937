// Package config loads and validates the Equilibrium hub configuration.
//
// Precedence, lowest to highest:
//   - Built-in defaults (a hub boots with only a scenes file)
//   - YAML configuration file
//   - EQUILIBRIUM_* environment variables
//
// Validation runs after all three layers are applied, so an env override
// is subject to the same range checks as a file value.
//
// Secrets (MQTT credentials, InfluxDB token, JWT secret) belong in
// environment variables, not the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Hub.Name)
package config
