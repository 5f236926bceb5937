// Package api provides the HTTP REST API and WebSocket server for the
// Equilibrium hub.
//
// It exposes hub status, scene activation, the IR code library (including
// learn mode), BLE key injection, and pairing confirmation to user
// interfaces, and streams hub events over WebSocket.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
