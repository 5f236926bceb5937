package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// System metrics (no auth required for basic monitoring)
		r.Get("/metrics", s.handleMetrics)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// WS ticket requires authentication
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// Hub status (active scene, tracked devices, queue depth)
			r.Get("/status", s.handleStatus)

			// Scene endpoints
			r.Route("/scenes", func(r chi.Router) {
				r.Post("/{name}/activate", s.handleActivateScene)
				r.Post("/deactivate", s.handleDeactivateScene)
			})

			// IR code library
			r.Route("/codes", func(r chi.Router) {
				r.Get("/", s.handleListCodes)
				r.Post("/record", s.handleRecordCode)
				r.Post("/send", s.handleSendCode)

				r.Route("/{device}", func(r chi.Router) {
					r.Get("/", s.handleListDeviceCodes)
					r.Delete("/{name}", s.handleDeleteCode)
				})
			})

			// BLE key injection and pairing
			r.Post("/keys", s.handleSendKey)
			r.Post("/pairing/confirm", s.handleConfirmPairing)

			// WebSocket (auth via ticket, validated in handler)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
