package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wehrfritz/equilibrium-core/internal/infrastructure/config"
	"github.com/wehrfritz/equilibrium-core/internal/infrastructure/logging"
	"github.com/wehrfritz/equilibrium-core/internal/irstore"
	"github.com/wehrfritz/equilibrium-core/internal/orchestrator"
	"github.com/wehrfritz/equilibrium-core/internal/queue"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Controller is the subset of the orchestrator the API server drives.
// Narrowed to an interface so handlers can be tested without hardware.
type Controller interface {
	ActivateScene(ctx context.Context, name string) error
	DeactivateScene(ctx context.Context) error
	SendIR(ctx context.Context, deviceID, name string, repeat int) (*queue.Handle, error)
	SendBLEKey(key string, hold time.Duration) (*queue.Handle, error)
	RecordIR(ctx context.Context, deviceID, name string) (*irstore.StoredCode, error)
	ConfirmPairing(accept bool) error
	Status() orchestrator.Status
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Security   config.SecurityConfig
	Logger     *logging.Logger
	Controller Controller
	Codes      irstore.Repository
	Version    string
}

// Server is the HTTP API server for the Equilibrium hub.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	secCfg     config.SecurityConfig
	logger     *logging.Logger
	controller Controller
	codes      irstore.Repository
	version    string
	startTime  time.Time
	server     *http.Server
	hub        *Hub
	tickets    *ticketStore
	cancel     context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Controller == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if deps.Codes == nil {
		return nil, fmt.Errorf("code repository is required")
	}

	return &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		secCfg:     deps.Security,
		logger:     deps.Logger,
		controller: deps.Controller,
		codes:      deps.Codes,
		version:    deps.Version,
		startTime:  time.Now(),
		tickets:    newTicketStore(),
	}, nil
}

// Hub returns the server's WebSocket hub. It satisfies the orchestrator's
// Sink interface, so events can be streamed to connected clients:
//
//	orch.AddSink(server.Hub())
//
// The hub exists from New(); broadcasts before Start() go to zero clients.
func (s *Server) Hub() *Hub {
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub and ticket cleanup, and
// launches the HTTP listener in a background goroutine. The server can be
// stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	go s.hub.Run(srvCtx)
	go s.tickets.cleanLoop(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
