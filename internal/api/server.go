package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/simplextech/udi-poly-inventory/internal/infrastructure/config"
	"github.com/simplextech/udi-poly-inventory/internal/infrastructure/logging"
	"github.com/simplextech/udi-poly-inventory/internal/inventory"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// EventCycle is the WebSocket event type of a completed discovery cycle.
const EventCycle = "inventory.cycle"

// HistoryReader reads stored cycles.
// Implemented by *inventory.SQLiteHistory.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]inventory.CycleRecord, error)
	Get(ctx context.Context, id string) (*inventory.CycleRecord, error)
}

// Deps holds the dependencies of the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Logger  *logging.Logger
	History HistoryReader // optional
	Version string
}

// Server is the status API server.
//
// It is created with New and started with Start. It can receive cycles
// through RecordCycle before Start is called.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Server struct {
	cfg     config.APIConfig
	wsCfg   config.WebSocketConfig
	logger  *logging.Logger
	history HistoryReader
	version string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc

	mu     sync.RWMutex
	latest *inventory.CycleRecord
}

// New creates an API server. It is not listening until Start is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If the logger is missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Server{
		cfg:     deps.Config,
		wsCfg:   deps.WS,
		logger:  deps.Logger,
		history: deps.History,
		version: deps.Version,
		hub:     NewHub(deps.WS, deps.Logger),
	}, nil
}

// Start binds the listener and serves in a background goroutine.
//
// Returns:
//   - error: If the address cannot be bound (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	// Bind synchronously so a busy port fails startup.
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}

	s.logger.Info("status API listening", "address", ln.Addr().String(), "auth", s.cfg.Auth.JWTSecret != "")

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server.
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

	s.logger.Info("status API shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down status API: %w", err)
	}
	return nil
}

// HealthCheck verifies the server has been started.
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

// RecordCycle makes cycle the latest inventory and broadcasts it.
// It never fails.
func (s *Server) RecordCycle(_ context.Context, cycle inventory.Cycle) error {
	rec := cycle.Record()

	s.mu.Lock()
	s.latest = &rec
	s.mu.Unlock()

	s.hub.Broadcast(EventCycle, newCycleResponse(rec))
	return nil
}

// Latest returns the most recent cycle, or nil before the first one.
func (s *Server) Latest() *inventory.CycleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
