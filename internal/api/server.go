package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aquasense/aquasense-core/internal/device"
	"github.com/aquasense/aquasense-core/internal/infrastructure/config"
	"github.com/aquasense/aquasense-core/internal/infrastructure/logging"
	"github.com/aquasense/aquasense-core/internal/metrics"
	"github.com/aquasense/aquasense-core/internal/query"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Publisher is the outbound command surface of the MQTT client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// QueryRunner evaluates read queries. Satisfied by query.Service.
type QueryRunner interface {
	Run(ctx context.Context, f query.Filter, groupBy query.GroupBy) ([]query.GroupResult, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Registry device.Registry
	Query    QueryRunner
	Hub      http.Handler // WebSocket hub; nil disables /ws
	Metrics  *metrics.Metrics
	MQTT     Publisher // nil disables outbound commands
	Version  string
}

// Server is the HTTP surface over the engine. It only serializes
// results; all semantics live in the device, reading and query packages.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	registry device.Registry
	query    QueryRunner
	hub      http.Handler
	metrics  *metrics.Metrics
	mqtt     Publisher
	version  string
	server   *http.Server
}

// New creates an API server. It is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Query == nil {
		return nil, fmt.Errorf("query service is required")
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		registry: deps.Registry,
		query:    deps.Query,
		hub:      deps.Hub,
		metrics:  deps.Metrics,
		mqtt:     deps.MQTT,
		version:  deps.Version,
	}, nil
}

// Start launches the HTTP listener in a background goroutine.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting for in-flight
// requests up to the shutdown timeout.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
