package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/skillsenselab/voicekit/config"
	"github.com/skillsenselab/voicekit/logger"
	"github.com/skillsenselab/voicekit/resilience"
	"github.com/skillsenselab/voicekit/server/endpoint"
	"github.com/skillsenselab/voicekit/server/middleware"
	"github.com/skillsenselab/voicekit/sse"
)

// Connection timeouts for the control listener. WriteTimeout stays zero:
// the event feed holds its response open for the life of the subscriber.
const (
	readTimeout       = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 5 * time.Second
	maxBodySize       = "64KB"
)

// Server is the localhost control server: health, version, resilience
// introspection and the live event feed, served over Gin.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     config.ServerSettings
	log        *logger.Logger

	mu        sync.Mutex
	boundAddr string
}

// Endpoints carries the collaborators the control endpoints expose. Nil
// fields leave their routes unmounted.
type Endpoints struct {
	// Service is the service name reported by /healthz and /version.
	Service string
	// Checker aggregates component health for /healthz.
	Checker endpoint.HealthChecker
	// Limiter backs /v1/resilience and /v1/resilience/capacity.
	Limiter *resilience.RateLimiter
	// Engine contributes circuit states to /v1/resilience.
	Engine *resilience.RecoveryEngine
	// Providers backs /v1/providers together with Transcription.
	Providers endpoint.ProviderDirectory
	// Transcription supplies the configured provider table for /v1/providers.
	Transcription config.TranscriptionSettings
	// Hub backs the /v1/events feed.
	Hub *sse.Hub
}

// New creates a new Server. The Gin engine is created bare; call
// ApplyDefaults to attach the middleware stack and control endpoints.
func New(cfg config.ServerSettings, log *logger.Logger) *Server {
	// Gin mode follows the global zerolog level.
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	engine := gin.New()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	return &Server{
		httpServer: httpServer,
		engine:     engine,
		config:     cfg,
		log:        log.WithComponent("server"),
	}
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handler returns the root handler, for driving the server in tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ApplyMiddleware attaches the standard middleware stack: recovery,
// request-ID, body-size limit, and request logging.
func (s *Server) ApplyMiddleware() {
	s.engine.Use(middleware.Recovery(s.log))
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.BodySizeLimit(maxBodySize))
	s.engine.Use(middleware.RequestLogger(s.log))
}

// RegisterEndpoints mounts the control endpoints for the given
// collaborators.
func (s *Server) RegisterEndpoints(eps Endpoints) {
	s.engine.GET("/healthz", endpoint.Health(eps.Service, eps.Checker))
	s.engine.GET("/version", endpoint.Version(eps.Service))
	s.engine.GET("/v1/runtime", endpoint.Runtime())
	if eps.Limiter != nil && eps.Engine != nil {
		s.engine.GET("/v1/resilience", endpoint.Resilience(eps.Limiter, eps.Engine))
		s.engine.POST("/v1/resilience/capacity", endpoint.AdjustCapacity(eps.Limiter))
	}
	if eps.Providers != nil {
		s.engine.GET("/v1/providers", endpoint.Providers(eps.Providers, eps.Transcription))
	}
	if eps.Hub != nil {
		s.engine.GET("/v1/events", endpoint.Events(eps.Hub))
	}
}

// ApplyDefaults applies the standard middleware stack and mounts the
// control endpoints.
func (s *Server) ApplyDefaults(eps Endpoints) {
	s.ApplyMiddleware()
	s.RegisterEndpoints(eps)
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a
// goroutine.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("control server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	s.mu.Lock()
	s.boundAddr = listener.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("Control server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	s.log.Info("Control server listening", map[string]interface{}{
		"addr": s.Addr(),
	})
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down control server")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Control server shutdown error", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("control server shutdown: %w", err)
	}

	s.log.Info("Control server shut down")
	return nil
}

// Addr returns the bound listen address once Start has run, or the
// configured address before that. With a configured port of 0 the bound
// address carries the ephemeral port the kernel picked.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.boundAddr != "" {
		return s.boundAddr
	}
	return s.httpServer.Addr
}
