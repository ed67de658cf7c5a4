// Package api exposes the civicsim simulation service over HTTP using
// Gin: a thin external collaborator that only decodes requests, calls
// into the core, and encodes responses. One handler file per resource
// (handler_*.go), with a single Deps struct wiring every dependency at
// construction time.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/civicsim/orchestrator/pkg/adopter"
	"github.com/civicsim/orchestrator/pkg/cache"
	"github.com/civicsim/orchestrator/pkg/config"
	"github.com/civicsim/orchestrator/pkg/directmessenger"
	"github.com/civicsim/orchestrator/pkg/jobstore"
	"github.com/civicsim/orchestrator/pkg/orchestrator"
	"github.com/civicsim/orchestrator/pkg/overrides"
	"github.com/civicsim/orchestrator/pkg/session"
	"github.com/civicsim/orchestrator/pkg/version"
)

// Server is the HTTP API server.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server

	orchestrator *orchestrator.Orchestrator
	messenger    *directmessenger.DirectMessenger
	adopter      *adopter.Adopter
	sessions     *session.Store
	jobs         jobstore.Store
	cache        *cache.Cache
	overrides    *overrides.Store
	zones        *config.ZoneCatalog
	agents       *config.AgentCatalog
	models       *config.ModelRegistry
}

// Deps bundles every already-constructed component the API layer calls
// into, mirroring orchestrator.Deps's one-struct-per-growing-constructor
// shape.
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Messenger    *directmessenger.DirectMessenger
	Adopter      *adopter.Adopter
	Sessions     *session.Store
	Jobs         jobstore.Store
	Cache        *cache.Cache
	Overrides    *overrides.Store
	Zones        *config.ZoneCatalog
	Agents       *config.AgentCatalog
	Models       *config.ModelRegistry
}

// NewServer builds a Server and registers every route.
func NewServer(deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery(), requestLogger())

	s := &Server{
		engine:       e,
		orchestrator: deps.Orchestrator,
		messenger:    deps.Messenger,
		adopter:      deps.Adopter,
		sessions:     deps.Sessions,
		jobs:         deps.Jobs,
		cache:        deps.Cache,
		overrides:    deps.Overrides,
		zones:        deps.Zones,
		agents:       deps.Agents,
		models:       deps.Models,
	}
	s.setupRoutes()
	return s
}

// requestLogger logs each request at its completion via slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// setupRoutes registers every route the API exposes.
func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)

	s.engine.POST("/simulate/sync", s.simulateSyncHandler)
	s.engine.POST("/simulate/start", s.simulateStartHandler)
	s.engine.GET("/simulate/status/:jobID", s.simulateStatusHandler)

	s.engine.POST("/dm", s.dmHandler)
	s.engine.POST("/adopt", s.adoptHandler)

	s.engine.GET("/graph/:sessionID", s.graphHandler)
	s.engine.GET("/active-calls/:sessionID", s.activeCallsHandler)

	s.engine.GET("/cache/:key", s.cacheGetHandler)
	s.engine.POST("/promote", s.promoteHandler)
	s.engine.POST("/cache/invalidate", s.cacheInvalidateHandler)

	s.engine.GET("/overrides/:scenarioID/:agentKey", s.getOverrideHandler)
	s.engine.PUT("/overrides/:scenarioID/:agentKey", s.setOverrideHandler)
	s.engine.DELETE("/overrides/:scenarioID/:agentKey", s.resetOverrideHandler)
	s.engine.DELETE("/overrides/:scenarioID", s.resetAllOverridesHandler)
}

// Handler returns the underlying gin.Engine, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler { return s.engine }

// Start starts the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener, used
// by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.engine}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": version.Full(),
		"configuration": gin.H{
			"zones":  s.zones.Len(),
			"agents": s.agents.Len(),
		},
	})
}

// sessionOr400 resolves a session id param to its Threads record,
// creating one if absent, or writes a 400 response and returns false.
func (s *Server) sessionOr400(c *gin.Context, param string) (string, *session.Threads, bool) {
	id := c.Param(param)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s is required", param)})
		return "", nil, false
	}
	sessionID, th := s.sessions.GetOrCreate(id)
	return sessionID, th, true
}
