// Package server hosts the HTTP surface: module route mounting, health
// and diagnostics aggregation, and the Prometheus scrape endpoint.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/HerbHall/aetherlink/internal/plugin"
	"github.com/HerbHall/aetherlink/internal/version"
)

// Server is the main AetherLink server.
type Server struct {
	httpServer *http.Server
	registry   *plugin.Registry
	logger     *zap.Logger
	mux        *http.ServeMux
}

// New creates a new Server instance.
func New(addr string, reg *plugin.Registry, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		registry: reg,
		logger:   logger,
		mux:      mux,
	}

	s.registerCoreRoutes()
	s.mountModuleRoutes()

	return s
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/modules", s.handleModules)
	s.mux.HandleFunc("GET /api/v1/diagnostics", s.handleDiagnostics)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// mountModuleRoutes registers all module routes under /api/v1/{module}/.
func (s *Server) mountModuleRoutes() {
	allRoutes := s.registry.AllRoutes()
	for moduleName, routes := range allRoutes {
		for _, route := range routes {
			pattern := fmt.Sprintf("%s /api/v1/%s%s", route.Method, moduleName, route.Path)
			s.mux.HandleFunc(pattern, route.Handler)
			s.logger.Debug("mounted route",
				zap.String("module", moduleName),
				zap.String("pattern", pattern),
			)
		}
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth returns the server health status. The server is degraded
// when any module reports unhealthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	for name, h := range s.registry.HealthAll(r.Context()) {
		if !h.Healthy {
			status = "degraded"
			s.logger.Debug("module unhealthy",
				zap.String("module", name),
				zap.String("message", h.Message))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-AetherLink-Version", version.Short())
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  status,
		"service": "aetherlink",
		"version": version.Map(),
	})
}

// handleModules returns the list of registered modules.
func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	type moduleResponse struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	modules := s.registry.All()
	info := make([]moduleResponse, 0, len(modules))
	for _, p := range modules {
		info = append(info, moduleResponse{Name: p.Name(), Version: p.Version()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-AetherLink-Version", version.Short())
	_ = json.NewEncoder(w).Encode(info)
}

// handleDiagnostics returns per-module health and counters.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.registry.HealthAll(r.Context()))
}
