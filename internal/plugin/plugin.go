// Package plugin defines the contracts AetherLink feature modules
// implement and the registry that drives their lifecycle.
package plugin

import (
	"context"
	"net/http"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Route represents an HTTP route exposed by a module. Routes are
// mounted by the server under /api/v1/{module}{path}.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Plugin defines the interface that all AetherLink modules implement.
type Plugin interface {
	// Name returns the module's unique identifier (e.g. "recon", "pulse").
	Name() string

	// Version returns the module's semantic version.
	Version() string

	// Init initializes the module with its configuration subtree and a
	// named logger.
	Init(config *viper.Viper, logger *zap.Logger) error

	// Start begins the module's background operations. Long-running
	// loops must exit when ctx is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the module.
	Stop() error

	// Routes returns the HTTP routes this module exposes.
	Routes() []Route
}

// HealthStatus reports a module's runtime health for diagnostics.
type HealthStatus struct {
	Healthy bool           `json:"healthy"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthChecker is implemented by modules that report health and
// diagnostic counters (cache age, device counts, subscriber counts).
type HealthChecker interface {
	Health(ctx context.Context) HealthStatus
}
