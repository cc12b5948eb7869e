package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Registry manages the lifecycle of all registered modules.
type Registry struct {
	mu          sync.RWMutex
	plugins     map[string]Plugin
	order       []string
	initialized map[string]bool
	logger      *zap.Logger
}

// NewRegistry creates a new module registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		plugins:     make(map[string]Plugin),
		initialized: make(map[string]bool),
		logger:      logger,
	}
}

// Register adds a module to the registry.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("plugin %q already registered", name)
	}

	r.plugins[name] = p
	r.order = append(r.order, name)
	r.logger.Info("plugin registered", zap.String("name", name), zap.String("version", p.Version()))
	return nil
}

// InitAll initializes all registered modules with their configuration
// subtree (modules.<name>). Modules explicitly disabled in config are
// skipped and stay dormant for the rest of the lifecycle: StartAll,
// StopAll, AllRoutes, and HealthAll all ignore them.
func (r *Registry) InitAll(config *viper.Viper) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		p := r.plugins[name]

		key := "modules." + name
		pluginConfig := config.Sub(key)
		if pluginConfig == nil {
			pluginConfig = viper.New()
		}

		if config.IsSet(key+".enabled") && !config.GetBool(key+".enabled") {
			r.logger.Info("plugin disabled, skipping", zap.String("name", name))
			continue
		}

		r.logger.Info("initializing plugin", zap.String("name", name))
		if err := p.Init(pluginConfig, r.logger.Named(name)); err != nil {
			return fmt.Errorf("failed to initialize plugin %q: %w", name, err)
		}
		r.initialized[name] = true
	}
	return nil
}

// StartAll starts all initialized modules.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		if !r.initialized[name] {
			continue
		}
		p := r.plugins[name]
		r.logger.Info("starting plugin", zap.String("name", name))
		if err := p.Start(ctx); err != nil {
			return fmt.Errorf("failed to start plugin %q: %w", name, err)
		}
	}
	return nil
}

// StopAll stops all modules in reverse registration order.
func (r *Registry) StopAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		if !r.initialized[name] {
			continue
		}
		p := r.plugins[name]
		r.logger.Info("stopping plugin", zap.String("name", name))
		if err := p.Stop(); err != nil {
			r.logger.Error("failed to stop plugin", zap.String("name", name), zap.Error(err))
		}
	}
}

// Get returns a module by name.
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// All returns all registered modules in registration order.
func (r *Registry) All() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.plugins[name])
	}
	return result
}

// AllRoutes returns all routes from all registered modules, keyed by
// module name.
func (r *Registry) AllRoutes() map[string][]Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make(map[string][]Route)
	for _, name := range r.order {
		if !r.initialized[name] {
			continue
		}
		p := r.plugins[name]
		if pr := p.Routes(); len(pr) > 0 {
			routes[name] = pr
		}
	}
	return routes
}

// HealthAll collects health from every module implementing
// HealthChecker, keyed by module name.
func (r *Registry) HealthAll(ctx context.Context) map[string]HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]HealthStatus)
	for _, name := range r.order {
		if !r.initialized[name] {
			continue
		}
		if hc, ok := r.plugins[name].(HealthChecker); ok {
			out[name] = hc.Health(ctx)
		}
	}
	return out
}
