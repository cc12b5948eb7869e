// Package stats reports host-level network statistics: device count,
// throughput, data usage, and uptime.
package stats

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/aetherlink/internal/plugin"
	"github.com/HerbHall/aetherlink/internal/recon"
	"github.com/HerbHall/aetherlink/pkg/models"
)

// Module implements the stats module.
type Module struct {
	logger    *zap.Logger
	config    *viper.Viper
	bus       plugin.EventBus
	collector *Collector

	onlineDevices atomic.Int64
	interval      time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a stats module.
func New(bus plugin.EventBus) *Module {
	return &Module{bus: bus, collector: NewCollector()}
}

func (m *Module) Name() string    { return "stats" }
func (m *Module) Version() string { return "0.2.0" }

func (m *Module) Init(config *viper.Viper, logger *zap.Logger) error {
	m.config = config
	m.logger = logger

	m.interval = config.GetDuration("sample_interval")
	if m.interval <= 0 {
		m.interval = 10 * time.Second
	}

	if m.bus != nil {
		m.bus.Subscribe(recon.TopicSnapshotUpdated, m.onSnapshot)
	}

	m.logger.Info("stats module initialized",
		zap.Duration("sample_interval", m.interval))
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.sampleLoop(runCtx)
	}()

	m.logger.Info("stats module started")
	return nil
}

func (m *Module) Stop() error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.logger.Info("stats module stopped")
	return nil
}

func (m *Module) sampleLoop(ctx context.Context) {
	if err := m.collector.Sample(ctx); err != nil {
		m.logger.Debug("counter sample failed", zap.Error(err))
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.collector.Sample(ctx); err != nil {
				m.logger.Debug("counter sample failed", zap.Error(err))
			}
		}
	}
}

func (m *Module) onSnapshot(ctx context.Context, ev plugin.Event) {
	if se, ok := ev.Payload.(recon.SnapshotEvent); ok {
		m.onlineDevices.Store(int64(se.Online))
	}
}

// Routes implements plugin.Plugin.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/stats", Handler: m.handleStats},
	}
}

// handleStats returns the composite network statistics view.
func (m *Module) handleStats(w http.ResponseWriter, r *http.Request) {
	uptime, err := m.collector.Uptime(r.Context())
	if err != nil {
		m.logger.Debug("uptime read failed", zap.Error(err))
		uptime = "unknown"
	}

	stats := models.NetworkStats{
		ConnectedDevices: int(m.onlineDevices.Load()),
		NetworkSpeedMbps: round1(m.collector.ThroughputMbps()),
		DataUsageGB:      round1(m.collector.DataUsageGB()),
		Uptime:           uptime,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	return plugin.HealthStatus{
		Healthy: true,
		Details: map[string]any{
			"connected_devices": m.onlineDevices.Load(),
		},
	}
}
