// Package pulse implements alerting: rule evaluation over device
// observations, deduplicated active alerts, and bounded alert history.
package pulse

import (
	"context"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/aetherlink/internal/plugin"
	"github.com/HerbHall/aetherlink/internal/recon"
	"github.com/HerbHall/aetherlink/pkg/models"
)

// TopicAlertTriggered is published once per newly raised alert.
const TopicAlertTriggered = "pulse.alert.triggered"

// Module implements the pulse alerting module.
type Module struct {
	logger *zap.Logger
	config *viper.Viper
	bus    plugin.EventBus
	engine *Engine
}

// New creates a pulse module.
func New(bus plugin.EventBus) *Module {
	return &Module{bus: bus}
}

func (m *Module) Name() string    { return "pulse" }
func (m *Module) Version() string { return "0.2.0" }

func (m *Module) Init(config *viper.Viper, logger *zap.Logger) error {
	m.config = config
	m.logger = logger

	engine, err := NewEngine()
	if err != nil {
		return err
	}
	m.engine = engine

	if m.bus != nil {
		m.bus.Subscribe(recon.TopicDeviceDiscovered, m.onDeviceDiscovered)
		m.bus.Subscribe(recon.TopicDeviceLost, m.onDeviceLost)
		m.bus.Subscribe(recon.TopicQualityChanged, m.onQualityChanged)
		m.bus.Subscribe(recon.TopicSnapshotUpdated, m.onSnapshot)
		m.bus.Subscribe(recon.TopicDuplicateIP, m.onDuplicateIP)
	}

	m.logger.Info("pulse module initialized",
		zap.Int("rules", len(m.engine.Rules())))
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	m.logger.Info("pulse module started")
	return nil
}

func (m *Module) Stop() error {
	m.logger.Info("pulse module stopped")
	return nil
}

func (m *Module) onDeviceDiscovered(ctx context.Context, ev plugin.Event) {
	de, ok := ev.Payload.(recon.DeviceEvent)
	if !ok {
		return
	}
	// First connection means first sighting; reconnects skip the
	// new-device alert.
	if de.Device.ConnectionCount == 1 {
		m.emit(ctx, m.engine.RaiseNewDevice(de.Device))
	}
	m.emit(ctx, m.engine.EvaluateThresholds(de.Device))
}

func (m *Module) onDeviceLost(ctx context.Context, ev plugin.Event) {
	de, ok := ev.Payload.(recon.DeviceEvent)
	if !ok {
		return
	}
	m.emit(ctx, m.engine.RaiseOffline(de.Device))
}

func (m *Module) onQualityChanged(ctx context.Context, ev plugin.Event) {
	de, ok := ev.Payload.(recon.DeviceEvent)
	if !ok {
		return
	}
	m.emit(ctx, m.engine.EvaluateThresholds(de.Device))
}

func (m *Module) onSnapshot(ctx context.Context, ev plugin.Event) {
	se, ok := ev.Payload.(recon.SnapshotEvent)
	if !ok {
		return
	}
	for _, d := range se.Devices {
		m.emit(ctx, m.engine.EvaluateThresholds(d))
	}
}

func (m *Module) onDuplicateIP(ctx context.Context, ev plugin.Event) {
	de, ok := ev.Payload.(recon.DuplicateIPEvent)
	if !ok {
		return
	}
	m.emit(ctx, m.engine.RaiseDuplicateIP(de.IP, de.MACs))
}

// emit publishes each newly raised alert to the bus.
func (m *Module) emit(ctx context.Context, alerts []models.Alert) {
	for _, a := range alerts {
		alertsRaised.WithLabelValues(string(a.Severity)).Inc()
		m.logger.Info("alert raised",
			zap.String("id", a.ID),
			zap.String("category", string(a.Category)),
			zap.String("severity", string(a.Severity)))
		if m.bus != nil {
			m.bus.PublishAsync(ctx, plugin.Event{
				Topic:     TopicAlertTriggered,
				Source:    "pulse",
				Timestamp: time.Now(),
				Payload:   a,
			})
		}
	}
	alertsActive.Set(float64(len(m.engine.Active())))
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	return plugin.HealthStatus{
		Healthy: true,
		Details: map[string]any{
			"active_alerts": len(m.engine.Active()),
			"rules":         len(m.engine.Rules()),
		},
	}
}
