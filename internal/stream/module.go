// Package stream pushes live network state to WebSocket subscribers:
// snapshot updates, device events, and alerts, plus a heartbeat.
package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/aetherlink/internal/plugin"
	"github.com/HerbHall/aetherlink/internal/pulse"
	"github.com/HerbHall/aetherlink/internal/recon"
)

// Frame types pushed to subscribers.
const (
	FrameNetworkUpdate = "network_update"
	FrameDeviceEvent   = "device_event"
	FrameAlert         = "alert"
	FramePing          = "ping"
)

// Module implements the stream fan-out module.
type Module struct {
	logger *zap.Logger
	config *viper.Viper
	bus    plugin.EventBus
	hub    *Hub

	pingInterval time.Duration
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// New creates a stream module.
func New(bus plugin.EventBus) *Module {
	return &Module{bus: bus}
}

func (m *Module) Name() string    { return "stream" }
func (m *Module) Version() string { return "0.2.0" }

func (m *Module) Init(config *viper.Viper, logger *zap.Logger) error {
	m.config = config
	m.logger = logger
	m.hub = NewHub(logger.Named("hub"))

	m.pingInterval = config.GetDuration("ping_interval")
	if m.pingInterval <= 0 {
		m.pingInterval = 30 * time.Second
	}

	if m.bus != nil {
		m.bus.Subscribe(recon.TopicSnapshotUpdated, m.onSnapshot)
		m.bus.Subscribe(recon.TopicDeviceDiscovered, m.onDeviceEvent)
		m.bus.Subscribe(recon.TopicDeviceLost, m.onDeviceEvent)
		m.bus.Subscribe(recon.TopicAddressChanged, m.onDeviceEvent)
		m.bus.Subscribe(recon.TopicQualityChanged, m.onDeviceEvent)
		m.bus.Subscribe(pulse.TopicAlertTriggered, m.onAlert)
	}

	m.logger.Info("stream module initialized",
		zap.Duration("ping_interval", m.pingInterval))
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.heartbeat(runCtx)
	}()

	m.logger.Info("stream module started")
	return nil
}

func (m *Module) Stop() error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.hub.CloseAll()
	m.logger.Info("stream module stopped")
	return nil
}

// Routes implements plugin.Plugin.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/ws", Handler: m.handleWS},
	}
}

// handleWS upgrades the connection and parks it in the hub until the
// client goes away. Clients are write-only from the server's view;
// reads are drained solely for close detection.
func (m *Module) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: m.config.GetStringSlice("allowed_origins"),
	})
	if err != nil {
		m.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	ctx = c.CloseRead(ctx)

	id := m.hub.add(c, cancel)
	defer m.hub.remove(id)

	<-ctx.Done()
}

func (m *Module) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(m.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.hub.Broadcast(FramePing, nil)
		}
	}
}

func (m *Module) onSnapshot(ctx context.Context, ev plugin.Event) {
	m.hub.Broadcast(FrameNetworkUpdate, ev.Payload)
}

func (m *Module) onDeviceEvent(ctx context.Context, ev plugin.Event) {
	m.hub.Broadcast(FrameDeviceEvent, ev.Payload)
}

func (m *Module) onAlert(ctx context.Context, ev plugin.Event) {
	m.hub.Broadcast(FrameAlert, ev.Payload)
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	return plugin.HealthStatus{
		Healthy: true,
		Details: map[string]any{"subscribers": m.hub.Count()},
	}
}
