// Package dispatch forwards raised alerts to external channels. The
// only channel currently wired is MQTT; the module stays dormant when
// no broker is configured.
package dispatch

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/aetherlink/internal/plugin"
	"github.com/HerbHall/aetherlink/internal/pulse"
	"github.com/HerbHall/aetherlink/pkg/models"
)

// topicPrefix is where alerts land on the broker, suffixed by
// severity: aetherlink/alerts/warning, aetherlink/alerts/critical, ...
const topicPrefix = "aetherlink/alerts/"

// Module implements the dispatch notification module.
type Module struct {
	logger *zap.Logger
	config *viper.Viper
	bus    plugin.EventBus

	pub     publisher
	connect func(mqttSettings) (publisher, error)
}

// New creates a dispatch module.
func New(bus plugin.EventBus) *Module {
	return &Module{
		bus: bus,
		connect: func(s mqttSettings) (publisher, error) {
			return newMQTTPublisher(s)
		},
	}
}

func (m *Module) Name() string    { return "dispatch" }
func (m *Module) Version() string { return "0.2.0" }

func (m *Module) Init(config *viper.Viper, logger *zap.Logger) error {
	m.config = config
	m.logger = logger

	broker := config.GetString("mqtt.broker")
	if broker == "" {
		m.logger.Info("dispatch module initialized, no broker configured")
		return nil
	}

	clientID := config.GetString("mqtt.client_id")
	if clientID == "" {
		clientID = "aetherlink"
	}
	pub, err := m.connect(mqttSettings{
		Broker:   broker,
		ClientID: clientID,
		Username: config.GetString("mqtt.username"),
		Password: config.GetString("mqtt.password"),
		QoS:      byte(config.GetInt("mqtt.qos")),
	})
	if err != nil {
		// A missing broker should not take the whole server down.
		m.logger.Warn("mqtt broker unavailable, notifications disabled", zap.Error(err))
		return nil
	}
	m.pub = pub

	if m.bus != nil {
		m.bus.Subscribe(pulse.TopicAlertTriggered, m.onAlert)
	}

	m.logger.Info("dispatch module initialized", zap.String("broker", broker))
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	m.logger.Info("dispatch module started",
		zap.Bool("mqtt_enabled", m.pub != nil))
	return nil
}

func (m *Module) Stop() error {
	if m.pub != nil {
		m.pub.Close()
	}
	m.logger.Info("dispatch module stopped")
	return nil
}

func (m *Module) onAlert(ctx context.Context, ev plugin.Event) {
	alert, ok := ev.Payload.(models.Alert)
	if !ok || m.pub == nil {
		return
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		m.logger.Error("alert encoding failed", zap.String("id", alert.ID), zap.Error(err))
		return
	}
	topic := topicPrefix + string(alert.Severity)
	if err := m.pub.Publish(topic, payload); err != nil {
		m.logger.Warn("alert publish failed",
			zap.String("id", alert.ID),
			zap.String("topic", topic),
			zap.Error(err))
		return
	}
	m.logger.Debug("alert dispatched",
		zap.String("id", alert.ID),
		zap.String("topic", topic))
}

// Routes implements plugin.Plugin.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/notifiers", Handler: m.handleNotifiers},
	}
}

// handleNotifiers reports the state of each configured channel.
func (m *Module) handleNotifiers(w http.ResponseWriter, r *http.Request) {
	connected := m.pub != nil && m.pub.Connected()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode([]map[string]any{
		{
			"channel":    "mqtt",
			"configured": m.pub != nil,
			"connected":  connected,
		},
	})
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	if m.pub == nil {
		return plugin.HealthStatus{Healthy: true, Message: "no notifier configured"}
	}
	if !m.pub.Connected() {
		return plugin.HealthStatus{Healthy: false, Message: "mqtt broker disconnected"}
	}
	return plugin.HealthStatus{Healthy: true}
}
