package pulse

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/aetherlink/internal/plugin"
	"github.com/HerbHall/aetherlink/internal/recon"
	"github.com/HerbHall/aetherlink/internal/testutil"
	"github.com/HerbHall/aetherlink/pkg/models"
)

func newTestModule(t *testing.T) (*Module, *testutil.MockBus) {
	t.Helper()
	bus := testutil.NewMockBus()
	m := New(bus)
	if err := m.Init(viper.New(), zap.NewNop()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return m, bus
}

func reconEvent(topic string, payload any) plugin.Event {
	return plugin.Event{
		Topic:     topic,
		Source:    "recon",
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

func TestNewDeviceEventRaisesInfoAlert(t *testing.T) {
	m, bus := newTestModule(t)
	ctx := context.Background()

	d := models.Device{ID: "aabbccddee01", Name: "New Phone", IP: "192.168.1.77", ConnectionCount: 1}
	m.onDeviceDiscovered(ctx, reconEvent(recon.TopicDeviceDiscovered, recon.DeviceEvent{
		Type:   recon.DeviceConnected,
		Device: d,
	}))

	active := m.engine.Active()
	if len(active) != 1 || active[0].Category != models.AlertNewDevice {
		t.Fatalf("active = %+v, want single new-device alert", active)
	}

	published := bus.EventsByTopic(TopicAlertTriggered)
	if len(published) != 1 {
		t.Fatalf("published = %d alert events, want 1", len(published))
	}
	if a, ok := published[0].Payload.(models.Alert); !ok || a.ID != "newdevice-aabbccddee01" {
		t.Errorf("unexpected payload: %+v", published[0].Payload)
	}
}

func TestReconnectSkipsNewDeviceAlert(t *testing.T) {
	m, _ := newTestModule(t)
	ctx := context.Background()

	d := models.Device{ID: "aabbccddee01", Name: "Phone", ConnectionCount: 3}
	m.onDeviceDiscovered(ctx, reconEvent(recon.TopicDeviceDiscovered, recon.DeviceEvent{
		Type:   recon.DeviceConnected,
		Device: d,
	}))

	if active := m.engine.Active(); len(active) != 0 {
		t.Errorf("reconnect raised alerts: %+v", active)
	}
}

func TestDeviceLostRaisesOfflineAlert(t *testing.T) {
	m, bus := newTestModule(t)
	ctx := context.Background()

	d := models.Device{ID: "aabbccddee01", Name: "Printer"}
	m.onDeviceLost(ctx, reconEvent(recon.TopicDeviceLost, recon.DeviceEvent{
		Type:   recon.DeviceDisconnected,
		Device: d,
	}))

	active := m.engine.Active()
	if len(active) != 1 || active[0].ID != "offline-aabbccddee01" {
		t.Fatalf("active = %+v", active)
	}
	if len(bus.EventsByTopic(TopicAlertTriggered)) != 1 {
		t.Error("offline alert not published")
	}
}

func TestSnapshotEvaluatesThresholds(t *testing.T) {
	m, _ := newTestModule(t)
	ctx := context.Background()

	snap := recon.SnapshotEvent{Devices: []models.Device{
		{ID: "aabbccddee01", Name: "OK", LatencyMs: floatPtr(10)},
		{ID: "aabbccddee02", Name: "Slow", LatencyMs: floatPtr(450)},
	}}
	m.onSnapshot(ctx, reconEvent(recon.TopicSnapshotUpdated, snap))

	active := m.engine.Active()
	if len(active) != 1 || active[0].ID != "latency-aabbccddee02" {
		t.Fatalf("active = %+v, want single latency alert", active)
	}
}

func TestDuplicateIPEventRaisesCriticalAlert(t *testing.T) {
	m, _ := newTestModule(t)
	ctx := context.Background()

	m.onDuplicateIP(ctx, reconEvent(recon.TopicDuplicateIP, recon.DuplicateIPEvent{
		IP:   "192.168.1.20",
		MACs: []string{"aa:bb:cc:dd:ee:02", "aa:bb:cc:dd:ee:03"},
	}))

	active := m.engine.Active()
	if len(active) != 1 || active[0].Severity != models.SeverityCritical {
		t.Fatalf("active = %+v", active)
	}
}

func TestMismatchedPayloadIgnored(t *testing.T) {
	m, _ := newTestModule(t)
	ctx := context.Background()

	m.onDeviceDiscovered(ctx, reconEvent(recon.TopicDeviceDiscovered, "not a device event"))
	m.onDuplicateIP(ctx, reconEvent(recon.TopicDuplicateIP, 42))

	if active := m.engine.Active(); len(active) != 0 {
		t.Errorf("bad payloads raised alerts: %+v", active)
	}
}
