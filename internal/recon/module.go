// Package recon implements network discovery and device state
// tracking: the source chain, the MAC-keyed device registry, the scan
// cache, and the activity log.
package recon

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HerbHall/aetherlink/internal/plugin"
	"github.com/HerbHall/aetherlink/pkg/models"
)

// Module implements the recon discovery module.
type Module struct {
	logger  *zap.Logger
	config  *viper.Viper
	bus     plugin.EventBus
	probe   ProbeFunc
	sources []Source

	registry *Registry
	scanner  *Scanner
	cache    *ScanCache
	mdns     *MDNSResolver

	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures optional module collaborators before Init.
type Option func(*Module)

// WithProbe injects the reachability prober used to measure latency
// and loss during discovery.
func WithProbe(p ProbeFunc) Option {
	return func(m *Module) { m.probe = p }
}

// WithSources overrides the discovery source chain (tests only).
func WithSources(sources ...Source) Option {
	return func(m *Module) { m.sources = sources }
}

// New creates a recon module.
func New(bus plugin.EventBus, opts ...Option) *Module {
	m := &Module{bus: bus}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Module) Name() string    { return "recon" }
func (m *Module) Version() string { return "0.2.0" }

func (m *Module) Init(config *viper.Viper, logger *zap.Logger) error {
	m.config = config
	m.logger = logger

	m.interval = config.GetDuration("scan_interval")
	if m.interval <= 0 {
		m.interval = 5 * time.Second
	}
	ttl := config.GetDuration("cache_ttl")
	if ttl <= 0 {
		ttl = m.interval
	}

	m.registry = NewRegistry(config.GetInt("activity_capacity"))
	m.mdns = NewMDNSResolver(logger.Named("mdns"), config.GetDuration("mdns_interval"))

	sources := m.sources
	if sources == nil {
		sources = m.buildSources()
	}
	m.scanner = NewScanner(ScannerOpts{
		Sources:    sources,
		Vendors:    NewVendorTable(),
		Hostnames:  m.mdns,
		Probe:      m.probe,
		ProbeRate:  rate.Limit(m.config.GetFloat64("probe_rate")),
		SampleSize: m.config.GetInt("probe_sample_size"),
		Known:      m.registry.Known,
		Logger:     logger,
	})
	m.cache = NewScanCache(ttl, m.runCycle)

	m.logger.Info("recon module initialized",
		zap.Duration("scan_interval", m.interval),
		zap.Duration("cache_ttl", ttl))
	return nil
}

// buildSources assembles the source chain from config: arp-scan first,
// nmap when targets are configured, neighbor-table fallback last.
func (m *Module) buildSources() []Source {
	timeout := m.config.GetDuration("source_timeout")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	sources := []Source{
		newArpScanSource(timeout, m.config.GetString("interface")),
	}
	if targets := m.config.GetStringSlice("nmap_targets"); len(targets) > 0 {
		sources = append(sources, newNmapSource(targets, timeout))
	}
	return append(sources, newNeighborSource(timeout))
}

func (m *Module) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		m.mdns.Run(runCtx)
	}()
	go func() {
		defer m.wg.Done()
		m.loop(runCtx)
	}()

	m.logger.Info("recon module started")
	return nil
}

func (m *Module) Stop() error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.logger.Info("recon module stopped")
	return nil
}

// loop drives discovery on a fixed cadence. The first cycle fires
// immediately so the snapshot is populated before the first tick.
func (m *Module) loop(ctx context.Context) {
	if _, err := m.cache.Get(ctx, true); err != nil {
		m.logger.Warn("initial discovery cycle failed", zap.Error(err))
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.cache.Get(ctx, true); err != nil {
				m.logger.Warn("discovery cycle failed", zap.Error(err))
			}
		}
	}
}

// runCycle performs one full discovery pass: scan, reconcile, publish.
// It is invoked only through the scan cache, which serializes cycles.
func (m *Module) runCycle(ctx context.Context) ([]models.Device, error) {
	started := time.Now()

	candidates, dups, err := m.scanner.Discover(ctx)
	if err != nil {
		scansTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	snapshot, events := m.registry.Reconcile(candidates)

	// Device and duplicate events are delivered synchronously so
	// consumers see them in reconcile order, before the snapshot that
	// already reflects them.
	for _, ev := range events {
		m.publish(ctx, topicFor(ev.Type), ev)
	}
	for _, d := range dups {
		m.publish(ctx, TopicDuplicateIP, DuplicateIPEvent{IP: d.IP, MACs: d.MACs})
	}

	online, known := m.registry.Counts()
	m.publishAsync(ctx, TopicSnapshotUpdated, SnapshotEvent{
		Devices: snapshot,
		Online:  online,
		Known:   known,
	})

	scansTotal.WithLabelValues("ok").Inc()
	scanDuration.Observe(time.Since(started).Seconds())
	devicesOnline.Set(float64(online))
	devicesKnown.Set(float64(known))

	m.logger.Debug("reconcile complete",
		zap.Int("online", online),
		zap.Int("known", known),
		zap.Int("events", len(events)),
		zap.Duration("elapsed", time.Since(started)))
	return snapshot, nil
}

func (m *Module) publish(ctx context.Context, topic string, payload any) {
	if m.bus == nil || topic == "" {
		return
	}
	ev := plugin.Event{
		Topic:     topic,
		Source:    "recon",
		Timestamp: time.Now(),
		Payload:   payload,
	}
	if err := m.bus.Publish(ctx, ev); err != nil {
		m.logger.Warn("event publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

func (m *Module) publishAsync(ctx context.Context, topic string, payload any) {
	if m.bus == nil || topic == "" {
		return
	}
	m.bus.PublishAsync(ctx, plugin.Event{
		Topic:     topic,
		Source:    "recon",
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// Devices returns the current snapshot, refreshing through the cache.
func (m *Module) Devices(ctx context.Context, force bool) ([]models.Device, error) {
	return m.cache.Get(ctx, force)
}

// Device looks up a single device by registry ID.
func (m *Module) Device(id string) (models.Device, bool) {
	return m.registry.Get(id)
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	online, known := m.registry.Counts()
	details := map[string]any{
		"devices_online": online,
		"devices_known":  known,
	}
	if age, ok := m.cache.Age(); ok {
		details["snapshot_age_seconds"] = int(age.Seconds())
	}
	healthy := true
	msg := ""
	if age, ok := m.cache.Age(); ok && age > 3*m.interval {
		healthy = false
		msg = "snapshot is stale"
	}
	return plugin.HealthStatus{Healthy: healthy, Message: msg, Details: details}
}
