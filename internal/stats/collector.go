package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	gopsnet "github.com/shirou/gopsutil/v3/net"
)

// ioSample is one reading of the aggregate network counters.
type ioSample struct {
	at        time.Time
	bytesSent uint64
	bytesRecv uint64
}

// Collector samples host-level counters: uptime and aggregate network
// throughput derived from successive interface counter readings.
type Collector struct {
	mu   sync.Mutex
	prev ioSample
	last ioSample

	uptimeFn   func(ctx context.Context) (uint64, error)
	countersFn func(ctx context.Context) (ioSample, error)
}

// NewCollector creates a collector reading from gopsutil.
func NewCollector() *Collector {
	return &Collector{
		uptimeFn:   host.UptimeWithContext,
		countersFn: readCounters,
	}
}

func readCounters(ctx context.Context) (ioSample, error) {
	counters, err := gopsnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return ioSample{}, fmt.Errorf("read io counters: %w", err)
	}
	if len(counters) == 0 {
		return ioSample{}, fmt.Errorf("no io counters reported")
	}
	return ioSample{
		at:        time.Now(),
		bytesSent: counters[0].BytesSent,
		bytesRecv: counters[0].BytesRecv,
	}, nil
}

// Sample takes a fresh counter reading. Throughput needs two readings;
// callers sample on a ticker.
func (c *Collector) Sample(ctx context.Context) error {
	s, err := c.countersFn(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.prev = c.last
	c.last = s
	c.mu.Unlock()
	return nil
}

// ThroughputMbps returns the aggregate send+receive rate between the
// last two samples, in megabits per second. Zero until two samples
// exist.
func (c *Collector) ThroughputMbps() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.prev.at.IsZero() || c.last.at.IsZero() {
		return 0
	}
	elapsed := c.last.at.Sub(c.prev.at).Seconds()
	if elapsed <= 0 {
		return 0
	}
	deltaBytes := (c.last.bytesSent - c.prev.bytesSent) + (c.last.bytesRecv - c.prev.bytesRecv)
	return float64(deltaBytes) * 8 / 1e6 / elapsed
}

// DataUsageGB returns total bytes moved since boot, in gigabytes.
func (c *Collector) DataUsageGB() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last.at.IsZero() {
		return 0
	}
	return float64(c.last.bytesSent+c.last.bytesRecv) / 1e9
}

// Uptime returns the host uptime formatted for display.
func (c *Collector) Uptime(ctx context.Context) (string, error) {
	secs, err := c.uptimeFn(ctx)
	if err != nil {
		return "", fmt.Errorf("read uptime: %w", err)
	}
	return formatUptime(time.Duration(secs) * time.Second), nil
}

// formatUptime renders a duration as "47d 12h", "3h 20m", or "15m".
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
