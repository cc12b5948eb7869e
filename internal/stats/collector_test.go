package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{47*24*time.Hour + 12*time.Hour, "47d 12h"},
		{3*time.Hour + 20*time.Minute, "3h 20m"},
		{15 * time.Minute, "15m"},
		{0, "0m"},
		{24 * time.Hour, "1d 0h"},
	}

	for _, tt := range tests {
		if got := formatUptime(tt.d); got != tt.want {
			t.Errorf("formatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestThroughputFromSuccessiveSamples(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	samples := []ioSample{
		{at: base, bytesSent: 1_000_000, bytesRecv: 2_000_000},
		{at: base.Add(10 * time.Second), bytesSent: 6_000_000, bytesRecv: 12_000_000},
	}

	var i int
	c := &Collector{
		countersFn: func(ctx context.Context) (ioSample, error) {
			s := samples[i]
			i++
			return s, nil
		},
	}

	ctx := context.Background()
	if err := c.Sample(ctx); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if got := c.ThroughputMbps(); got != 0 {
		t.Errorf("single sample throughput = %v, want 0", got)
	}

	if err := c.Sample(ctx); err != nil {
		t.Fatalf("Sample: %v", err)
	}

	// 15 MB in 10s = 12 Mbps.
	assert.InDelta(t, 12, c.ThroughputMbps(), 0.001)
	assert.InDelta(t, 0.018, c.DataUsageGB(), 0.0001)
}

func TestUptimeFormatting(t *testing.T) {
	c := &Collector{
		uptimeFn: func(ctx context.Context) (uint64, error) {
			return 47*24*3600 + 12*3600, nil
		},
	}

	got, err := c.Uptime(context.Background())
	if err != nil {
		t.Fatalf("Uptime: %v", err)
	}
	if got != "47d 12h" {
		t.Errorf("uptime = %q, want 47d 12h", got)
	}
}
