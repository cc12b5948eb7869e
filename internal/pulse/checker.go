package pulse

import (
	"context"
	"fmt"
	"runtime"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/HerbHall/aetherlink/internal/recon"
)

// ICMPChecker measures latency and loss via ICMP echo using pro-bing.
type ICMPChecker struct {
	timeout time.Duration
	count   int
}

// NewICMPChecker creates a checker sending count pings per probe.
func NewICMPChecker(timeout time.Duration, count int) *ICMPChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if count <= 0 {
		count = 3
	}
	return &ICMPChecker{timeout: timeout, count: count}
}

// Probe pings the target once and folds the statistics into a probe
// result. It satisfies recon.ProbeFunc.
func (c *ICMPChecker) Probe(ctx context.Context, target string) (*recon.ProbeResult, error) {
	pinger, err := probing.NewPinger(target)
	if err != nil {
		return nil, fmt.Errorf("create pinger: %w", err)
	}

	pinger.Count = c.count
	pinger.Timeout = c.timeout
	pinger.SetPrivileged(runtime.GOOS == "windows")

	// Run pinger in a goroutine for context cancellation.
	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()

	select {
	case runErr := <-done:
		if runErr != nil {
			return nil, fmt.Errorf("ping %s: %w", target, runErr)
		}
		stats := pinger.Statistics()
		result := &recon.ProbeResult{
			LossPct: stats.PacketLoss,
		}
		if stats.PacketsRecv > 0 {
			ms := float64(stats.AvgRtt) / float64(time.Millisecond)
			result.LatencyMs = &ms
		} else {
			result.LossPct = 100
		}
		return result, nil

	case <-ctx.Done():
		pinger.Stop()
		return nil, ctx.Err()
	}
}
