//go:build !windows

package recon

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
	"go.uber.org/zap"
)

// mdnsDefaultServices lists well-known mDNS service types to query.
var mdnsDefaultServices = []string{
	"_http._tcp",
	"_https._tcp",
	"_ssh._tcp",
	"_smb._tcp",
	"_ipp._tcp",
	"_printer._tcp",
	"_airplay._tcp",
	"_raop._tcp",
	"_googlecast._tcp",
	"_homekit._tcp",
	"_hap._tcp",
	"_workstation._tcp",
}

// MDNSResolver passively collects hostname announcements via
// mDNS/Bonjour. It maintains an IP-to-hostname cache that the scanner
// consults when naming devices; it never creates devices itself.
type MDNSResolver struct {
	logger   *zap.Logger
	interval time.Duration

	mu    sync.RWMutex
	names map[string]mdnsName // IP -> hostname
}

type mdnsName struct {
	hostname string
	seenAt   time.Time
}

// NewMDNSResolver creates a resolver querying on the given interval.
func NewMDNSResolver(logger *zap.Logger, interval time.Duration) *MDNSResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &MDNSResolver{
		logger:   logger,
		interval: interval,
		names:    make(map[string]mdnsName),
	}
}

// HostnameFor returns the cached hostname for an address, or "".
func (r *MDNSResolver) HostnameFor(ip string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[ip].hostname
}

// Run starts the periodic mDNS query loop. It blocks until ctx is
// cancelled; the caller runs it in a goroutine.
func (r *MDNSResolver) Run(ctx context.Context) {
	r.logger.Info("mDNS resolver started",
		zap.Duration("interval", r.interval),
		zap.Int("service_count", len(mdnsDefaultServices)),
	)

	r.queryAllServices(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("mDNS resolver stopped")
			return
		case <-ticker.C:
			r.queryAllServices(ctx)
		}
	}
}

func (r *MDNSResolver) queryAllServices(ctx context.Context) {
	var found int
	for _, svc := range mdnsDefaultServices {
		if ctx.Err() != nil {
			return
		}
		found += r.queryService(svc)
	}
	r.logger.Debug("mDNS sweep complete", zap.Int("names_found", found))
	r.expire()
}

// queryService queries a single service type and caches the hostnames
// it hears. Returns the number of entries recorded.
func (r *MDNSResolver) queryService(service string) int {
	entries := make(chan *mdns.ServiceEntry, 16)

	var found int
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for entry := range entries {
			if r.record(entry) {
				found++
			}
		}
	}()

	params := mdns.DefaultParams(service)
	params.Timeout = 3 * time.Second
	params.Entries = entries
	params.DisableIPv6 = true

	if err := mdns.Query(params); err != nil {
		r.logger.Debug("mDNS query failed",
			zap.String("service", service),
			zap.Error(err),
		)
	}
	close(entries)
	wg.Wait()

	return found
}

func (r *MDNSResolver) record(entry *mdns.ServiceEntry) bool {
	if entry == nil {
		return false
	}
	ip := extractMDNSIP(entry)
	if ip == "" {
		return false
	}
	hostname := strings.TrimSuffix(entry.Host, ".")
	if hostname == "" {
		hostname = entry.Name
	}
	if hostname == "" {
		return false
	}

	r.mu.Lock()
	r.names[ip] = mdnsName{hostname: hostname, seenAt: time.Now()}
	r.mu.Unlock()
	return true
}

// extractMDNSIP returns the best IPv4 address from a service entry.
func extractMDNSIP(entry *mdns.ServiceEntry) string {
	if entry.AddrV4 != nil && !entry.AddrV4.IsUnspecified() {
		return entry.AddrV4.String()
	}
	// Fallback to deprecated Addr field for older mDNS implementations.
	if entry.Addr != nil && !entry.Addr.IsUnspecified() {
		return entry.Addr.String()
	}
	return ""
}

// expire drops names not refreshed within 10 sweep intervals, so stale
// DHCP reassignments do not mislabel a new device forever.
func (r *MDNSResolver) expire() {
	cutoff := time.Now().Add(-10 * r.interval)
	r.mu.Lock()
	defer r.mu.Unlock()
	for ip, n := range r.names {
		if n.seenAt.Before(cutoff) {
			delete(r.names, ip)
		}
	}
}
