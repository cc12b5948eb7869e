package recon

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HerbHall/aetherlink/pkg/models"
)

// ProbeFunc measures reachability of a single address, returning the
// average round-trip in milliseconds (nil when no reply arrived) and
// the observed loss percentage. Injected so the discovery layer stays
// free of ICMP specifics.
type ProbeFunc func(ctx context.Context, ip string) (*ProbeResult, error)

// ProbeResult carries one probe measurement.
type ProbeResult struct {
	LatencyMs *float64
	LossPct   float64
}

// HostnameResolver supplies a best-effort hostname for an address.
// Implementations return "" when nothing is known.
type HostnameResolver interface {
	HostnameFor(ip string) string
}

// Scanner runs the discovery source chain and enriches the raw
// candidates with vendor, hostname, and probe data before they reach
// the registry.
type Scanner struct {
	sources    []Source
	vendors    *VendorTable
	hostnames  HostnameResolver
	probe      ProbeFunc
	limiter    *rate.Limiter
	sampleSize int
	known      func(mac string) bool
	logger     *zap.Logger

	cursor int // rotation position for known-device probe sampling
}

// ScannerOpts configures a Scanner.
type ScannerOpts struct {
	Sources    []Source
	Vendors    *VendorTable
	Hostnames  HostnameResolver
	Probe      ProbeFunc
	ProbeRate  rate.Limit
	SampleSize int
	Known      func(mac string) bool
	Logger     *zap.Logger
}

// NewScanner assembles a scanner from its collaborators.
func NewScanner(opts ScannerOpts) *Scanner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = 5
	}
	if opts.ProbeRate <= 0 {
		opts.ProbeRate = 10
	}
	if opts.Known == nil {
		opts.Known = func(string) bool { return false }
	}
	return &Scanner{
		sources:    opts.Sources,
		vendors:    opts.Vendors,
		hostnames:  opts.Hostnames,
		probe:      opts.Probe,
		limiter:    rate.NewLimiter(opts.ProbeRate, 1),
		sampleSize: opts.SampleSize,
		known:      opts.Known,
		logger:     opts.Logger,
	}
}

// Discover walks the source chain until one yields candidates, then
// enriches and selectively probes them. A source error is a soft
// failure: it is logged and the next source gets its turn. Only when
// every source fails does Discover return an error.
func (s *Scanner) Discover(ctx context.Context) ([]Candidate, []DuplicateIP, error) {
	var (
		candidates []Candidate
		dups       []DuplicateIP
		lastErr    error
		usedSource string
	)

	for _, src := range s.sources {
		cands, d, err := src.Discover(ctx)
		if err != nil {
			s.logger.Debug("discovery source failed",
				zap.String("source", src.Name()),
				zap.Error(err))
			lastErr = err
			continue
		}
		if len(cands) == 0 {
			s.logger.Debug("discovery source returned nothing",
				zap.String("source", src.Name()))
			continue
		}
		candidates, dups, usedSource = cands, d, src.Name()
		break
	}

	if candidates == nil {
		if lastErr != nil {
			return nil, nil, lastErr
		}
		return []Candidate{}, nil, nil
	}

	s.enrich(candidates)
	s.runProbes(ctx, candidates)

	s.logger.Debug("discovery cycle complete",
		zap.String("source", usedSource),
		zap.Int("candidates", len(candidates)),
		zap.Int("duplicate_ips", len(dups)))
	return candidates, dups, nil
}

// enrich fills vendor, device type, and hostname gaps from the OUI
// table and the mDNS cache. Source-provided values win.
func (s *Scanner) enrich(candidates []Candidate) {
	for i := range candidates {
		c := &candidates[i]
		if s.vendors != nil && (c.Vendor == "" || c.Type == "" || c.Type == models.DeviceTypeUnknown) {
			if info, ok := s.vendors.Lookup(c.MAC); ok {
				if c.Vendor == "" {
					c.Vendor = info.Vendor
				}
				if c.Type == "" || c.Type == models.DeviceTypeUnknown {
					c.Type = info.Type
				}
			}
		}
		if c.Type == "" {
			c.Type = models.DeviceTypeUnknown
		}
		if c.Hostname == "" && s.hostnames != nil {
			c.Hostname = s.hostnames.HostnameFor(c.IP)
		}
	}
}

// runProbes measures every previously unseen device plus a rotating
// window of known ones, so each device gets fresh figures within a few
// cycles without flooding the network every cycle.
func (s *Scanner) runProbes(ctx context.Context, candidates []Candidate) {
	if s.probe == nil {
		return
	}

	targets := make([]int, 0, len(candidates))
	var knownIdx []int
	for i, c := range candidates {
		if !s.known(c.MAC) {
			targets = append(targets, i)
		} else {
			knownIdx = append(knownIdx, i)
		}
	}

	// Deterministic rotation over the known set.
	sort.Slice(knownIdx, func(a, b int) bool {
		return candidates[knownIdx[a]].MAC < candidates[knownIdx[b]].MAC
	})
	for n := 0; n < s.sampleSize && n < len(knownIdx); n++ {
		targets = append(targets, knownIdx[(s.cursor+n)%len(knownIdx)])
	}
	if len(knownIdx) > 0 {
		s.cursor = (s.cursor + s.sampleSize) % len(knownIdx)
	}

	for _, i := range targets {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		c := &candidates[i]
		res, err := s.probe(ctx, c.IP)
		if err != nil {
			s.logger.Debug("probe failed",
				zap.String("ip", c.IP), zap.Error(err))
			continue
		}
		c.Probed = true
		c.LatencyMs = res.LatencyMs
		c.LossPct = res.LossPct
		if res.LatencyMs == nil && c.RTT != nil {
			ms := float64(*c.RTT) / float64(time.Millisecond)
			c.LatencyMs = &ms
		}
	}
}
